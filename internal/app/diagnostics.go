package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"github.com/vk/webcont/internal/contid"
	"github.com/vk/webcont/internal/contstore"
	"github.com/vk/webcont/internal/ctxlog"
)

// treeJSON is the wire form of one continuation tree on /continuations.json.
type treeJSON struct {
	ID          string     `json:"id"`
	Sequence    uint64     `json:"seq,omitempty"`
	ParentID    string     `json:"parent_id,omitempty"`
	Scope       string     `json:"scope,omitempty"`
	PayloadType string     `json:"payload_type"`
	CreatedAt   time.Time  `json:"created_at"`
	LastAccess  time.Time  `json:"last_access"`
	TTL         string     `json:"ttl"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Children    []treeJSON `json:"children,omitempty"`
}

type forestJSON struct {
	Continuations int        `json:"continuations"`
	Trees         int        `json:"trees"`
	Pending       int        `json:"pending_expiries"`
	Forest        []treeJSON `json:"forest"`
}

func newTreeJSON(t contstore.Tree) treeJSON {
	out := treeJSON{
		ID:          t.ID,
		ParentID:    t.ParentID,
		Scope:       t.Scope,
		PayloadType: fmt.Sprintf("%T", t.Payload),
		CreatedAt:   t.CreatedAt.UTC(),
		LastAccess:  t.LastAccess.UTC(),
		TTL:         "never",
	}
	if seq, err := contid.Sequence(t.ID); err == nil {
		out.Sequence = seq
	}
	if t.Expires() {
		out.TTL = t.TTL.String()
		exp := t.ExpiresAt().UTC()
		out.ExpiresAt = &exp
	}
	for _, c := range t.Children {
		out.Children = append(out.Children, newTreeJSON(c))
	}
	return out
}

// handler builds the diagnostics mux.
func (a *App) handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctxlog.FromContext(ctx).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	mux.HandleFunc("/continuations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, a.store.DisplayAll(ctx))
	})
	mux.HandleFunc("/continuations.json", func(w http.ResponseWriter, r *http.Request) {
		stats := a.store.Stats(ctx)
		doc := forestJSON{
			Continuations: stats.Continuations,
			Trees:         stats.Trees,
			Pending:       stats.Pending,
			Forest:        []treeJSON{},
		}
		for _, t := range a.store.Forest(ctx) {
			doc.Forest = append(doc.Forest, newTreeJSON(t))
		}
		body, err := sonic.Marshal(doc)
		if err != nil {
			ctxlog.FromContext(ctx).Error("Failed to encode continuation forest", "error", err)
			http.Error(w, "encoding failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	return mux
}

// startDiagnosticsServer binds the configured port and serves in the
// background. A zero port disables the server.
func (a *App) startDiagnosticsServer(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	port := a.model.Diagnostics.ListenPort
	if port <= 0 {
		logger.Debug("Diagnostics server not started: disabled")
		return nil
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to bind diagnostics server: %w", err)
	}
	a.httpServer = &http.Server{
		Handler:           a.handler(ctx),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("🩺 Diagnostics server starting", "address", fmt.Sprintf("http://localhost:%d/health", port))
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Diagnostics server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closeDiagnosticsServer(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if a.httpServer == nil {
		logger.Debug("Diagnostics server was not running.")
		return nil
	}

	logger.Info("🩺 Shutting down diagnostics server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Diagnostics server shutdown failed", "error", err)
		return err
	}
	logger.Debug("Diagnostics server shut down gracefully.")
	return nil
}
