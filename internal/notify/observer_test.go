package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/webcont/internal/contstore"
	"github.com/vk/webcont/internal/ctxlog"
)

var at = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestMulti_FansOutInOrder(t *testing.T) {
	var got []string
	record := func(name string) contstore.Observer {
		return contstore.ObserverFunc(func(_ context.Context, ev contstore.Event) {
			got = append(got, name+":"+ev.ID)
		})
	}
	m := Multi{record("a"), nil, record("b")}

	m.Observe(context.Background(), contstore.Event{ID: "x"})
	assert.Equal(t, []string{"a:x", "b:x"}, got)
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	LogObserver{Level: slog.LevelInfo}.Observe(ctx, contstore.Event{Kind: contstore.Expired, ID: "abc", ParentID: "root"})

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "event=expired")
	assert.Contains(t, out, "continuation_id=abc")
	assert.Contains(t, out, "parent_id=root")
}

func TestEventData(t *testing.T) {
	root := eventData(contstore.Event{Kind: contstore.Created, ID: "r", At: at})
	assert.Equal(t, map[string]any{"kind": "created", "id": "r", "at": "2024-01-01T12:00:00Z"}, root)

	child := eventData(contstore.Event{Kind: contstore.Invalidated, ID: "c", ParentID: "r", Scope: "s", At: at})
	assert.Equal(t, "r", child["parent_id"])
	assert.Equal(t, "s", child["scope"])
}

func TestSocketIOObserver_EmitsConfiguredEvent(t *testing.T) {
	type emitted struct {
		event string
		data  map[string]any
	}
	var sent []emitted
	closed := false
	o := &SocketIOObserver{
		event: "flow",
		emit:  func(event string, data map[string]any) { sent = append(sent, emitted{event, data}) },
		close: func() { closed = true },
	}

	o.Observe(context.Background(), contstore.Event{Kind: contstore.Expired, ID: "abc", At: at})
	require.Len(t, sent, 1)
	assert.Equal(t, "flow", sent[0].event)
	assert.Equal(t, "expired", sent[0].data["kind"])

	require.NoError(t, o.Close())
	assert.True(t, closed)
	assert.False(t, o.Connected())
}

func TestDialSocketIO_RejectsRelativeURL(t *testing.T) {
	_, err := DialSocketIO(context.Background(), SocketIOOptions{URL: "/socket.io/"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be absolute")

	_, err = DialSocketIO(context.Background(), SocketIOOptions{URL: "http://[::1"})
	require.Error(t, err)
}
