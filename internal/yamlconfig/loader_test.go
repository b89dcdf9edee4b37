package yamlconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/webcont/internal/contstore"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "service.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_FullFile(t *testing.T) {
	p := writeFile(t, `
store:
  default_ttl: 45m
  id_entropy_bytes: 32
reaper:
  interval: 30s
  policy: retain
diagnostics:
  listen_port: 8088
notify:
  socketio_url: ${SIO_URL}
  insecure_skip_verify: true
`)
	l := &Loader{Getenv: func(k string) string {
		if k == "SIO_URL" {
			return "https://events.local"
		}
		return ""
	}}

	m, err := l.Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, m.Store.DefaultTTL)
	assert.Equal(t, 32, m.Store.IDEntropyBytes)
	assert.Equal(t, 30*time.Second, m.Reaper.Interval)
	assert.Equal(t, 3*time.Minute, m.Reaper.Offset)
	assert.Equal(t, contstore.PolicyRetain, m.Reaper.Policy)
	assert.Equal(t, 8088, m.Diagnostics.ListenPort)
	assert.Equal(t, "https://events.local", m.Notify.SocketIOURL)
	assert.True(t, m.Notify.InsecureSkipVerify)
}

func TestLoad_EmptyFileYieldsDefaults(t *testing.T) {
	m, err := NewLoader().Load(context.Background(), writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, m.Store.DefaultTTL)
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), writeFile(t, "store:\n  size: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestLoad_Invalid(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), writeFile(t, "reaper:\n  interval: never\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reaper.interval")
}
