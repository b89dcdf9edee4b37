package contid

import (
	"errors"
	"regexp"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var urlSafe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestNextID_UniqueUnderConcurrency(t *testing.T) {
	g := New(Options{})
	const workers, perWorker = 16, 500

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			local := make([]string, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				id, err := g.NextID()
				if err != nil {
					t.Errorf("NextID failed: %v", err)
					return
				}
				local = append(local, id)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestNextID_IsURLSafeAndValid(t *testing.T) {
	g := New(Options{EntropyBytes: 24})
	id, err := g.NextID()
	require.NoError(t, err)

	assert.Regexp(t, urlSafe, id)
	assert.True(t, Valid(id))
	assert.Equal(t, encoding.EncodedLen(headerBytes+tailBytes(24)), len(id))
}

func TestNextID_SameClockStillDistinct(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	g := New(Options{Clock: clock})

	a, err := g.NextID()
	require.NoError(t, err)
	b, err := g.NextID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	seqA, err := Sequence(a)
	require.NoError(t, err)
	seqB, err := Sequence(b)
	require.NoError(t, err)
	assert.Equal(t, seqA+1, seqB)
}

func TestNextID_EntropyFailureIsFatal(t *testing.T) {
	g := New(Options{Entropy: iotest.ErrReader(errors.New("no randomness"))})

	id, err := g.NextID()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEntropy)
	assert.Empty(t, id)
}

func TestNew_RaisesSmallEntropy(t *testing.T) {
	g := New(Options{EntropyBytes: 4})
	assert.Equal(t, MinEntropyBytes, g.entropyBytes)
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{name: "empty", id: "", want: false},
		{name: "too short", id: "abc", want: false},
		{name: "bad alphabet", id: "!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!", want: false},
		{name: "tail of one uuid", id: encoding.EncodeToString(make([]byte, headerBytes+16)), want: false},
		{name: "padded base64", id: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=", want: false},
		{name: "well formed", id: encoding.EncodeToString(make([]byte, minIDBytes)), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.id))
		})
	}
}

func TestTailBytes_CoversRequestedEntropy(t *testing.T) {
	tests := []struct {
		entropy int
		want    int
	}{
		{entropy: 15, want: 16},
		{entropy: 16, want: 32},
		{entropy: 30, want: 32},
		{entropy: 31, want: 48},
		{entropy: 32, want: 48},
	}
	for _, tt := range tests {
		got := tailBytes(tt.entropy)
		assert.Equal(t, tt.want, got, "entropy=%d", tt.entropy)
		assert.GreaterOrEqual(t, got/uuidBytes*uuidRandomBits, 8*tt.entropy, "entropy=%d", tt.entropy)
	}
}

func TestNextID_TailIsWholeRandomUUIDs(t *testing.T) {
	g := New(Options{})
	id, err := g.NextID()
	require.NoError(t, err)

	raw, err := encoding.DecodeString(id)
	require.NoError(t, err)
	tail := raw[headerBytes:]
	require.Len(t, tail, 2*uuidBytes, "16 bytes of entropy need two chunks")
	for i := 0; i < len(tail); i += uuidBytes {
		u, err := uuid.FromBytes(tail[i : i+uuidBytes])
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), u.Version())
		assert.Equal(t, uuid.RFC4122, u.Variant())
	}
}
