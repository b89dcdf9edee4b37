package contid

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultEntropyBytes is the number of random bytes per ID when none is configured.
	DefaultEntropyBytes = 16
	// MinEntropyBytes is the smallest entropy a generator accepts.
	MinEntropyBytes = 16

	timestampBytes = 6
	sequenceBytes  = 8
	headerBytes    = timestampBytes + sequenceBytes

	// A UUIDv4 is 16 bytes of which 6 bits are fixed version and variant
	// markers.
	uuidBytes      = 16
	uuidRandomBits = 122
)

// tailBytes is the length of the random tail for n bytes of entropy: the
// fewest whole UUIDv4 chunks carrying at least 8*n random bits.
func tailBytes(n int) int {
	chunks := (8*n + uuidRandomBits - 1) / uuidRandomBits
	return chunks * uuidBytes
}

var (
	encoding   = base64.RawURLEncoding
	minIDBytes = headerBytes + tailBytes(MinEntropyBytes)
)

// ErrEntropy reports that the random source could not produce bytes. It is
// not recoverable: a store that cannot mint unguessable IDs must not run.
var ErrEntropy = errors.New("contid: entropy source failed")

// Generator produces identifiers for new continuations.
type Generator interface {
	// NextID returns a fresh identifier. Two calls on the same generator
	// never return the same value.
	NextID() (string, error)
}

// Options configures a RandomGenerator. The zero value is usable.
type Options struct {
	// Clock supplies the timestamp part. Defaults to the real clock.
	Clock clockwork.Clock
	// Entropy is the random source. Defaults to crypto/rand.
	Entropy io.Reader
	// EntropyBytes is the number of random bytes an ID carries. The tail
	// is rounded up to whole UUIDv4 chunks so that 8*EntropyBytes bits are
	// random. Values below MinEntropyBytes are raised to it.
	EntropyBytes int
}

// RandomGenerator is the default Generator. It is safe for concurrent use.
type RandomGenerator struct {
	clock        clockwork.Clock
	entropy      io.Reader
	entropyBytes int
	seq          atomic.Uint64
}

var _ Generator = (*RandomGenerator)(nil)

// New creates a RandomGenerator from opts.
func New(opts Options) *RandomGenerator {
	g := &RandomGenerator{
		clock:        opts.Clock,
		entropy:      opts.Entropy,
		entropyBytes: opts.EntropyBytes,
	}
	if g.clock == nil {
		g.clock = clockwork.NewRealClock()
	}
	if g.entropy == nil {
		g.entropy = rand.Reader
	}
	if g.entropyBytes == 0 {
		g.entropyBytes = DefaultEntropyBytes
	}
	if g.entropyBytes < MinEntropyBytes {
		g.entropyBytes = MinEntropyBytes
	}
	return g
}

// NextID implements Generator.
func (g *RandomGenerator) NextID() (string, error) {
	buf := make([]byte, headerBytes, headerBytes+tailBytes(g.entropyBytes))

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(g.clock.Now().UnixMilli()))
	copy(buf[:timestampBytes], ts[8-timestampBytes:])
	binary.BigEndian.PutUint64(buf[timestampBytes:headerBytes], g.seq.Add(1))

	tail, err := g.randomTail()
	if err != nil {
		return "", err
	}
	buf = append(buf, tail...)
	return encoding.EncodeToString(buf), nil
}

// randomTail draws whole UUIDv4 chunks from the entropy source until they
// carry at least 8*entropyBytes random bits.
func (g *RandomGenerator) randomTail() ([]byte, error) {
	n := tailBytes(g.entropyBytes)
	tail := bytes.NewBuffer(make([]byte, 0, n))
	for tail.Len() < n {
		u, err := uuid.NewRandomFromReader(g.entropy)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEntropy, err)
		}
		tail.Write(u[:])
	}
	return tail.Bytes(), nil
}

// Valid reports whether id has the shape of a generated identifier. It does
// not say whether the identifier is known to any store.
func Valid(id string) bool {
	if len(id) < encoding.EncodedLen(minIDBytes) {
		return false
	}
	raw, err := encoding.DecodeString(id)
	if err != nil {
		return false
	}
	return len(raw) >= minIDBytes
}

// Sequence extracts the sequence number embedded in a valid identifier.
// Diagnostics use it to order continuations by creation.
func Sequence(id string) (uint64, error) {
	raw, err := encoding.DecodeString(id)
	if err != nil || len(raw) < minIDBytes {
		return 0, fmt.Errorf("malformed continuation id %q", id)
	}
	return binary.BigEndian.Uint64(raw[timestampBytes:headerBytes]), nil
}
