package contstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/webcont/internal/continuation"
)

func TestParseExpiryPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ExpiryPolicy
		wantErr bool
	}{
		{in: "", want: PolicyCascade},
		{in: "cascade", want: PolicyCascade},
		{in: " Retain ", want: PolicyRetain},
		{in: "never", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExpiryPolicy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDisposerError_Unwraps(t *testing.T) {
	err := error(&DisposerError{ID: "abc", Err: io.ErrUnexpectedEOF})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "abc")

	var de *DisposerError
	require.True(t, errors.As(errors.Join(errors.New("other"), err), &de))
	assert.Equal(t, "abc", de.ID)
}

func TestTreeSize(t *testing.T) {
	leaf := Tree{Continuation: &continuation.Continuation{ID: "c"}}
	tree := Tree{
		Continuation: &continuation.Continuation{ID: "a"},
		Children: []Tree{
			{Continuation: &continuation.Continuation{ID: "b"}, Children: []Tree{leaf}},
			leaf,
		},
	}
	assert.Equal(t, 4, tree.Size())
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "invalidated", Invalidated.String())
	assert.Equal(t, "expired", Expired.String())
	assert.Equal(t, "unknown", EventKind(42).String())
}

func TestObserverFunc(t *testing.T) {
	var got Event
	var o Observer = ObserverFunc(func(_ context.Context, ev Event) { got = ev })
	o.Observe(context.Background(), Event{Kind: Expired, ID: "x"})
	assert.Equal(t, "x", got.ID)
}
