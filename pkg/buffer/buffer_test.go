package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gosvelte/pkg/buffer"
)

func TestSnapshotText(t *testing.T) {
	snap := buffer.New("App.svelte", 1, "hello world")

	tests := []struct {
		name       string
		start, end int
		want       string
	}{
		{name: "full", start: 0, end: 11, want: "hello world"},
		{name: "middle", start: 6, end: 11, want: "world"},
		{name: "empty", start: 3, end: 3, want: ""},
		{name: "end past length", start: 6, end: 100, want: "world"},
		{name: "negative start", start: -4, end: 5, want: "hello"},
		{name: "inverted", start: 8, end: 2, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, snap.Text(tt.start, tt.end))
		})
	}
}

func TestSnapshotNext(t *testing.T) {
	snap := buffer.New("App.svelte", 3, "a")
	next := snap.Next("ab")

	require.Equal(t, int32(4), next.Version())
	require.Equal(t, "App.svelte", next.Name())
	require.Equal(t, 2, next.Len())
	// the original is untouched
	require.Equal(t, "a", snap.String())
	require.Equal(t, "App.svelte@4", next.ID())
}
