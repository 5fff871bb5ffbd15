package static

import (
	"context"
	"testing"

	"github.com/poiesic/ragcore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, l *Loader) []core.Fragment {
	t.Helper()

	seq, err := l.Fragments(context.Background())
	require.NoError(t, err)

	var fragments []core.Fragment
	for fragment, err := range seq {
		require.NoError(t, err)
		fragments = append(fragments, fragment)
	}
	return fragments
}

func TestNewRequiresID(t *testing.T) {
	_, err := New("", []string{"a"})
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestFragments(t *testing.T) {
	l, err := New("notes", []string{"first", "second"},
		WithSource("notes.txt"),
		WithMetadata(map[string]string{"lang": "en"}))
	require.NoError(t, err)
	require.NoError(t, l.Init(context.Background()))

	fragments := collect(t, l)
	require.Len(t, fragments, 2)

	assert.Equal(t, "first", fragments[0].PageContent)
	assert.Equal(t, "notes.txt", fragments[0].Source())
	assert.Equal(t, "en", fragments[0].Metadata["lang"])
}

func TestFragmentsEarlyStop(t *testing.T) {
	l, err := New("notes", []string{"a", "b", "c"})
	require.NoError(t, err)

	seq, err := l.Fragments(context.Background())
	require.NoError(t, err)

	seen := 0
	for _, err := range seq {
		require.NoError(t, err)
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}

func TestFragmentsCancelledContext(t *testing.T) {
	l, err := New("notes", []string{"a"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq, err := l.Fragments(ctx)
	require.NoError(t, err)

	for _, err := range seq {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestPushDeliversToHandler(t *testing.T) {
	l, err := New("notes", []string{"a"})
	require.NoError(t, err)

	var received []core.Fragment
	l.OnNewFragments(func(fragments []core.Fragment) {
		received = append(received, fragments...)
	})

	l.Push("b", "c")

	require.Len(t, received, 2)
	assert.Equal(t, "b", received[0].PageContent)
	assert.Equal(t, "c", received[1].PageContent)

	// Pushed texts also show up in later full iterations
	assert.Len(t, collect(t, l), 3)
}

func TestPushWithoutHandler(t *testing.T) {
	l, err := New("notes", nil)
	require.NoError(t, err)

	l.Push("a")
	assert.Len(t, collect(t, l), 1)
}
