package dir

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/ragcore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

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

func TestNewValidation(t *testing.T) {
	_, err := New("", "/tmp")
	assert.ErrorIs(t, err, ErrEmptyID)

	_, err = New("docs", "")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestInitRejectsMissingDirectory(t *testing.T) {
	l, err := New("docs", filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Error(t, l.Init(context.Background()))
}

func TestFragmentsSplitsParagraphs(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "first paragraph\n\nsecond paragraph\n")
	writeFile(t, dir, "skip.json", "{}")

	l, err := New("docs", dir)
	require.NoError(t, err)
	require.NoError(t, l.Init(context.Background()))

	fragments := collect(t, l)
	require.Len(t, fragments, 2)
	assert.Equal(t, "first paragraph", fragments[0].PageContent)
	assert.Equal(t, "second paragraph", fragments[1].PageContent)
	assert.Equal(t, path, fragments[0].Source())
}

func TestFragmentsStableOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "beta")
	writeFile(t, dir, "a.md", "alpha")

	l, err := New("docs", dir)
	require.NoError(t, err)
	require.NoError(t, l.Init(context.Background()))

	fragments := collect(t, l)
	require.Len(t, fragments, 2)
	assert.Equal(t, "alpha", fragments[0].PageContent)
	assert.Equal(t, "beta", fragments[1].PageContent)
}

func TestSplitParagraphs(t *testing.T) {
	paragraphs := splitParagraphs("one\r\n\r\ntwo\n\n\n\nthree\n\n")
	assert.Equal(t, []string{"one", "two", "three"}, paragraphs)
}

func TestWatchDeliversNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "existing")

	l, err := New("docs", dir, WithWatch())
	require.NoError(t, err)
	require.NoError(t, l.Init(context.Background()))
	defer l.Close()

	// Consume the initial pass so existing files are marked as seen.
	collect(t, l)

	var mu sync.Mutex
	var received []core.Fragment
	l.OnNewFragments(func(fragments []core.Fragment) {
		mu.Lock()
		received = append(received, fragments...)
		mu.Unlock()
	})

	writeFile(t, dir, "new.txt", "fresh content")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "fresh content", received[0].PageContent)
}
