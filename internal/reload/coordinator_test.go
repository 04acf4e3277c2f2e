package reload

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filemock/internal/diag"
)

type recordingSink struct {
	diagnostics []diag.Diagnostic
}

func (s *recordingSink) Emit(d diag.Diagnostic) { s.diagnostics = append(s.diagnostics, d) }
func (s *recordingSink) Info(string)            {}
func (s *recordingSink) Warn(string)            {}
func (s *recordingSink) Error(string)           {}
func (s *recordingSink) Success(string)         {}

func writeMock(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCoordinator_InitialCompile(t *testing.T) {
	root := t.TempDir()
	writeMock(t, filepath.Join(root, "a", "GET.json"), `{}`)

	c, err := New(root, &recordingSink{}, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Current().Len())
}

func TestCoordinator_FatalRootMissingOnInit(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), &recordingSink{}, 10*time.Millisecond)
	require.Error(t, err)
}

func TestCoordinator_ReloadSwapsTable(t *testing.T) {
	root := t.TempDir()
	writeMock(t, filepath.Join(root, "a", "GET.json"), `{}`)

	sink := &recordingSink{}
	c, err := New(root, sink, 20*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 1, c.Current().Len())

	events := make(chan struct{}, 1)
	go c.Run(events)
	defer c.Stop()

	writeMock(t, filepath.Join(root, "b", "POST.json"), `{}`)
	events <- struct{}{}

	require.Eventually(t, func() bool {
		return c.Current().Len() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestCoordinator_FatalReloadKeepsPreviousTable(t *testing.T) {
	root := t.TempDir()
	writeMock(t, filepath.Join(root, "a", "GET.json"), `{}`)

	sink := &recordingSink{}
	c, err := New(root, sink, 20*time.Millisecond)
	require.NoError(t, err)

	// Simulate the root vanishing without re-pointing c.root: remove
	// the directory, then send one event through Run to trigger a rescan.
	require.NoError(t, os.RemoveAll(root))

	events := make(chan struct{}, 1)
	go c.Run(events)
	defer c.Stop()
	events <- struct{}{}

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, c.Current().Len(), "previous table must be retained on fatal reload failure")
}
