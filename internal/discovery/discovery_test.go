package discovery

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tucan/internal/plugins/gitrepos"
)

func mkRepo(t *testing.T, parts ...string) string {
	t.Helper()
	dir := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	return dir
}

func TestScanFindsRepositories(t *testing.T) {
	root := t.TempDir()
	tucan := mkRepo(t, root, "src", "tucan")
	infra := mkRepo(t, root, "work", "infra")
	mkRepo(t, root, "src", "web", "node_modules", "left-pad")
	mkRepo(t, root, ".hidden", "secret")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "notes"), 0o755))

	var reported []string
	s := NewScanner(Options{
		Logger:  log.New(io.Discard),
		OnFound: func(p string) { reported = append(reported, p) },
	})

	repos, err := s.Scan(context.Background(), []string{root, root})
	require.NoError(t, err)
	assert.Equal(t, []string{tucan, infra}, repos)
	assert.ElementsMatch(t, repos, reported)
}

func TestScanHonoursMaxDepth(t *testing.T) {
	root := t.TempDir()
	shallow := mkRepo(t, root, "a")
	mkRepo(t, root, "a", "b", "c", "d")

	s := NewScanner(Options{MaxDepth: 1, Logger: log.New(io.Discard)})
	repos, err := s.Scan(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, []string{shallow}, repos)
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	mkRepo(t, root, "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScanner(Options{Logger: log.New(io.Discard)}).Scan(ctx, []string{root})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteIndexIsReadableByGitPlugin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", gitrepos.IndexFileName)
	repos := []string{"/home/ana/src/tucan", "/srv/infra"}

	require.NoError(t, WriteIndex(path, repos))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "["))

	got, err := gitrepos.ReadIndex(path)
	require.NoError(t, err)
	assert.Equal(t, repos, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file removed")
}
