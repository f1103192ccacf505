//go:build e2e && unix

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Workspace is an isolated HOME with a config, a git index, fake launcher
// programs and a desktop entry directory
type Workspace struct {
	Root       string
	ConfigPath string
	LogPath    string
	IndexPath  string
	MarkerPath string
	DataDir    string
}

const fakeLauncher = `#!/bin/sh
echo "$(basename "$0") $*" >> %q
`

func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()
	root := t.TempDir()

	ws := &Workspace{
		Root:       root,
		ConfigPath: filepath.Join(root, "config.toml"),
		LogPath:    filepath.Join(root, "tucan.log"),
		IndexPath:  filepath.Join(root, "cache", "git-repositories-index.json"),
		MarkerPath: filepath.Join(root, "launched.txt"),
		DataDir:    filepath.Join(root, "share"),
	}

	binDir := filepath.Join(root, "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	for _, name := range []string{"fake-terminal", "fake-editor", "fake-gitui", "gtk-launch"} {
		script := fmt.Sprintf(fakeLauncher, ws.MarkerPath)
		require.NoError(t, os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755))
	}

	config := fmt.Sprintf(`poll_interval = "200ms"

[plugins.git]
index_file = %q
terminal = %q
editor = %q
git_ui = %q

[plugins.apps]
usage_dir = %q
`,
		ws.IndexPath,
		filepath.Join(binDir, "fake-terminal"),
		filepath.Join(binDir, "fake-editor"),
		filepath.Join(binDir, "fake-gitui"),
		filepath.Join(root, "usage"),
	)
	require.NoError(t, os.WriteFile(ws.ConfigPath, []byte(config), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(ws.DataDir, "applications"), 0o755))

	return ws
}

// Args are the global flags every invocation needs
func (ws *Workspace) Args() []string {
	return []string{"--config", ws.ConfigPath, "--log-file", ws.LogPath, "--log-level", "debug"}
}

// Env isolates the process from the user's home and desktop
func (ws *Workspace) Env(extra ...string) []string {
	env := append(os.Environ(),
		"LC_ALL=C.UTF-8",
		"LANG=C.UTF-8",
		"HOME="+ws.Root,
		"XDG_CONFIG_HOME="+filepath.Join(ws.Root, ".config"),
		"XDG_STATE_HOME="+filepath.Join(ws.Root, ".state"),
		"XDG_DATA_HOME="+filepath.Join(ws.Root, ".local", "share"),
		"XDG_DATA_DIRS="+ws.DataDir,
		"PATH="+filepath.Join(ws.Root, "bin")+string(os.PathListSeparator)+os.Getenv("PATH"),
	)
	return append(env, extra...)
}

// CreateRepo makes a directory that looks like a git checkout under HOME/src
func (ws *Workspace) CreateRepo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(ws.Root, "src", name)
	require.NoError(t, os.MkdirAll(filepath.Join(path, ".git"), 0o755))
	return path
}

// WriteIndex replaces the git index with repos
func (ws *Workspace) WriteIndex(t *testing.T, repos ...string) {
	t.Helper()
	if repos == nil {
		repos = []string{}
	}
	data, err := json.Marshal(repos)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(ws.IndexPath), 0o755))
	require.NoError(t, os.WriteFile(ws.IndexPath, data, 0o644))
}

// AddDesktopEntry installs a minimal application entry
func (ws *Workspace) AddDesktopEntry(t *testing.T, file, name, generic string) {
	t.Helper()
	content := strings.Join([]string{
		"[Desktop Entry]",
		"Type=Application",
		"Name=" + name,
		"GenericName=" + generic,
		"Exec=" + strings.ToLower(name),
		"",
	}, "\n")
	path := filepath.Join(ws.DataDir, "applications", file)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// Launched returns the lines the fake launcher programs recorded
func (ws *Workspace) Launched() []string {
	data, err := os.ReadFile(ws.MarkerPath)
	if err != nil {
		return nil
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}
