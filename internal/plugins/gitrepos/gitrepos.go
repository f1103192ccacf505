package gitrepos

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"

	"tucan/internal/domain"
	"tucan/internal/launch"
)

const (
	ID              = "git-repositories"
	DefaultPriority = 28
	IndexFileName   = "git-repositories-index.json"

	DefaultTerminal = "alacritty"
	DefaultEditor   = "sublime_text"
	DefaultGitUI    = "sublime_merge"
)

// Options configures the git repositories source
type Options struct {
	IndexFile string
	// Priority is used as given; 0 sorts before every other section
	Priority uint
	Terminal string
	Editor   string
	GitUI    string
	// Home is replaced by ~ in titles; resolved from the environment when empty
	Home   string
	Runner launch.Runner
	Logger *log.Logger
}

// Source lists repositories from an index file and opens them in a terminal,
// an editor and a git UI
type Source struct {
	opts   Options
	logger *log.Logger

	watcher *fsnotify.Watcher
	stale   atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	entries []domain.Entry
	missing bool
	read    func(path string) ([]string, error)
}

// New creates the source and starts watching its index file for changes.
// When the watch cannot be set up the index is re-read on every refresh.
func New(opts Options) *Source {
	if opts.Terminal == "" {
		opts.Terminal = DefaultTerminal
	}
	if opts.Editor == "" {
		opts.Editor = DefaultEditor
	}
	if opts.GitUI == "" {
		opts.GitUI = DefaultGitUI
	}
	if opts.Home == "" {
		if home, err := homedir.Dir(); err == nil {
			opts.Home = home
		}
	}
	if opts.Runner == nil {
		opts.Runner = launch.NewExecRunner()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Source{
		opts:   opts,
		logger: opts.Logger.With("plugin", ID),
		done:   make(chan struct{}),
		read:   ReadIndex,
	}
	s.stale.Store(true)
	s.watch()
	return s
}

func (s *Source) Info() domain.PluginInfo {
	return domain.PluginInfo{ID: ID, Priority: s.opts.Priority, Title: "󰘬 Git Repositories"}
}

// Entries returns the cached index, re-reading the file after it changed.
// A missing index file is an empty list until `tucan index` writes one.
func (s *Source) Entries(ctx context.Context) ([]domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// cleared before reading so a change during the read marks it stale again
	if s.watcher != nil && !s.stale.Swap(false) {
		return append([]domain.Entry(nil), s.entries...), nil
	}

	paths, err := s.read(s.opts.IndexFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !s.missing {
			s.logger.Warn("Git index not found, run `tucan index` to create it", "path", s.opts.IndexFile)
			s.missing = true
		}
		paths = nil
	case err != nil:
		s.stale.Store(true)
		return nil, fmt.Errorf("read git index %s: %w", s.opts.IndexFile, err)
	default:
		s.missing = false
	}

	entries := make([]domain.Entry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, domain.Entry{
			ID:     p,
			Title:  DisplayTitle(p, s.opts.Home),
			Action: "focus",
			Meta:   "git",
		})
	}
	s.entries = entries
	s.logger.Debug("Loaded git index", "repositories", len(entries))

	return append([]domain.Entry(nil), entries...), nil
}

// Activate opens the repository in the terminal, editor and git UI, then asks
// the launcher to exit
func (s *Source) Activate(ctx context.Context, entry domain.Entry) (bool, error) {
	launches := []struct {
		role string
		name string
		args []string
	}{
		{"terminal", s.opts.Terminal, []string{"--working-directory", entry.ID}},
		{"editor", s.opts.Editor, []string{"--new-window", entry.ID}},
		{"git ui", s.opts.GitUI, []string{"--new-window", entry.ID}},
	}

	for _, l := range launches {
		if err := s.opts.Runner.Start(l.name, l.args...); err != nil {
			return false, fmt.Errorf("launch %s for %q: %w", l.role, entry.ID, err)
		}
	}
	return true, nil
}

// Close stops the index watcher
func (s *Source) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.wg.Wait()
	return err
}

// watch observes the index file's directory; editors and the indexer replace
// the file rather than writing it in place
func (s *Source) watch() {
	if s.opts.IndexFile == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("Cannot watch git index, re-reading on every refresh", "err", err)
		return
	}
	dir := filepath.Dir(s.opts.IndexFile)
	if err := watcher.Add(dir); err != nil {
		s.logger.Warn("Cannot watch git index, re-reading on every refresh", "dir", dir, "err", err)
		_ = watcher.Close()
		return
	}
	s.watcher = watcher

	target := filepath.Clean(s.opts.IndexFile)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.done:
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != target {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					s.stale.Store(true)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("Git index watcher error", "err", err)
				s.stale.Store(true)
			}
		}
	}()
}
