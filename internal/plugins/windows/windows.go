package windows

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"tucan/internal/domain"
	"tucan/internal/launch"
)

const (
	ID              = "windows"
	DefaultPriority = 15
)

// Window is one line of wmctrl -l output
type Window struct {
	ID      string
	Desktop string
	Host    string
	Title   string
}

// ParseList parses `wmctrl -l` output. Lines with fewer than four columns are skipped.
func ParseList(out []byte) []Window {
	var windows []Window
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		rest := scanner.Text()
		var w Window
		w.ID, rest = nextField(rest)
		w.Desktop, rest = nextField(rest)
		w.Host, rest = nextField(rest)
		w.Title = strings.TrimSpace(rest)
		if w.ID == "" || w.Title == "" {
			continue
		}
		windows = append(windows, w)
	}
	return windows
}

func nextField(s string) (field, rest string) {
	s = strings.TrimLeft(s, " \t")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

// Options configures the windows source
type Options struct {
	// Priority is used as given; 0 sorts before every other section
	Priority uint
	Runner   launch.Runner
	Logger   *log.Logger
}

// Source lists open windows and focuses the selected one
type Source struct {
	opts   Options
	logger *log.Logger
	warned bool
}

// New creates the windows source
func New(opts Options) *Source {
	if opts.Runner == nil {
		opts.Runner = launch.NewExecRunner()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Source{opts: opts, logger: opts.Logger.With("plugin", ID)}
}

func (s *Source) Info() domain.PluginInfo {
	return domain.PluginInfo{ID: ID, Priority: s.opts.Priority, Title: "Windows"}
}

// Entries lists the open windows. Without wmctrl the section stays empty.
func (s *Source) Entries(ctx context.Context) ([]domain.Entry, error) {
	out, err := s.opts.Runner.Output(ctx, "wmctrl", "-l")
	if err != nil {
		if errors.Is(err, launch.ErrNotInstalled) {
			if !s.warned {
				s.logger.Warn("wmctrl not installed, window list disabled")
				s.warned = true
			}
			return []domain.Entry{}, nil
		}
		return nil, fmt.Errorf("list windows: %w", err)
	}

	windows := ParseList(out)
	entries := make([]domain.Entry, 0, len(windows))
	for _, w := range windows {
		entries = append(entries, domain.Entry{
			ID:     w.ID,
			Title:  w.Title,
			Action: "focus",
			Meta:   "Window",
		})
	}
	return entries, nil
}

// Activate raises the window and asks the launcher to exit
func (s *Source) Activate(ctx context.Context, entry domain.Entry) (bool, error) {
	if _, err := s.opts.Runner.Output(ctx, "wmctrl", "-i", "-a", entry.ID); err != nil {
		return false, fmt.Errorf("focus window %s: %w", entry.ID, err)
	}
	return true, nil
}
