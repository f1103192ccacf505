package apps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"tucan/internal/domain"
	"tucan/internal/launch"
	"tucan/internal/usage"
)

const (
	ID                    = "applications"
	DefaultPriority       = 20
	DefaultRescanInterval = 30 * time.Second

	cacheSize = 2048
	cacheTTL  = 10 * time.Minute
)

// Options configures the applications source
type Options struct {
	Dirs []string
	// Priority is used as given; 0 sorts before every other section
	Priority       uint
	RescanInterval time.Duration
	// Usage ranks frequently launched applications first when set
	Usage  *usage.Store
	Runner launch.Runner
	Logger *log.Logger
	Now    func() time.Time
}

type parsed struct {
	entry domain.Entry
	ok    bool
}

// Source lists installed desktop applications and launches them with gtk-launch
type Source struct {
	opts   Options
	logger *log.Logger
	cache  *expirable.LRU[string, parsed]

	mu       sync.Mutex
	entries  []domain.Entry
	lastScan time.Time
}

// New creates the applications source
func New(opts Options) *Source {
	if opts.Dirs == nil {
		opts.Dirs = DataDirs()
	}
	if opts.RescanInterval <= 0 {
		opts.RescanInterval = DefaultRescanInterval
	}
	if opts.Runner == nil {
		opts.Runner = launch.NewExecRunner()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Source{
		opts:   opts,
		logger: opts.Logger.With("plugin", ID),
		cache:  expirable.NewLRU[string, parsed](cacheSize, nil, cacheTTL),
	}
}

func (s *Source) Info() domain.PluginInfo {
	return domain.PluginInfo{ID: ID, Priority: s.opts.Priority, Title: "󰀻 Apps"}
}

// Entries rescans the application directories at most once per rescan interval
func (s *Source) Entries(ctx context.Context) ([]domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	if s.entries == nil || now.Sub(s.lastScan) >= s.opts.RescanInterval {
		entries, err := s.scan(ctx)
		if err != nil {
			return nil, err
		}
		s.entries = entries
		s.lastScan = now
	}

	entries := append([]domain.Entry(nil), s.entries...)
	s.rank(entries)
	return entries, nil
}

// Activate launches the application and asks the launcher to exit
func (s *Source) Activate(ctx context.Context, entry domain.Entry) (bool, error) {
	if err := s.opts.Runner.Start("gtk-launch", LaunchName(entry.ID)); err != nil {
		return false, fmt.Errorf("launch %q: %w", entry.Title, err)
	}
	if s.opts.Usage != nil {
		if _, err := s.opts.Usage.Increment(entry.ID); err != nil {
			s.logger.Warn("Failed to record usage", "entry", entry.ID, "err", err)
		}
	}
	return true, nil
}

func (s *Source) scan(ctx context.Context) ([]domain.Entry, error) {
	var found []domain.Entry

	for _, dir := range s.opts.Dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == dir {
					return fs.SkipDir
				}
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() || !strings.HasSuffix(path, ".desktop") {
				return nil
			}

			if entry, ok := s.load(path); ok {
				found = append(found, entry)
			}
			return nil
		})
		if err != nil && !errors.Is(err, fs.SkipDir) {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
	}

	// later directories override earlier ones on equal titles
	for i, j := 0, len(found)-1; i < j; i, j = i+1, j-1 {
		found[i], found[j] = found[j], found[i]
	}
	sort.SliceStable(found, func(i, j int) bool {
		return strings.ToLower(found[i].Title) < strings.ToLower(found[j].Title)
	})

	entries := found[:0]
	for _, e := range found {
		if n := len(entries); n > 0 && strings.EqualFold(entries[n-1].Title, e.Title) {
			continue
		}
		entries = append(entries, e)
	}

	s.logger.Debug("Scanned applications", "entries", len(entries))
	return entries, nil
}

// load parses a desktop file, reusing the cached result while its mtime is unchanged
func (s *Source) load(path string) (domain.Entry, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Entry{}, false
	}
	key := fmt.Sprintf("%s@%d", path, info.ModTime().UnixNano())
	if p, ok := s.cache.Get(key); ok {
		return p.entry, p.ok
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Entry{}, false
	}
	entry, ok, err := ParseDesktop(path, data)
	if err != nil {
		s.logger.Debug("Skipping malformed desktop file", "path", path, "err", err)
	}
	s.cache.Add(key, parsed{entry: entry, ok: ok})
	return entry, ok
}

func (s *Source) rank(entries []domain.Entry) {
	if s.opts.Usage == nil {
		return
	}
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[e.ID] = s.opts.Usage.Count(e.ID)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return counts[entries[i].ID] > counts[entries[j].ID]
	})
}
