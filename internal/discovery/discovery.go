package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultMaxDepth is how deep below a root the scanner looks for repositories
const DefaultMaxDepth = 5

// skipDirs are never descended into
var skipDirs = map[string]bool{
	"node_modules":  true,
	"vendor":        true,
	"dist":          true,
	"build":         true,
	"target":        true,
	"__pycache__":   true,
	"venv":          true,
	"env":           true,
	".npm":          true,
	".cache":        true,
	".gradle":       true,
	".pytest_cache": true,
	".tox":          true,
	".venv":         true,
}

// Options configures a Scanner
type Options struct {
	MaxDepth int
	Logger   *log.Logger
	// OnFound is called for every repository as soon as it is discovered
	OnFound func(path string)
}

// Scanner finds git repositories in the filesystem
type Scanner struct {
	maxDepth int
	logger   *log.Logger
	onFound  func(path string)
}

// NewScanner creates a new scanner
func NewScanner(opts Options) *Scanner {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Scanner{
		maxDepth: opts.MaxDepth,
		logger:   opts.Logger.With("component", "discovery"),
		onFound:  opts.OnFound,
	}
}

// Scan walks every root and returns the sorted, de-duplicated repository paths
func (s *Scanner) Scan(ctx context.Context, roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var repos []string

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", root, err)
		}

		err = s.scanDirectory(ctx, abs, func(repo string) {
			if seen[repo] {
				return
			}
			seen[repo] = true
			repos = append(repos, repo)
			if s.onFound != nil {
				s.onFound(repo)
			}
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(repos)
	return repos, nil
}

// scanDirectory recursively scans a directory for git repositories
func (s *Scanner) scanDirectory(ctx context.Context, root string, found func(string)) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.logger.Debug("Skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		if strings.Count(relPath, string(filepath.Separator)) > s.maxDepth {
			return filepath.SkipDir
		}

		name := d.Name()
		if name == ".git" {
			// the parent is the repo root; nested repositories below it are still found
			found(filepath.Dir(path))
			return filepath.SkipDir
		}
		if path != root && (skipDirs[name] || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scan %s: %w", root, err)
	}
	return err
}

// WriteIndex stores repos as a JSON array at path, replacing the file atomically
// so that watchers never observe a partial index
func WriteIndex(path string, repos []string) error {
	if repos == nil {
		repos = []string{}
	}
	data, err := json.MarshalIndent(repos, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.json")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace index %s: %w", path, err)
	}
	return nil
}
