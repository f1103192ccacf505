package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"tucan/internal/plugins/apps"
	"tucan/internal/plugins/clock"
	"tucan/internal/plugins/gitrepos"
	"tucan/internal/plugins/windows"
)

// ErrNotFound is returned when an explicitly requested config file does not exist
var ErrNotFound = errors.New("config file not found")

const (
	MatchSubstring = "substring"
	MatchFuzzy     = "fuzzy"
)

// Config represents the application configuration
type Config struct {
	Version         int      `toml:"version"`
	PollInterval    Duration `toml:"poll_interval"`
	MailboxCapacity int      `toml:"mailbox_capacity"`
	Match           string   `toml:"match"`
	Plugins         Plugins  `toml:"plugins"`
	Index           Index    `toml:"index"`
}

// Plugins holds the per-plugin settings
type Plugins struct {
	Clock   PluginSettings `toml:"clock"`
	Git     GitSettings    `toml:"git"`
	Apps    AppsSettings   `toml:"apps"`
	Windows PluginSettings `toml:"windows"`
}

// PluginSettings are shared by every plugin
type PluginSettings struct {
	Enabled    bool `toml:"enabled"`
	Priority   uint `toml:"priority"`
	MaxResults int  `toml:"max_results,omitempty"`
}

// GitSettings configures the git repositories plugin
type GitSettings struct {
	Enabled    bool   `toml:"enabled"`
	Priority   uint   `toml:"priority"`
	MaxResults int    `toml:"max_results,omitempty"`
	IndexFile  string `toml:"index_file"`
	Terminal   string `toml:"terminal"`
	Editor     string `toml:"editor"`
	GitUI      string `toml:"git_ui"`
}

// AppsSettings configures the applications plugin
type AppsSettings struct {
	Enabled        bool     `toml:"enabled"`
	Priority       uint     `toml:"priority"`
	MaxResults     int      `toml:"max_results,omitempty"`
	RankByUsage    bool     `toml:"rank_by_usage"`
	UsageDir       string   `toml:"usage_dir"`
	RescanInterval Duration `toml:"rescan_interval"`
}

// Index configures how `tucan index` finds repositories
type Index struct {
	Roots    []string `toml:"roots"`
	MaxDepth int      `toml:"max_depth"`
}

// Duration is a time.Duration written as a string such as "1s"
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Service handles configuration management
type Service interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

type service struct {
	filePath string
}

// NewService creates a config service for path, or for the default location when path is empty
func NewService(path string) Service {
	if path == "" {
		path = DefaultPath()
	}
	return &service{filePath: path}
}

// DefaultPath is $XDG_CONFIG_HOME/tucan/config.toml
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(homeOrDot(), ".config")
	}
	return filepath.Join(configDir, "tucan", "config.toml")
}

// StateDir is $XDG_STATE_HOME/tucan
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "tucan")
	}
	return filepath.Join(homeOrDot(), ".local", "state", "tucan")
}

func (cs *service) Path() string {
	return cs.filePath
}

// Load reads the config file, falling back to defaults when it does not exist
func (cs *service) Load() (*Config, error) {
	cfg, err := cs.LoadFromPath(cs.filePath)
	if errors.Is(err, ErrNotFound) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

func (cs *service) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path. Keys missing from the
// file keep their default values.
func (cs *service) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (cs *service) SaveToPath(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects values the launcher cannot run with
func (c *Config) Validate() error {
	if c.PollInterval.Std() <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval.Std())
	}
	if c.MailboxCapacity <= 0 {
		return fmt.Errorf("mailbox_capacity must be positive, got %d", c.MailboxCapacity)
	}
	if c.Match != MatchSubstring && c.Match != MatchFuzzy {
		return fmt.Errorf("match must be %q or %q, got %q", MatchSubstring, MatchFuzzy, c.Match)
	}
	if c.Index.MaxDepth < 0 {
		return fmt.Errorf("index.max_depth must not be negative")
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:         1,
		PollInterval:    Duration(time.Second),
		MailboxCapacity: 100,
		Match:           MatchSubstring,
		Plugins: Plugins{
			Clock: PluginSettings{Enabled: true, Priority: clock.DefaultPriority},
			Git: GitSettings{
				Enabled:    true,
				Priority:   gitrepos.DefaultPriority,
				MaxResults: 40,
				IndexFile:  "~/.cache/tucan/" + gitrepos.IndexFileName,
				Terminal:   gitrepos.DefaultTerminal,
				Editor:     gitrepos.DefaultEditor,
				GitUI:      gitrepos.DefaultGitUI,
			},
			Apps: AppsSettings{
				Enabled:        true,
				Priority:       apps.DefaultPriority,
				MaxResults:     40,
				RankByUsage:    true,
				UsageDir:       filepath.Join(StateDir(), "usage"),
				RescanInterval: Duration(apps.DefaultRescanInterval),
			},
			Windows: PluginSettings{Enabled: false, Priority: windows.DefaultPriority},
		},
		Index: Index{
			Roots:    []string{"~"},
			MaxDepth: 5,
		},
	}
}

// Expand resolves a leading ~ in path to the home directory
func Expand(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

func homeOrDot() string {
	home, err := homedir.Dir()
	if err != nil {
		return "."
	}
	return home
}
