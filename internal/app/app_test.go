package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tucan/internal/config"
	"tucan/internal/controller"
	"tucan/internal/domain"
	"tucan/internal/launch"
)

type closer interface{ Close() error }

func TestSourcesFollowConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Plugins.Windows.Enabled = true
	cfg.Plugins.Git.IndexFile = filepath.Join(t.TempDir(), "index.json")
	cfg.Plugins.Apps.RankByUsage = false
	cfg.Plugins.Clock.Priority = 3

	specs := Sources(cfg, Deps{Logger: log.New(io.Discard), Runner: launch.NewRecorder()})
	t.Cleanup(func() {
		for _, s := range specs {
			if c, ok := s.Source.(closer); ok {
				_ = c.Close()
			}
		}
	})

	var ids []string
	for _, s := range specs {
		ids = append(ids, s.Source.Info().ID)
	}
	assert.Equal(t, []string{"clock", "windows", "applications", "git-repositories"}, ids)
	assert.Equal(t, uint(3), specs[0].Source.Info().Priority)
	assert.Equal(t, 40, specs[3].Options.MaxResults)
}

func TestSourcesKeepZeroPriority(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Plugins.Windows.Enabled = true
	cfg.Plugins.Git.IndexFile = filepath.Join(t.TempDir(), "index.json")
	cfg.Plugins.Apps.RankByUsage = false
	cfg.Plugins.Clock.Priority = 0
	cfg.Plugins.Windows.Priority = 0
	cfg.Plugins.Apps.Priority = 0
	cfg.Plugins.Git.Priority = 0

	specs := Sources(cfg, Deps{Logger: log.New(io.Discard), Runner: launch.NewRecorder()})
	t.Cleanup(func() {
		for _, s := range specs {
			if c, ok := s.Source.(closer); ok {
				_ = c.Close()
			}
		}
	})

	require.Len(t, specs, 4)
	for _, s := range specs {
		assert.Equal(t, uint(0), s.Source.Info().Priority, s.Source.Info().ID)
	}
}

func TestDefaultConfigPriorities(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Plugins.Windows.Enabled = true
	cfg.Plugins.Git.IndexFile = filepath.Join(t.TempDir(), "index.json")
	cfg.Plugins.Apps.RankByUsage = false

	specs := Sources(cfg, Deps{Logger: log.New(io.Discard), Runner: launch.NewRecorder()})
	t.Cleanup(func() {
		for _, s := range specs {
			if c, ok := s.Source.(closer); ok {
				_ = c.Close()
			}
		}
	})

	got := map[string]uint{}
	for _, s := range specs {
		got[s.Source.Info().ID] = s.Source.Info().Priority
	}
	assert.Equal(t, map[string]uint{
		"clock":            10,
		"windows":          15,
		"applications":     20,
		"git-repositories": 28,
	}, got)
}

func TestSourcesSkipDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Plugins.Apps.Enabled = false
	cfg.Plugins.Git.Enabled = false

	specs := Sources(cfg, Deps{Logger: log.New(io.Discard), Runner: launch.NewRecorder()})
	require.Len(t, specs, 1)
	assert.Equal(t, "clock", specs[0].Source.Info().ID)
}

func TestHostOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PollInterval = config.Duration(250 * time.Millisecond)
	cfg.MailboxCapacity = 12

	opts := HostOptions(cfg, log.New(io.Discard))
	assert.Equal(t, 12, opts.EventCapacity)
	assert.Equal(t, 12, opts.Defaults.RequestCapacity)
	assert.Equal(t, 250*time.Millisecond, opts.Defaults.PollInterval)
	assert.NotNil(t, opts.Defaults.Matcher)
}

type recordingSender struct {
	requests []domain.PluginRequest
}

func (s *recordingSender) TrySend(req domain.PluginRequest) error {
	s.requests = append(s.requests, req)
	return nil
}

func TestSnapshotSearchesOnceAllPluginsRegistered(t *testing.T) {
	ctrl := controller.New(log.New(io.Discard))
	clockSender := &recordingSender{}
	gitSender := &recordingSender{}

	msgs := make(chan domain.ControllerMessage, 10)
	msgs <- domain.RegisterPluginMessage{
		Plugin:   domain.PluginInfo{ID: "clock", Priority: 10},
		Entries:  []domain.Entry{{ID: "time-entry"}},
		Requests: clockSender,
	}
	msgs <- domain.RegisterPluginMessage{
		Plugin:   domain.PluginInfo{ID: "git-repositories", Priority: 28},
		Entries:  []domain.Entry{{ID: "/src/tucan"}, {ID: "/srv/infra"}},
		Requests: gitSender,
	}
	msgs <- domain.ClearMessage{PluginID: "git-repositories"}
	msgs <- domain.AppendEntryMessage{PluginID: "git-repositories", Entry: domain.Entry{ID: "/src/tucan"}}

	err := Snapshot(context.Background(), msgs, ctrl, "tucan", 2, 50*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, []domain.PluginRequest{domain.SearchRequest{Query: "tucan"}}, clockSender.requests)
	assert.Equal(t, []domain.PluginRequest{domain.SearchRequest{Query: "tucan"}}, gitSender.requests)
	assert.Equal(t, 2, ctrl.Len())
}

func TestSnapshotMissingPluginStillSearches(t *testing.T) {
	ctrl := controller.New(log.New(io.Discard))
	sender := &recordingSender{}

	msgs := make(chan domain.ControllerMessage, 1)
	msgs <- domain.RegisterPluginMessage{Plugin: domain.PluginInfo{ID: "clock"}, Requests: sender}

	require.NoError(t, Snapshot(context.Background(), msgs, ctrl, "x", 2, 20*time.Millisecond))
	assert.Len(t, sender.requests, 1)
}

func TestSnapshotWithRealHost(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.DefaultConfig()
	cfg.Plugins.Apps.Enabled = false
	cfg.Plugins.Git.Enabled = false
	logger := log.New(io.Discard)

	host, n := Start(ctx, HostOptions(cfg, logger), Sources(cfg, Deps{Logger: logger, Runner: launch.NewRecorder()}))
	ctrl := controller.New(logger)

	require.NoError(t, Snapshot(ctx, host.Messages(), ctrl, "clock date", n, 200*time.Millisecond))

	rows := ctrl.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "date", rows[0].Entry.ID)

	cancel()
	assert.NoError(t, host.Wait())
}

func TestOpenLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "tucan.log")

	logger, c, err := OpenLog(path, "debug")
	require.NoError(t, err)
	logger.Debug("hello", "plugin", "clock")
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "plugin=clock")

	_, _, err = OpenLog(path, "loud")
	assert.Error(t, err)
}
