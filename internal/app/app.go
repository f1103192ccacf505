package app

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"tucan/internal/config"
	"tucan/internal/controller"
	"tucan/internal/domain"
	"tucan/internal/launch"
	"tucan/internal/plugin"
	"tucan/internal/plugins/apps"
	"tucan/internal/plugins/clock"
	"tucan/internal/plugins/gitrepos"
	"tucan/internal/plugins/windows"
	"tucan/internal/search"
	"tucan/internal/usage"
)

// Spec is a source together with its per-plugin worker options
type Spec struct {
	Source  plugin.Source
	Options plugin.WorkerOptions
}

// Deps are the collaborators shared by every source
type Deps struct {
	Logger *log.Logger
	Runner launch.Runner
}

// Sources builds the enabled sources in the order they are started
func Sources(cfg *config.Config, deps Deps) []Spec {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Runner == nil {
		deps.Runner = launch.NewExecRunner()
	}
	p := cfg.Plugins

	var specs []Spec
	if p.Clock.Enabled {
		specs = append(specs, Spec{
			Source:  clock.New(clock.WithPriority(p.Clock.Priority)),
			Options: plugin.WorkerOptions{MaxResults: p.Clock.MaxResults},
		})
	}
	if p.Windows.Enabled {
		specs = append(specs, Spec{
			Source: windows.New(windows.Options{
				Priority: p.Windows.Priority,
				Runner:   deps.Runner,
				Logger:   deps.Logger,
			}),
			Options: plugin.WorkerOptions{MaxResults: p.Windows.MaxResults},
		})
	}
	if p.Apps.Enabled {
		var store *usage.Store
		if p.Apps.RankByUsage {
			store = usage.Open(config.Expand(p.Apps.UsageDir))
		}
		specs = append(specs, Spec{
			Source: apps.New(apps.Options{
				Priority:       p.Apps.Priority,
				RescanInterval: p.Apps.RescanInterval.Std(),
				Usage:          store,
				Runner:         deps.Runner,
				Logger:         deps.Logger,
			}),
			Options: plugin.WorkerOptions{MaxResults: p.Apps.MaxResults},
		})
	}
	if p.Git.Enabled {
		specs = append(specs, Spec{
			Source: gitrepos.New(gitrepos.Options{
				IndexFile: config.Expand(p.Git.IndexFile),
				Priority:  p.Git.Priority,
				Terminal:  p.Git.Terminal,
				Editor:    p.Git.Editor,
				GitUI:     p.Git.GitUI,
				Runner:    deps.Runner,
				Logger:    deps.Logger,
			}),
			Options: plugin.WorkerOptions{MaxResults: p.Git.MaxResults},
		})
	}
	return specs
}

// HostOptions derives the host configuration from cfg
func HostOptions(cfg *config.Config, logger *log.Logger) plugin.HostOptions {
	return plugin.HostOptions{
		EventCapacity: cfg.MailboxCapacity,
		Defaults: plugin.WorkerOptions{
			PollInterval:    cfg.PollInterval.Std(),
			RequestCapacity: cfg.MailboxCapacity,
			Matcher:         search.MatcherFor(search.Mode(cfg.Match)),
			Logger:          logger,
		},
	}
}

// Start launches a host running every source and returns it with the number of plugins
func Start(ctx context.Context, opts plugin.HostOptions, specs []Spec) (*plugin.Host, int) {
	host := plugin.NewHost(ctx, opts)
	for _, spec := range specs {
		host.Start(spec.Source, spec.Options)
	}
	return host, len(specs)
}

// Snapshot feeds plugin messages into ctrl until the list settles. Once every
// plugin has registered, query is searched; Snapshot returns after no message
// arrived for the settle duration.
func Snapshot(ctx context.Context, msgs <-chan domain.ControllerMessage, ctrl *controller.Controller, query string, plugins int, settle time.Duration) error {
	registered := make(map[string]bool)
	searched := false
	sendQuery := func() {
		if !searched {
			ctrl.Search(query)
			searched = true
		}
	}
	if plugins == 0 {
		sendQuery()
		return nil
	}

	timer := time.NewTimer(settle)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if reg, isReg := msg.(domain.RegisterPluginMessage); isReg {
				registered[reg.Plugin.ID] = true
			}
			ctrl.Handle(msg)
			if len(registered) >= plugins {
				sendQuery()
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(settle)

		case <-timer.C:
			if !searched {
				// a plugin never registered, search what we have
				sendQuery()
				timer.Reset(settle)
				continue
			}
			return nil
		}
	}
}
