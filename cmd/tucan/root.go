package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tucan/internal/app"
	"tucan/internal/config"
	"tucan/internal/controller"
	"tucan/internal/ui"
)

func newRootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tucan",
		Short:         "Keystroke-driven launcher for apps, repositories and windows",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLauncher(cmd.Context(), v)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default "+config.DefaultPath()+")")
	flags.String("log-file", filepath.Join(config.StateDir(), "tucan.log"), "log file")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Duration("poll-interval", 0, "override the plugin poll interval")
	flags.String("match", "", "match mode override (substring or fuzzy)")

	_ = v.BindPFlags(flags)
	v.SetEnvPrefix("TUCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd.AddCommand(newListCmd(v), newIndexCmd(v), newConfigCmd(v))
	return cmd
}

// loadConfig reads the config file and applies flag and environment overrides
func loadConfig(v *viper.Viper) (*config.Config, config.Service, error) {
	svc := config.NewService(v.GetString("config"))
	cfg, err := svc.Load()
	if err != nil {
		return nil, nil, err
	}

	if d := v.GetDuration("poll-interval"); d > 0 {
		cfg.PollInterval = config.Duration(d)
	}
	if m := v.GetString("match"); m != "" {
		cfg.Match = m
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, svc, nil
}

func openLogger(v *viper.Viper) (*log.Logger, func(), error) {
	logger, closer, err := app.OpenLog(v.GetString("log-file"), v.GetString("log-level"))
	if err != nil {
		return nil, nil, err
	}
	log.SetDefault(logger)
	return logger, func() { _ = closer.Close() }, nil
}

func runLauncher(ctx context.Context, v *viper.Viper) error {
	logger, closeLog, err := openLogger(v)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, svc, err := loadConfig(v)
	if err != nil {
		return err
	}
	logger.Info("Starting launcher", "config", svc.Path(), "poll_interval", cfg.PollInterval.Std(), "match", cfg.Match)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	host, n := app.Start(ctx, app.HostOptions(cfg, logger), app.Sources(cfg, app.Deps{Logger: logger}))
	logger.Debug("Plugins started", "count", n)

	model := ui.NewModel(controller.New(logger), logger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.SetProgram(p)

	// forward plugin messages into the UI loop, which owns the controller
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-host.Messages():
				p.Send(ui.PluginMsg{Message: msg})
			}
		}
	}()

	_, err = p.Run()
	cancel()
	if waitErr := host.Wait(); waitErr != nil {
		logger.Warn("Plugin host stopped with error", "err", waitErr)
	}

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error("Error running program", "err", err)
		return fmt.Errorf("run launcher: %w", err)
	}
	logger.Info("Launcher exited")
	return nil
}
