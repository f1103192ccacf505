package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tucan/internal/config"
	"tucan/internal/discovery"
)

func newIndexCmd(v *viper.Viper) *cobra.Command {
	var (
		maxDepth int
		output   string
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "index [roots...]",
		Short: "Find git repositories and write the index used by the git plugin",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := openLogger(v)
			if err != nil {
				return err
			}
			defer closeLog()

			cfg, _, err := loadConfig(v)
			if err != nil {
				return err
			}

			roots := args
			if len(roots) == 0 {
				roots = cfg.Index.Roots
			}
			for i, r := range roots {
				roots[i] = config.Expand(r)
			}
			if maxDepth <= 0 {
				maxDepth = cfg.Index.MaxDepth
			}
			if output == "" {
				output = config.Expand(cfg.Plugins.Git.IndexFile)
			}

			out := cmd.OutOrStdout()
			scanner := discovery.NewScanner(discovery.Options{
				MaxDepth: maxDepth,
				Logger:   logger,
				OnFound: func(path string) {
					if !quiet {
						fmt.Fprintln(out, path)
					}
				},
			})

			repos, err := scanner.Scan(cmd.Context(), roots)
			if err != nil {
				return err
			}
			if err := discovery.WriteIndex(output, repos); err != nil {
				return err
			}

			logger.Info("Wrote git index", "path", output, "repositories", len(repos))
			fmt.Fprintf(out, "Indexed %d repositories into %s\n", len(repos), output)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "directory depth below each root (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "index file (default from config)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print repositories as they are found")
	return cmd
}
