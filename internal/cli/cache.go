package cli

import (
	"fmt"

	"github.com/glorpus-work/upkeep/pkg/cache"
	"github.com/spf13/cobra"
)

// NewCacheCmd creates the cache command with subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage downloaded update media",
		Long:  "Show and clean the update media kept in the cache directory",
	}

	cmd.AddCommand(
		newCacheInfoCmd(),
		newCacheCleanCmd(),
	)

	return cmd
}

func newCacheOperation() (*cache.CacheOperation, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return cache.NewCacheOperation(cache.NewManager(cfg.Settings.CacheDir)), nil
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			op, err := newCacheOperation()
			if err != nil {
				return err
			}
			info, err := op.GetInfo()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), info)
			return nil
		},
	}
}

func newCacheCleanCmd() *cobra.Command {
	var options cache.CleanOptions

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove downloaded update media",
		Long: `Remove downloaded update media from the cache.

Without --downloads or --partial every cached file is removed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			op, err := newCacheOperation()
			if err != nil {
				return err
			}
			msg, err := op.Clean(options)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&options.All, "all", false, "Clean downloads and partial downloads")
	cmd.Flags().BoolVar(&options.Downloads, "downloads", false, "Clean finished downloads")
	cmd.Flags().BoolVar(&options.Partial, "partial", false, "Clean interrupted downloads")
	cmd.Flags().DurationVar(&options.OlderThan, "older-than", 0, "Only remove files older than this (e.g. 168h)")

	return cmd
}
