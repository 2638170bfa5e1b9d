package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fentz26/jobreg/internal/scan"
	"github.com/fentz26/jobreg/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse " + lookupUsage,
	Short: "Browse the registry entries of a proxy subject interactively",
	Long: `Opens a terminal browser over the same entries scan would print. Format
arguments work as for scan and are shown in the detail view. The list reloads
when the registry changes.`,
	Args: cobra.ArbitraryArgs,
	RunE: runBrowse,
}

var browseLookup lookupFlags

func init() {
	browseLookup.register(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	hash, err := browseLookup.resolve(cmd.Flags())
	if err != nil {
		return err
	}

	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx := cmd.Context()
	if err := scan.Probe(ctx, reg, hash, browseLookup.subject, logger); err != nil {
		return err
	}

	app := tui.New(reg, tui.Options{
		Hash:      hash,
		Status:    browseLookup.status,
		Templates: args,
		Config:    cfg,
	})

	changes, err := tui.Watch(ctx, reg.Path())
	if err != nil {
		logger.Warn("Live reload disabled", zap.Error(err))
	} else {
		app.WithChanges(changes)
	}
	return app.Run()
}
