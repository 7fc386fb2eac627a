package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.squit.io/squit/config"
	"go.squit.io/squit/pkg/platform/history"
	"go.squit.io/squit/utils"
	"go.uber.org/zap"
)

func init() {
	Register("flaky", Flaky)
}

type historyService interface {
	Flaky(ctx context.Context, threshold float64) ([]*history.Fixture, error)
	Close() error
}

func Flaky(ctx context.Context, logger *zap.Logger, conf *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "flaky",
		Short:   "list fixtures that both passed and failed in recorded runs",
		Example: `squit flaky --threshold 0.2`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdConfigurator.ValidateFlags(ctx, cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !utils.CheckFileExists(conf.HistoryPath()) {
				logger.Warn("no result history found, run tests with --history first", zap.String("path", conf.HistoryPath()))
				return nil
			}
			svc, err := serviceFactory.GetService(ctx, cmd.Name())
			if err != nil {
				utils.LogError(logger, err, "failed to get service", zap.String("command", cmd.Name()))
				return err
			}
			store, ok := svc.(historyService)
			if !ok {
				utils.LogError(logger, nil, "service doesn't satisfy history service")
				return errors.New("unexpected service for flaky command")
			}
			defer func() {
				if err := store.Close(); err != nil {
					utils.LogError(logger, err, "failed to close result history")
				}
			}()

			fixtures, err := store.Flaky(ctx, conf.History.Threshold)
			if err != nil {
				utils.LogError(logger, err, "failed to query result history")
				return err
			}
			if len(fixtures) == 0 {
				logger.Info("no flaky fixtures found")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Fixture", "Runs", "Failed", "Failure rate", "Recent"})
			table.SetAutoWrapText(false)
			for _, f := range fixtures {
				table.Append([]string{
					f.Path,
					fmt.Sprint(f.Runs),
					fmt.Sprint(f.Failed),
					fmt.Sprintf("%.0f%%", f.FailureRate*100),
					recentRuns(f.Recent),
				})
			}
			table.Render()
			return nil
		},
	}

	if err := cmdConfigurator.AddFlags(cmd); err != nil {
		utils.LogError(logger, err, "failed to add flaky flags")
		return nil
	}
	return cmd
}

// recentRuns renders newest first, "+" for a pass and "x" for a failure.
func recentRuns(recent []bool) string {
	var b strings.Builder
	for _, passed := range recent {
		if passed {
			b.WriteByte('+')
		} else {
			b.WriteByte('x')
		}
	}
	return b.String()
}
