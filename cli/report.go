package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.squit.io/squit/config"
	reportSvc "go.squit.io/squit/pkg/service/report"
	"go.squit.io/squit/utils"
	"go.uber.org/zap"
)

func init() {
	Register("report", Report)
}

func Report(ctx context.Context, logger *zap.Logger, _ *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "report",
		Short:   "print the summary and the diffs of a stored result file",
		Example: `squit report --file build/squit/reports/result.yaml --full-body`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdConfigurator.ValidateFlags(ctx, cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFactory.GetService(ctx, cmd.Name())
			if err != nil {
				utils.LogError(logger, err, "failed to get service", zap.String("command", cmd.Name()))
				return err
			}
			report, ok := svc.(reportSvc.Service)
			if !ok {
				utils.LogError(logger, nil, "service doesn't satisfy report service interface")
				return errors.New("unexpected service for report command")
			}

			file, err := cmd.Flags().GetString("file")
			if err != nil {
				utils.LogError(logger, err, "failed to read the result file flag")
				return err
			}
			if err := report.Render(ctx, file); err != nil {
				utils.LogError(logger, err, "failed to render report", zap.String("file", file))
				return err
			}
			return nil
		},
	}

	if err := cmdConfigurator.AddFlags(cmd); err != nil {
		utils.LogError(logger, err, "failed to add report flags")
		return nil
	}
	return cmd
}
