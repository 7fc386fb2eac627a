package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.squit.io/squit/cli/provider"
	"go.squit.io/squit/config"
	"go.squit.io/squit/utils"
	"go.uber.org/zap"
)

func init() {
	Register("test", Test)
}

// ErrTestsFailed is returned by the test command when at least one fixture failed.
var ErrTestsFailed = errors.New("some tests failed")

func Test(ctx context.Context, logger *zap.Logger, conf *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "test",
		Short:   "run the fixtures against their endpoints and compare the responses",
		Example: `squit test --path src/squit --var port=8080 --tags smoke`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdConfigurator.ValidateFlags(ctx, cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFactory.GetService(ctx, cmd.Name())
			if err != nil {
				utils.LogError(logger, err, "failed to get service", zap.String("command", cmd.Name()))
				return err
			}
			suite, ok := svc.(*provider.TestServices)
			if !ok {
				utils.LogError(logger, nil, "service doesn't satisfy test service")
				return errors.New("unexpected service for test command")
			}
			defer func() {
				if err := suite.Close(); err != nil {
					utils.LogError(logger, err, "failed to release test resources")
				}
			}()

			summary, err := suite.Runner.Run(ctx, suite.Transport)
			if err != nil {
				utils.LogError(logger, err, "failed to run the fixtures")
				return err
			}
			if _, err := suite.Report.Generate(ctx, summary.Results, summary.Duration); err != nil {
				utils.LogError(logger, err, "failed to generate the report")
				return err
			}
			if summary.Failed() {
				return ErrTestsFailed
			}
			return nil
		},
	}

	if err := cmdConfigurator.AddFlags(cmd); err != nil {
		utils.LogError(logger, err, "failed to add test flags")
		return nil
	}
	return cmd
}
