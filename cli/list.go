package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.squit.io/squit/config"
	"go.squit.io/squit/pkg/service/discover"
	"go.squit.io/squit/pkg/service/process"
	"go.squit.io/squit/pkg/service/run"
	"go.squit.io/squit/utils"
	"go.uber.org/zap"
)

func init() {
	Register("list", List)
}

func List(ctx context.Context, logger *zap.Logger, conf *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "list",
		Short:   "list the fixtures a test run would execute, in execution order",
		Example: `squit list --path src/squit --tags smoke`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdConfigurator.ValidateFlags(ctx, cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if processors, _ := cmd.Flags().GetBool("processors"); processors {
				for _, id := range process.Registered() {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}
			svc, err := serviceFactory.GetService(ctx, cmd.Name())
			if err != nil {
				utils.LogError(logger, err, "failed to get service", zap.String("command", cmd.Name()))
				return err
			}
			runner, ok := svc.(run.Service)
			if !ok {
				utils.LogError(logger, nil, "service doesn't satisfy run service interface")
				return errors.New("unexpected service for list command")
			}

			fixtures, err := runner.ResolveFixtures(ctx, conf.Path)
			if err != nil {
				utils.LogError(logger, err, "failed to resolve fixtures")
				return err
			}
			out := cmd.OutOrStdout()
			for i, f := range fixtures {
				line := fmt.Sprintf("%s %s", discover.Index(i+1, len(fixtures)), f.Path)
				switch {
				case f.Err != nil:
					line += fmt.Sprintf("  (invalid: %v)", f.Err)
				case f.Config.Ignore:
					line += "  (ignored)"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	if err := cmdConfigurator.AddFlags(cmd); err != nil {
		utils.LogError(logger, err, "failed to add list flags")
		return nil
	}
	return cmd
}
