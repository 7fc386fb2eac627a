package cli

import (
	"context"
	"sort"

	"github.com/spf13/cobra"
	"go.squit.io/squit/config"
	"go.squit.io/squit/utils"
	"go.uber.org/zap"
)

var rootCustomHelpTemplate = `{{.Short}}

Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Available Commands:{{range .Commands}}{{if .IsAvailableCommand}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}

Examples:
{{.Example}}

Use "{{.CommandPath}} [command] --help" for more information about a command.
`

var rootExamples = `
  Test:
	squit test --path src/squit --var port=8080

  List:
	squit list --path src/squit --tags smoke

  Report:
	squit report --file build/squit/reports/result.yaml
`

var versionTemplate = `{{with .Version}}{{printf "Squit %s" .}}{{end}}{{"\n"}}`

// Root builds the squit command. conf is shared with svcFactory and
// cmdConfigurator, which fill it from the config file and the flags.
func Root(ctx context.Context, logger *zap.Logger, conf *config.Config, svcFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:           "squit",
		Short:         "Squit runs file based API integration tests",
		Example:       rootExamples,
		Version:       utils.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpTemplate(rootCustomHelpTemplate)
	rootCmd.SetVersionTemplate(versionTemplate)

	if err := cmdConfigurator.AddFlags(rootCmd); err != nil {
		utils.LogError(logger, err, "failed to set flags")
		return nil
	}

	names := make([]string, 0, len(Registered))
	for name := range Registered {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if c := Registered[name](ctx, logger, conf, svcFactory, cmdConfigurator); c != nil {
			rootCmd.AddCommand(c)
		}
	}
	return rootCmd
}
