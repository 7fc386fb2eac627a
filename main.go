package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.squit.io/squit/cli"
	"go.squit.io/squit/cli/provider"
	"go.squit.io/squit/config"
	"go.squit.io/squit/utils"
	"go.squit.io/squit/utils/log"
	"go.uber.org/zap"
)

// version is the version of squit and will be injected during build by ldflags
var version string

func main() {
	setVersion()
	ctx, cancel := utils.NewCtx()
	start(ctx)
	cancel()
	os.Exit(utils.ErrCode)
}

func setVersion() {
	if version == "" {
		version = "1-dev"
	}
	utils.Version = version
}

func start(ctx context.Context) {
	logger, err := log.New()
	if err != nil {
		fmt.Println("Failed to start the logger for the CLI", err)
		utils.ErrCode = 1
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	conf := config.New()
	svcProvider := provider.NewServiceProvider(logger, conf)
	cmdConfigurator := provider.NewCmdConfigurator(logger, conf)
	rootCmd := cli.Root(ctx, logger, conf, svcProvider, cmdConfigurator)
	if rootCmd == nil {
		utils.ErrCode = 1
		return
	}
	if err := rootCmd.Execute(); err != nil {
		utils.ErrCode = 1
		switch {
		case errors.Is(err, cli.ErrTestsFailed):
			logger.Warn("some tests failed", zap.String("hint", "set --ignoreFailures to exit successfully anyway"))
		case strings.HasPrefix(err.Error(), "unknown command"), strings.HasPrefix(err.Error(), "unknown shorthand"), strings.HasPrefix(err.Error(), "unknown flag"):
			fmt.Println("Error: ", err.Error())
			fmt.Println("Run 'squit --help' for usage.")
		default:
			utils.LogError(logger, err, "squit failed")
		}
	}
}
