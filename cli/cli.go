// Package cli defines the squit cobra commands.
package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.squit.io/squit/config"
	"go.uber.org/zap"
)

type HookFunc func(ctx context.Context, logger *zap.Logger, conf *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command

// Registered holds the registered command hooks
var Registered map[string]HookFunc

func Register(name string, f HookFunc) {
	if Registered == nil {
		Registered = make(map[string]HookFunc)
	}
	Registered[name] = f
}
