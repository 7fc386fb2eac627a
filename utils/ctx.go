// Package utils provides utility functions shared by the squit packages.
package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NewCtx returns a context cancelled on SIGINT or SIGTERM.
func NewCtx() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
