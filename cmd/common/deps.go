// Package common provides shared utilities for command implementations.
package common

import (
	"io"

	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/internal/client"
	"github.com/north-cloud/webunpack/internal/config"
	"github.com/north-cloud/webunpack/internal/store"
)

// GlobalFlags are the persistent flags of the root command.
type GlobalFlags struct {
	ConfigPath string
	Debug      bool
	APIURL     string
	Token      string
	JSON       bool
}

// Flags is bound to the root command's persistent flags.
var Flags GlobalFlags

// CommandDeps holds common dependencies for all commands.
type CommandDeps struct {
	Logger logger.Logger
	Config *config.Config
	Client *client.Client
	Store  store.Store
	Out    io.Writer
}

// Validate ensures all required dependencies are present.
func (d *CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	if d.Client == nil {
		return ErrClientRequired
	}
	return nil
}

// Close flushes the logger and releases the store.
func (d *CommandDeps) Close() {
	if d.Store != nil {
		_ = d.Store.Close()
	}
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}
}

// Renderer returns a renderer writing to d.Out.
func (d *CommandDeps) Renderer() *Renderer {
	return NewRenderer(d.Out, Flags.JSON)
}
