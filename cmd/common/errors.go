package common

import "errors"

var (
	// ErrLoggerRequired is returned when CommandDeps.Logger is nil.
	ErrLoggerRequired = errors.New("logger is required")

	// ErrConfigRequired is returned when CommandDeps.Config is nil.
	ErrConfigRequired = errors.New("config is required")

	// ErrClientRequired is returned when CommandDeps.Client is nil.
	ErrClientRequired = errors.New("backend client is required")

	// ErrSilent makes the process exit non-zero without printing anything
	// further; the command has already reported the problem.
	ErrSilent = errors.New("command failed")
)
