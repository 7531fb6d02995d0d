// Package store persists the small bits of client state that outlive one
// command: the last support ticket, the last feedback entry and the last
// submitted job.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	infraredis "github.com/north-cloud/webunpack/infrastructure/redis"
)

// Well-known keys.
const (
	KeyLastTicket   = "last_ticket_id"
	KeyLastFeedback = "last_feedback_id"
	KeyLastJob      = "last_job_id"
)

// Drivers.
const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// DefaultKeyPrefix namespaces Redis keys.
const DefaultKeyPrefix = "webunpack:"

// ErrNotFound is returned by Get for a key that was never set.
var ErrNotFound = errors.New("store: key not found")

// ErrUnknownDriver is returned by New for an unsupported driver name.
var ErrUnknownDriver = errors.New("store: unknown driver")

// Store is a small string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Config selects and configures a driver.
type Config struct {
	Driver    string            `env:"WEBUNPACK_STORE_DRIVER" yaml:"driver"`
	Path      string            `env:"WEBUNPACK_STORE_PATH"   yaml:"path"`
	KeyPrefix string            `yaml:"key_prefix"`
	Redis     infraredis.Config `yaml:"redis"`
}

// DefaultPath is the state file under the user's config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "webunpack", "state.yml")
}

// New opens the configured driver.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverFile, "":
		path := cfg.Path
		if path == "" {
			path = DefaultPath()
		}
		return NewFile(path), nil
	case DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return NewRedis(client, cfg.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// GetOptional returns "" instead of ErrNotFound.
func GetOptional(ctx context.Context, s Store, key string) (string, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
