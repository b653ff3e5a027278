package broker

import (
	"github.com/pkg/errors"

	"github.com/mee4895/sspq-go/internal/debug"
	"github.com/mee4895/sspq-go/wire"
)

// DefaultPort is the default SSPQ broker TCP port.
const DefaultPort = 8888

// Config holds the broker's process-wide, immutable-after-start
// configuration: the dead-letter queue's enabled/disabled mode, the
// retry-count override applied to incoming SEND items, and the log level.
type Config struct {
	Host string
	Port int

	LogLevel debug.LogLevel

	// DeadLetterEnabled mirrors the absence of -ndlq/--no-dead-letter-queue.
	DeadLetterEnabled bool

	// ForceRetries, when non-nil, overwrites the retries field of every
	// incoming SEND item at intake (-r/--force-retries).
	ForceRetries *uint8
}

// DefaultConfig returns a Config with the broker's documented defaults.
func DefaultConfig() Config {
	return Config{
		Host:              "127.0.0.1",
		Port:              DefaultPort,
		LogLevel:          debug.LevelInfo,
		DeadLetterEnabled: true,
	}
}

// Validate checks the Config's invariants: the port must be in the valid
// TCP range and the host must be non-empty. ForceRetries is not checked:
// every uint8 value is a valid retries value.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("broker: invalid port %d", c.Port)
	}
	if c.Host == "" {
		return errors.New("broker: host must not be empty")
	}
	return nil
}

// applyForceRetries overwrites item.Retries with Config's override, if one
// is configured. The wire.InfiniteRetries sentinel is a legal override
// value.
func (c Config) applyForceRetries(item wire.Item) wire.Item {
	if c.ForceRetries != nil {
		item.Retries = *c.ForceRetries
	}
	return item
}
