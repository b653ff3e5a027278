package client

import "github.com/pkg/errors"

// DefaultPort is the default SSPQ broker TCP port the client dials.
const DefaultPort = 8888

// Config holds a Client's dial target and auto-confirm policy.
type Config struct {
	Address string
	Port    int

	// AutoConfirm, when true, makes ReceiveAndConfirm follow a successful
	// Receive with a CONFIRM immediately.
	AutoConfirm bool
}

// DefaultConfig returns a Config pointed at the broker's documented
// default address, with auto-confirm enabled.
func DefaultConfig() Config {
	return Config{
		Address:     "127.0.0.1",
		Port:        DefaultPort,
		AutoConfirm: true,
	}
}

// Validate checks the Config's invariants: the port must be in the valid
// TCP range and the address must be non-empty.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("client: invalid port %d", c.Port)
	}
	if c.Address == "" {
		return errors.New("client: address must not be empty")
	}
	return nil
}
