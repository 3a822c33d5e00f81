// Package schemes implements the per-delegation-scheme capability set
// consumed by the directory core: query builders, response formatters,
// placeholder synthesis and contract call descriptors.
package schemes

import (
	"errors"
	"fmt"
	"strings"

	"delegatedir/directory"
)

// ErrUnknownScheme is returned when no variant is registered under an id.
var ErrUnknownScheme = errors.New("unknown delegation scheme")

// Scheme identifiers
const (
	Governor = "governor"
	Aave     = "aave"
)

// Config overrides a variant's built-in endpoint and delegation contract.
// Zero fields keep the variant defaults.
type Config struct {
	Endpoint string
	Contract string
}

// New resolves a scheme id to its variant with default configuration.
// The resolution happens once, at construction; the core never re-resolves.
func New(id string) (directory.Scheme, error) {
	return NewWithConfig(id, Config{})
}

// NewWithConfig resolves a scheme id to its variant with overrides applied.
func NewWithConfig(id string, cfg Config) (directory.Scheme, error) {
	switch strings.ToLower(id) {
	case Governor:
		return newGovernor(cfg), nil
	case Aave:
		return newAave(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, id)
	}
}
