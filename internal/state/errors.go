package state

import (
	"errors"
	"fmt"
)

// ErrDatabase classifies failures of the entity store.
var ErrDatabase = errors.New("database failure")

// DBError wraps a store failure so that errors.Is(err, ErrDatabase) holds
// while the driver error stays reachable.
func DBError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDatabase, op, err)
}
