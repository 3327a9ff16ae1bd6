package orchestrators

import (
	"errors"
	"fmt"
	"strings"

	"parky/internal/adapters/storage"
)

// Error kinds shared by every write flow. Callers test with errors.Is / errors.As.
var (
	// ErrValidation marks input rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced record that is missing or already deleted.
	ErrNotFound = storage.ErrNotFound
	// ErrNotificationFailed marks a credential delivery failure; nothing was written.
	ErrNotificationFailed = errors.New("credential notification failed")
	// ErrEmailTaken marks an email already bound to an account or active record.
	ErrEmailTaken = errors.New("email already registered")
)

// invalid tags err as a validation failure while keeping the domain sentinel visible.
func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// PartialWriteError reports a multi-step write that stopped part-way.
// Steps in Applied were persisted and are not rolled back.
type PartialWriteError struct {
	Op      string
	Applied []string
	Failed  []string
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s: partially applied (done: %s; failed: %s): %v",
		e.Op, strings.Join(e.Applied, ", "), strings.Join(e.Failed, ", "), e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
