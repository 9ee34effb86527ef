package mines

import "errors"

var (
	ErrOutOfBounds          = errors.New("cell position out of bounds")
	ErrIllegalMove          = errors.New("illegal move")
	ErrInvalidConfiguration = errors.New("invalid game configuration")
	ErrNoSavedState         = errors.New("no saved state")
	ErrMalformedState       = errors.New("malformed saved state")
)

type AssertionError struct {
	message string
}

// [AssertionError] implements [error]
func (e AssertionError) Error() string {
	return e.message
}
