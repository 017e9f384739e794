package mediator

import (
	"errors"
	"fmt"

	"github.com/harun/lawnmower/pkg/lawn"
)

var (
	// ErrInvalidPosition is returned when a mower is registered outside the grid
	ErrInvalidPosition = errors.New("invalid position")
	// ErrRegistrationAbandoned is returned in strict mode when the start cell
	// stayed occupied for the whole wait budget
	ErrRegistrationAbandoned = errors.New("registration abandoned")
	// ErrAlreadyRegistered is returned when the same mower registers twice
	ErrAlreadyRegistered = errors.New("mower already registered")
	// ErrNotRegistered is returned when an unregistered mower asks to advance
	ErrNotRegistered = errors.New("mower not registered")
)

// PositionError reports a mower whose position is outside the grid
type PositionError struct {
	MowerID  string
	Position lawn.Position
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("mower %s has invalid position %s", e.MowerID, e.Position)
}

func (e *PositionError) Unwrap() error {
	return ErrInvalidPosition
}
