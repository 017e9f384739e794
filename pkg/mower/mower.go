// Package mower implements the simulation agent: an identity plus a current
// position that is swapped, never mutated, on every committed instruction.
//
// Intend* methods are pure previews. Commit* methods replace the stored
// position and must only be called by the mower's own task (through the
// mediator); concurrent readers always observe a whole Position.
package mower

import (
	"fmt"
	"sync/atomic"

	"github.com/harun/lawnmower/pkg/lawn"
	"github.com/harun/lawnmower/pkg/move"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Mower is an agent moving on the lawn
type Mower struct {
	id       string
	current  atomic.Pointer[lawn.Position]
	strategy move.Strategy
	logger   zerolog.Logger
}

// New creates a mower using the default movement strategy
func New(id string, start lawn.Position) *Mower {
	return NewWithStrategy(id, start, move.Default{})
}

// NewWithStrategy creates a mower with a custom movement strategy
func NewWithStrategy(id string, start lawn.Position, strategy move.Strategy) *Mower {
	if strategy == nil {
		strategy = move.Default{}
	}

	m := &Mower{
		id:       id,
		strategy: strategy,
		logger:   log.Logger.With().Str("mower_id", id).Logger(),
	}
	m.current.Store(&start)

	m.logger.Debug().Stringer("position", start).Msg("Mower created")
	return m
}

// ID returns the mower identity
func (m *Mower) ID() string {
	return m.id
}

// Position returns the current position
func (m *Mower) Position() lawn.Position {
	return *m.current.Load()
}

// IntendAdvance returns the position the mower would occupy after advancing
func (m *Mower) IntendAdvance() lawn.Position {
	return m.strategy.Advance(m.Position())
}

// IntendTurnLeft returns the position after a left turn, without applying it
func (m *Mower) IntendTurnLeft() lawn.Position {
	return m.strategy.TurnLeft(m.Position())
}

// IntendTurnRight returns the position after a right turn, without applying it
func (m *Mower) IntendTurnRight() lawn.Position {
	return m.strategy.TurnRight(m.Position())
}

// CommitAdvance recomputes the advance candidate and stores it
func (m *Mower) CommitAdvance() lawn.Position {
	return m.commit(m.IntendAdvance(), "advance")
}

// CommitTurnLeft turns the mower left
func (m *Mower) CommitTurnLeft() lawn.Position {
	return m.commit(m.IntendTurnLeft(), "turn_left")
}

// CommitTurnRight turns the mower right
func (m *Mower) CommitTurnRight() lawn.Position {
	return m.commit(m.IntendTurnRight(), "turn_right")
}

func (m *Mower) commit(next lawn.Position, op string) lawn.Position {
	m.current.Store(&next)
	m.logger.Debug().Str("op", op).Stringer("position", next).Msg("Mower position committed")
	return next
}

func (m *Mower) String() string {
	return fmt.Sprintf("Mower{id=%s, position=%s}", m.id, m.Position())
}
