package mediator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harun/lawnmower/internal/observability"
	"github.com/harun/lawnmower/pkg/lawn"
	"github.com/harun/lawnmower/pkg/mower"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxWaitRounds = 2
	DefaultWaitTimeout   = 5 * time.Second
)

// Event types emitted by the mediator
const (
	EventRegistered            = "registered"
	EventRegistrationAbandoned = "registration_abandoned"
	EventMoved                 = "moved"
	EventBlocked               = "blocked"
	EventOutOfBounds           = "out_of_bounds"
	EventTurned                = "turned"
)

// Config tunes the wait policy. Zero values fall back to the defaults.
type Config struct {
	MaxWaitRounds int
	WaitTimeout   time.Duration
	// StrictRegistration makes Register return ErrRegistrationAbandoned
	// instead of dropping the mower silently.
	StrictRegistration bool
	Logger             *zerolog.Logger
}

// Event describes an accepted, dropped or rejected request
type Event struct {
	Type     string
	MowerID  string
	Position lawn.Position
	Rounds   int
}

// EventHandler is a function that handles mediator events
type EventHandler func(event Event)

// Mediator is the single authority on which cells are claimed
type Mediator struct {
	grid          lawn.Grid
	maxWaitRounds int
	waitTimeout   time.Duration
	strict        bool
	logger        zerolog.Logger

	mu      sync.Mutex
	mowers  []*mower.Mower
	changed chan struct{}

	eventHandlers map[string][]EventHandler
	eventMu       sync.RWMutex
}

// New creates a mediator over the given grid
func New(grid lawn.Grid, cfg Config) *Mediator {
	observability.EnsureRegistered()

	if cfg.MaxWaitRounds <= 0 {
		cfg.MaxWaitRounds = DefaultMaxWaitRounds
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultWaitTimeout
	}
	base := log.Logger
	if cfg.Logger != nil {
		base = *cfg.Logger
	}

	return &Mediator{
		grid:          grid,
		maxWaitRounds: cfg.MaxWaitRounds,
		waitTimeout:   cfg.WaitTimeout,
		strict:        cfg.StrictRegistration,
		logger:        base.With().Str("component", "mediator").Logger(),
		changed:       make(chan struct{}),
		eventHandlers: make(map[string][]EventHandler),
	}
}

// Grid returns the lawn the mediator guards
func (m *Mediator) Grid() lawn.Grid {
	return m.grid
}

// Register admits a mower at its current position.
//
// An out-of-grid position fails fast with a *PositionError. An occupied start
// cell is waited on for at most MaxWaitRounds; if it is still occupied the
// mower is dropped and Register returns nil, or ErrRegistrationAbandoned in
// strict mode.
func (m *Mediator) Register(ctx context.Context, mw *mower.Mower) error {
	start := mw.Position()
	logger := m.logger.With().Str("mower_id", mw.ID()).Stringer("position", start).Logger()

	if !m.grid.IsValid(start) {
		observability.RecordRegistration("invalid")
		logger.Warn().Msg("Registration rejected: position outside grid")
		return &PositionError{MowerID: mw.ID(), Position: start}
	}

	m.mu.Lock()

	if m.registeredLocked(mw) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, mw.ID())
	}

	rounds := 0
	for m.occupiedLocked(start, nil) && rounds < m.maxWaitRounds {
		rounds++
		observability.RecordWaitRound("register")
		logger.Debug().Int("round", rounds).Msg("Start cell occupied, waiting")
		if err := m.waitLocked(ctx); err != nil {
			m.signalAllLocked()
			m.mu.Unlock()
			return err
		}
	}

	if m.occupiedLocked(start, nil) {
		m.signalAllLocked()
		m.mu.Unlock()

		observability.RecordRegistration("abandoned")
		logger.Warn().Int("rounds", rounds).Msg("Registration abandoned: start cell still occupied")
		m.emit(Event{Type: EventRegistrationAbandoned, MowerID: mw.ID(), Position: start, Rounds: rounds})

		if m.strict {
			return fmt.Errorf("%w: mower %s at %s", ErrRegistrationAbandoned, mw.ID(), start)
		}
		return nil
	}

	m.mowers = append(m.mowers, mw)
	m.signalAllLocked()
	m.mu.Unlock()

	observability.RecordRegistration("registered")
	logger.Debug().Int("rounds", rounds).Msg("Mower registered")
	m.emit(Event{Type: EventRegistered, MowerID: mw.ID(), Position: start, Rounds: rounds})
	return nil
}

// Dispatch applies one instruction on behalf of mw and returns the mower's
// position afterwards. Turns are applied unconditionally. An advance is
// applied only if the target cell is inside the grid and free; otherwise the
// prior position is kept and no error is returned.
func (m *Mediator) Dispatch(ctx context.Context, instruction lawn.Instruction, mw *mower.Mower) (lawn.Position, error) {
	switch instruction {
	case lawn.TurnLeft:
		return m.turn(mw, mw.CommitTurnLeft), nil
	case lawn.TurnRight:
		return m.turn(mw, mw.CommitTurnRight), nil
	case lawn.Advance:
		return m.handleMove(ctx, mw)
	default:
		return mw.Position(), fmt.Errorf("%w: %s", lawn.ErrUnknownInstruction, instruction)
	}
}

func (m *Mediator) turn(mw *mower.Mower, commit func() lawn.Position) lawn.Position {
	next := commit()
	observability.RecordTurn()
	m.emit(Event{Type: EventTurned, MowerID: mw.ID(), Position: next})
	return next
}

func (m *Mediator) handleMove(ctx context.Context, mw *mower.Mower) (lawn.Position, error) {
	current := mw.Position()
	candidate := mw.IntendAdvance()
	logger := m.logger.With().Str("mower_id", mw.ID()).Stringer("position", current).Stringer("candidate", candidate).Logger()

	if !m.grid.IsValid(candidate) {
		observability.RecordMove("out_of_bounds")
		logger.Debug().Msg("Advance dropped: target outside grid")
		m.emit(Event{Type: EventOutOfBounds, MowerID: mw.ID(), Position: current})
		return current, nil
	}

	m.mu.Lock()

	if !m.registeredLocked(mw) {
		m.mu.Unlock()
		return current, fmt.Errorf("%w: %s", ErrNotRegistered, mw.ID())
	}

	rounds := 0
	for m.occupiedLocked(candidate, mw) && rounds < m.maxWaitRounds {
		rounds++
		observability.RecordWaitRound("advance")
		logger.Debug().Int("round", rounds).Msg("Target cell occupied, waiting")
		if err := m.waitLocked(ctx); err != nil {
			m.signalAllLocked()
			m.mu.Unlock()
			return current, err
		}
	}

	if m.occupiedLocked(candidate, mw) {
		m.signalAllLocked()
		m.mu.Unlock()

		observability.RecordMove("blocked")
		logger.Debug().Int("rounds", rounds).Msg("Advance dropped: target still occupied")
		m.emit(Event{Type: EventBlocked, MowerID: mw.ID(), Position: current, Rounds: rounds})
		return current, nil
	}

	next := mw.CommitAdvance()
	m.signalAllLocked()
	m.mu.Unlock()

	observability.RecordMove("moved")
	m.emit(Event{Type: EventMoved, MowerID: mw.ID(), Position: next, Rounds: rounds})
	return next, nil
}

// Registered returns a snapshot of the registered mowers in registration order
func (m *Mediator) Registered() []*mower.Mower {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*mower.Mower, len(m.mowers))
	copy(out, m.mowers)
	return out
}

// IsRegistered reports whether mw was admitted
func (m *Mediator) IsRegistered(mw *mower.Mower) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registeredLocked(mw)
}

// Occupied reports whether any registered mower stands on p's cell
func (m *Mediator) Occupied(p lawn.Position) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.occupiedLocked(p, nil)
}

func (m *Mediator) registeredLocked(mw *mower.Mower) bool {
	for _, r := range m.mowers {
		if r == mw {
			return true
		}
	}
	return false
}

// occupiedLocked ignores self so a mower never blocks on its own cell.
func (m *Mediator) occupiedLocked(p lawn.Position, self *mower.Mower) bool {
	for _, r := range m.mowers {
		if r == self {
			continue
		}
		if r.Position().SameCell(p) {
			return true
		}
	}
	return false
}

// signalAllLocked wakes every waiter. Caller holds mu.
func (m *Mediator) signalAllLocked() {
	close(m.changed)
	m.changed = make(chan struct{})
}

// waitLocked releases mu until a signal, the wait timeout or ctx cancellation,
// then reacquires it. Only cancellation is reported as an error.
func (m *Mediator) waitLocked(ctx context.Context) error {
	ch := m.changed
	m.mu.Unlock()

	timer := time.NewTimer(m.waitTimeout)
	defer timer.Stop()

	var err error
	select {
	case <-ch:
	case <-timer.C:
	case <-ctx.Done():
		err = ctx.Err()
	}

	m.mu.Lock()
	return err
}

// On registers an event handler for a specific event type
func (m *Mediator) On(eventType string, handler EventHandler) {
	m.eventMu.Lock()
	defer m.eventMu.Unlock()

	m.eventHandlers[eventType] = append(m.eventHandlers[eventType], handler)
}

// Off removes all handlers for the event type
func (m *Mediator) Off(eventType string) {
	m.eventMu.Lock()
	defer m.eventMu.Unlock()

	delete(m.eventHandlers, eventType)
}

func (m *Mediator) emit(event Event) {
	m.eventMu.RLock()
	handlers := m.eventHandlers[event.Type]
	m.eventMu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
