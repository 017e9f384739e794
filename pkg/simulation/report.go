package simulation

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/harun/lawnmower/pkg/commandqueue"
	"github.com/harun/lawnmower/pkg/lawn"
	"github.com/harun/lawnmower/pkg/mediator"
)

// Mode names how the programs were scheduled
type Mode string

const (
	ModeConcurrent Mode = "concurrent"
	ModeSequential Mode = "sequential"
)

// MowerResult is the outcome for one mower
type MowerResult struct {
	ID         string        `json:"id"`
	Start      lawn.Position `json:"start"`
	Final      lawn.Position `json:"final"`
	Registered bool          `json:"registered"`
}

// Counters aggregates mediator decisions over a run
type Counters struct {
	Moves       int64 `json:"moves"`
	Blocked     int64 `json:"blocked"`
	OutOfBounds int64 `json:"out_of_bounds"`
	Turns       int64 `json:"turns"`
	Abandoned   int64 `json:"abandoned_registrations"`
}

// Report is the result of one simulation run. Mowers are listed in input order.
type Report struct {
	RunID     string        `json:"run_id"`
	Mode      Mode          `json:"mode"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Mowers    []MowerResult `json:"mowers"`
	Counters  Counters      `json:"counters"`
	// Queue is set for concurrent runs only
	Queue *QueueStats `json:"queue,omitempty"`
}

// QueueStats summarises the per-mower lanes of a concurrent run. Tasks counts
// the register step plus one task per instruction; skipped tasks never ran
// because their mower had already failed or been cancelled.
type QueueStats struct {
	Tasks     int64         `json:"tasks"`
	Failed    int64         `json:"failed"`
	Skipped   int64         `json:"skipped"`
	SlowWaits int64         `json:"slow_waits"`
	MaxWait   time.Duration `json:"max_wait_ns"`
}

// Lines returns one "x y O" line per mower, in input order
func (r *Report) Lines() []string {
	out := make([]string, 0, len(r.Mowers))
	for _, m := range r.Mowers {
		out = append(out, m.Final.String())
	}
	return out
}

// WriteText writes the final positions, one per line
func (r *Report) WriteText(w io.Writer) error {
	for _, line := range r.Lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

type counterSet struct {
	moves       atomic.Int64
	blocked     atomic.Int64
	outOfBounds atomic.Int64
	turns       atomic.Int64
	abandoned   atomic.Int64
}

func (c *counterSet) attach(m *mediator.Mediator) {
	m.On(mediator.EventMoved, func(mediator.Event) { c.moves.Add(1) })
	m.On(mediator.EventBlocked, func(mediator.Event) { c.blocked.Add(1) })
	m.On(mediator.EventOutOfBounds, func(mediator.Event) { c.outOfBounds.Add(1) })
	m.On(mediator.EventTurned, func(mediator.Event) { c.turns.Add(1) })
	m.On(mediator.EventRegistrationAbandoned, func(mediator.Event) { c.abandoned.Add(1) })
}

func (c *counterSet) snapshot() Counters {
	return Counters{
		Moves:       c.moves.Load(),
		Blocked:     c.blocked.Load(),
		OutOfBounds: c.outOfBounds.Load(),
		Turns:       c.turns.Load(),
		Abandoned:   c.abandoned.Load(),
	}
}

type queueStatsSet struct {
	tasks     atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
	slowWaits atomic.Int64
	maxWait   atomic.Int64
}

func (q *queueStatsSet) attach(cq *commandqueue.CommandQueue) {
	cq.On(commandqueue.EventCompleted, func(e commandqueue.Event) {
		q.tasks.Add(1)
		switch {
		case e.Skipped:
			q.skipped.Add(1)
		case e.Err != nil:
			q.failed.Add(1)
		}
		for {
			cur := q.maxWait.Load()
			if int64(e.Wait) <= cur || q.maxWait.CompareAndSwap(cur, int64(e.Wait)) {
				break
			}
		}
	})
	cq.On(commandqueue.EventSlow, func(commandqueue.Event) { q.slowWaits.Add(1) })
}

func (q *queueStatsSet) snapshot() *QueueStats {
	return &QueueStats{
		Tasks:     q.tasks.Load(),
		Failed:    q.failed.Load(),
		Skipped:   q.skipped.Load(),
		SlowWaits: q.slowWaits.Load(),
		MaxWait:   time.Duration(q.maxWait.Load()),
	}
}
