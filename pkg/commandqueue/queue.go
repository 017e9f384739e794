package commandqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harun/lawnmower/internal/observability"
	"github.com/harun/lawnmower/internal/tracing"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "lawnmower.commandqueue"

// Event types emitted by the queue
const (
	EventEnqueued  = "enqueued"
	EventCompleted = "completed"
	EventSlow      = "slow"
)

// Task is one unit of work on a lane
type Task func(ctx context.Context) (any, error)

// TaskOptions tunes a single submission
type TaskOptions struct {
	// WarnAfter emits EventSlow when the task is still queued after this long
	WarnAfter time.Duration
}

// Result is what a task returned, delivered once on the channel from Submit
type Result struct {
	Value any
	Err   error
}

// Event describes queue activity. Wait is the time spent queued; Duration and
// Err are set on completion. Skipped marks tasks whose caller context was done
// before their turn.
type Event struct {
	Type     string
	Lane     string
	TaskID   string
	Position int
	Wait     time.Duration
	Duration time.Duration
	Err      error
	Skipped  bool
}

// EventHandler is a function that handles queue events
type EventHandler func(event Event)

type taskRecord struct {
	id         string
	task       Task
	ctx        context.Context
	enqueuedAt time.Time
	options    TaskOptions
	done       chan Result
}

// lane runs its tasks one at a time in submission order
type lane struct {
	mu      sync.Mutex
	pending []*taskRecord
	busy    bool
}

// CommandQueue runs tasks in named lanes: strictly ordered inside a lane,
// concurrent across lanes.
type CommandQueue struct {
	mu     sync.Mutex
	lanes  map[string]*lane
	seq    int
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	eventHandlers map[string][]EventHandler
	eventMu       sync.RWMutex
}

// New creates an empty queue. Lanes are created on first use.
func New() *CommandQueue {
	observability.EnsureRegistered()

	ctx, cancel := context.WithCancel(context.Background())
	return &CommandQueue{
		lanes:         make(map[string]*lane),
		ctx:           ctx,
		cancel:        cancel,
		eventHandlers: make(map[string][]EventHandler),
	}
}

func (cq *CommandQueue) lane(name string) (*lane, string) {
	cq.mu.Lock()
	defer cq.mu.Unlock()

	l, ok := cq.lanes[name]
	if !ok {
		l = &lane{}
		cq.lanes[name] = l
	}
	cq.seq++
	return l, fmt.Sprintf("%s-%d", name, cq.seq)
}

// Submit appends task to the lane and returns immediately. The returned
// channel receives exactly one Result. Tasks submitted by one goroutine to one
// lane run in the order submitted.
func (cq *CommandQueue) Submit(ctx context.Context, laneName string, task Task, options *TaskOptions) <-chan Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if tracing.GetLane(ctx) == "" {
		ctx = tracing.WithLane(ctx, laneName)
	}

	l, taskID := cq.lane(laneName)
	record := &taskRecord{
		id:         taskID,
		task:       task,
		ctx:        ctx,
		enqueuedAt: time.Now(),
		done:       make(chan Result, 1),
	}
	if options != nil {
		record.options = *options
	}

	l.mu.Lock()
	l.pending = append(l.pending, record)
	depth := len(l.pending)
	l.mu.Unlock()

	observability.RecordQueueEnqueue(laneName, depth)
	cq.emit(Event{Type: EventEnqueued, Lane: laneName, TaskID: taskID, Position: depth - 1})

	if record.options.WarnAfter > 0 {
		go cq.watchWait(l, laneName, record)
	}

	cq.dispatch(l, laneName)
	return record.done
}

// Enqueue submits task and blocks until it has run
func (cq *CommandQueue) Enqueue(ctx context.Context, laneName string, task Task, options *TaskOptions) (any, error) {
	res := <-cq.Submit(ctx, laneName, task, options)
	return res.Value, res.Err
}

// dispatch starts the lane's next task unless one is already running.
// Tasks whose caller already gave up are answered without running.
func (cq *CommandQueue) dispatch(l *lane, laneName string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for !l.busy && len(l.pending) > 0 {
		record := l.pending[0]
		l.pending = l.pending[1:]
		observability.SetQueueSize(laneName, len(l.pending))

		if err := record.ctx.Err(); err != nil {
			record.done <- Result{Err: err}
			cq.emit(Event{
				Type:    EventCompleted,
				Lane:    laneName,
				TaskID:  record.id,
				Wait:    time.Since(record.enqueuedAt),
				Err:     err,
				Skipped: true,
			})
			continue
		}

		l.busy = true
		cq.wg.Add(1)
		go cq.run(l, laneName, record)
	}
}

func (cq *CommandQueue) run(l *lane, laneName string, record *taskRecord) {
	defer cq.wg.Done()

	wait := time.Since(record.enqueuedAt)
	ctx, span := tracing.StartSpan(record.ctx, tracerName, "commandqueue.task",
		attribute.String("lane", laneName),
		attribute.String("task_id", record.id),
		attribute.Int64("wait_ms", wait.Milliseconds()),
	)
	defer span.End()

	// Close cancels running tasks as well as the caller can
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(cq.ctx, cancel)
	defer func() {
		stop()
		cancel()
	}()

	start := time.Now()
	value, err := record.task(ctx)
	duration := time.Since(start)

	l.mu.Lock()
	l.busy = false
	depth := len(l.pending)
	l.mu.Unlock()

	record.done <- Result{Value: value, Err: err}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	logger := tracing.LoggerFromContext(ctx, log.Logger)
	logger.Debug().
		Str("taskId", record.id).
		Dur("wait", wait).
		Dur("duration", duration).
		Err(err).
		Msg("Task finished")

	observability.RecordQueueCompletion(laneName, duration, err == nil, depth)
	cq.emit(Event{
		Type:     EventCompleted,
		Lane:     laneName,
		TaskID:   record.id,
		Wait:     wait,
		Duration: duration,
		Err:      err,
	})

	cq.dispatch(l, laneName)
}

// watchWait emits EventSlow if record is still queued after WarnAfter
func (cq *CommandQueue) watchWait(l *lane, laneName string, record *taskRecord) {
	timer := time.NewTimer(record.options.WarnAfter)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-record.ctx.Done():
		return
	case <-cq.ctx.Done():
		return
	}

	l.mu.Lock()
	pos := -1
	for i, r := range l.pending {
		if r == record {
			pos = i
			break
		}
	}
	l.mu.Unlock()
	if pos < 0 {
		return
	}

	wait := time.Since(record.enqueuedAt)
	log.Warn().
		Str("lane", laneName).
		Str("taskId", record.id).
		Dur("wait", wait).
		Int("queuePos", pos).
		Msg("Task waiting longer than expected")
	cq.emit(Event{Type: EventSlow, Lane: laneName, TaskID: record.id, Position: pos, Wait: wait})
}

// Close cancels running tasks and waits for them to return
func (cq *CommandQueue) Close() error {
	cq.cancel()
	cq.wg.Wait()
	return nil
}

// On registers an event handler for a specific event type
func (cq *CommandQueue) On(eventType string, handler EventHandler) {
	cq.eventMu.Lock()
	defer cq.eventMu.Unlock()

	cq.eventHandlers[eventType] = append(cq.eventHandlers[eventType], handler)
}

// Off removes all handlers for the event type
func (cq *CommandQueue) Off(eventType string) {
	cq.eventMu.Lock()
	defer cq.eventMu.Unlock()

	delete(cq.eventHandlers, eventType)
}

func (cq *CommandQueue) emit(event Event) {
	cq.eventMu.RLock()
	handlers := cq.eventHandlers[event.Type]
	cq.eventMu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
