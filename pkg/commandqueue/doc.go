// Package commandqueue provides lane-based task execution with FIFO ordering per lane.
//
// Invariants:
// - Tasks in the same lane execute one at a time, in the order submitted.
// - Tasks in different lanes may execute concurrently.
// - A task whose caller context is already done when its turn comes is not run.
// - Queue activity is observable through enqueued, slow and completed events and metrics.
//
// Usage:
//
//	queue := commandqueue.New()
//	defer queue.Close()
//	first := queue.Submit(ctx, "mower:1", register, nil)
//	second := queue.Submit(ctx, "mower:1", advance, nil)
//	if res := <-first; res.Err != nil {
//		return res.Err
//	}
package commandqueue
