package tracing

import (
	"context"

	"github.com/rs/zerolog"
)

// PropagateToMower derives the context a mower task runs under. Trace and
// run IDs are inherited; the mower ID and lane are set for this mower.
func PropagateToMower(ctx context.Context, mowerID, lane string) context.Context {
	if GetTraceID(ctx) == "" {
		ctx = WithTraceID(ctx, NewTraceID())
	}
	ctx = WithMowerID(ctx, mowerID)
	if lane != "" {
		ctx = WithLane(ctx, lane)
	}
	return ctx
}

// PropagateToLogger adds tracing context to a zerolog logger
func PropagateToLogger(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	tc := FromContext(ctx)

	lc := logger.With()
	if tc.TraceID != "" {
		lc = lc.Str("trace_id", tc.TraceID)
	}
	if tc.RunID != "" {
		lc = lc.Str("run_id", tc.RunID)
	}
	if tc.MowerID != "" {
		lc = lc.Str("mower_id", tc.MowerID)
	}
	if tc.Lane != "" {
		lc = lc.Str("lane", tc.Lane)
	}
	if tc.RequestID != "" {
		lc = lc.Str("request_id", tc.RequestID)
	}
	return lc.Logger()
}

// LoggerFromContext creates a logger with tracing context from the given context
func LoggerFromContext(ctx context.Context, baseLogger zerolog.Logger) zerolog.Logger {
	return PropagateToLogger(ctx, baseLogger)
}

// MergeContext copies tracing information from source into target where
// target has none
func MergeContext(target, source context.Context) context.Context {
	tc := FromContext(source)

	if tc.TraceID != "" && GetTraceID(target) == "" {
		target = WithTraceID(target, tc.TraceID)
	}
	if tc.RunID != "" && GetRunID(target) == "" {
		target = WithRunID(target, tc.RunID)
	}
	if tc.MowerID != "" && GetMowerID(target) == "" {
		target = WithMowerID(target, tc.MowerID)
	}
	if tc.Lane != "" && GetLane(target) == "" {
		target = WithLane(target, tc.Lane)
	}
	if tc.RequestID != "" && GetRequestID(target) == "" {
		target = WithRequestID(target, tc.RequestID)
	}

	return target
}

// Detach returns a background context carrying the same tracing information.
// The result is not cancelled with ctx.
func Detach(ctx context.Context) context.Context {
	return NewContext(context.Background(), FromContext(ctx))
}
