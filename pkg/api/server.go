package api

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/harun/lawnmower/internal/tracing"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader echoes the request ID assigned to every API call
const RequestIDHeader = "X-Request-ID"

// NewServer builds a hertz server on addr with the handler's routes mounted
func NewServer(addr string, h Handler) *server.Hertz {
	s := server.Default(server.WithHostPorts(addr))
	s.Use(accessLog())
	h.RegisterRoutes(s)
	return s
}

// accessLog attaches trace and request IDs to the request context and logs
// one line per request once the handler is done.
func accessLog() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		c = tracing.NewRequestContext(c)
		if id := string(ctx.Request.Header.Peek(RequestIDHeader)); id != "" {
			c = tracing.WithRequestID(c, id)
		}
		ctx.Response.Header.Set(RequestIDHeader, tracing.GetRequestID(c))

		start := time.Now()
		ctx.Next(c)

		logger := tracing.LoggerFromContext(c, log.Logger)
		logger.Info().
			Str("method", string(ctx.Method())).
			Str("path", string(ctx.Path())).
			Int("status", ctx.Response.StatusCode()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}
