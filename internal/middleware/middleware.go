// Package middleware holds the echo middleware: request IDs, tracing, the
// request-scoped logger, authentication, rate limiting and the global error
// handler.
package middleware
