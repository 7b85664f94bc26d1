// Package server provides HTTP routing, middleware, and the enrollment API handlers.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Enrollment API
//
// [EnrollmentHandler] serves read-only JSON endpoints over the cache-aware engine:
//
//   - GET /health : service status and version
//   - GET /api/years : available school year bounds
//   - GET /api/enrollment/{year} : wide table for one year
//   - GET /api/enrollment/{year}/tidy : long-format reshape of one year
//   - GET /api/compare : district deltas between two years
//
// Errors are returned as JSON objects with an "error" field. Year validation
// failures map to 400, provider failures to 502.
//
// # Current Usage
//
// The serve command assembles a [BasicRouter], registers [EnrollmentHandler]
// behind [LoggingMiddleware], and runs a standard [http.Server] on the
// configured host and port.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
