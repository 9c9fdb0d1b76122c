// Package server provides HTTP routing, middleware and the route handlers of the catalog gateway.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns internally and applies its middleware
// around the whole mux, so CORS preflights and unmatched paths are logged and counted like any other request.
//
// # Gateway Routes
//
// [Gateway] maps each public endpoint to a credential read, one or more catalog calls and a shaper from the
// formatter package. Every catalog route loads the token first: a missing or unusable token is a 401 whatever
// the route's own parameters are.
//
// Failures are converted once, at the route boundary, by [StatusOf]:
//   - unauthorized: 401
//   - bad request: 400
//   - not found: 404
//   - upstream non-2xx: the upstream status, with the upstream body as detail
//   - upstream timeout: 504, other transport failures: 502
//   - anything else: 500
//
// Error bodies are always {"detail": "..."}.
//
// # Login Bridge
//
// [LoginHandler] upgrades /ws/run-login to a websocket, runs the login task through a tasks.LoginBridge and
// sends each output line as a text frame. A client disconnect cancels the task; the bridge still waits for it.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
