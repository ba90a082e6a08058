// Package server runs the local HTTP listener that completes a browser login.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Login Callback
//
// The backend finishes OAuth on its side and redirects the browser to the client with
// ?login=success&session=XYZ. [CallbackHandler] stands in for that page: it hands the URL to
// the session manager, sends the outcome once through a channel, and redirects to the same
// path without the query so the token does not stay in the address bar or history.
//
// It only processes one callback to prevent replay.
//
// [CallbackServer] binds the configured address, serves until the callback arrives (or the
// context ends or the timeout passes) and shuts down.
package server
