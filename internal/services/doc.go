// Package services talks to the statistics backend over HTTP.
//
// # Raw requests
//
// [APIService] sends requests relative to the configured base URL and returns an [APIResponse]
// with the raw body, headers and, when the body parses, its JSON value. Requests are throttled with
// a token bucket limiter and pass through a circuit breaker; an open breaker surfaces as
// [shared.ErrServiceUnavailable].
//
// # Session transport
//
// The backend identifies a session by an opaque ID carried both in the X-Session-ID header and in
// the session_id cookie. [SessionTransport] reads the ID from an [oauth2.TokenSource] on every request,
// so a token written or cleared by the session manager takes effect immediately.
//
// # Typed calls
//
// [Backend] implements [Service]:
//   - GET /api/status : session check
//   - GET /api/analysis : genre buckets, no time range
//   - GET /api/top-tracks?time_range= : ranked tracks
//   - GET /api/top-artists?time_range= : ranked artists
//   - GET /logout : best-effort session end
//
// Non-2xx responses become an [*HTTPError], which unwraps to [shared.ErrAPIRequest].
package services
