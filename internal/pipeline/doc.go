// Package pipeline drives interactive search sessions.
//
// Each session is a small state machine:
//
//	idle ──input──▶ debouncing ──timer──▶ in_flight ──ok──▶ settled
//	                     ▲                    │
//	                     └──────input─────────┴──fail──▶ error
//
// Clear returns to idle from any phase.
//
// When the debounce timer fires the query runs only if it is at least the
// minimum length and differs from the last executed query. A query that
// arrives too soon after the previous execution is deferred until the
// minimum interval has passed.
//
// Responses are applied compare-and-set: a response whose query no longer
// matches the session's current query is discarded, so a slow answer for an
// old query never overwrites newer results. A failed search moves the
// session to error but keeps the previous results.
//
// Registry maps session IDs to pipelines and expires idle sessions.
package pipeline
