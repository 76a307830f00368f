// Package api exposes the dispatcher and the recipient store over HTTP.
// Handlers decode and validate JSON requests, call into the dispatcher or
// store, and map sentinel errors to status codes with safe messages.
package api
