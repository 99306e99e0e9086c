// Package notifications publishes queue lifecycle events to ntfy.
//
// The Service interface accepts typed events with loosely structured
// payloads; the ntfy implementation formats each event into a push message
// with title, tags, and priority headers, and drops events whose toggle is
// disabled in configuration. When no topic is configured a noop service is
// returned so callers never need nil checks.
package notifications
