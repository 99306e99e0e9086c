// Package session wires configuration, logging, history, the queue, the
// encoder, and shutdown handling into one-shot batch runs and long-running
// watch runs.
package session
