// Package history persists an audit trail of encode runs in SQLite.
//
// Each batch or watch invocation opens a session; every video that reaches
// a terminal state is appended as an outcome row. The records feed the
// history CLI command and survive restarts, unlike the in-memory queue,
// which is rebuilt from scratch each run.
package history
