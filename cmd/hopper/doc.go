// Package main hosts the hopper CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into encode
// sessions: a one-shot batch run, a long-lived watch daemon, history
// reporting, and configuration scaffolding. Configuration resolution and
// log-level handling live here so subcommands stay declarative; the actual
// encoding pipeline lives in the internal packages.
package main
