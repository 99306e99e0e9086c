// Package drapto integrates the Drapto AV1 encoder so workers can launch
// transcodes and observe structured progress updates.
//
// It exposes a Client interface with two implementations: a Library client
// that calls the Drapto Go library directly, and a CLI client that shells
// out to the drapto binary and parses its JSON progress stream. A reporter
// adapter translates the library's Reporter callbacks into the same typed
// ProgressUpdate values the CLI path produces, so callers observe one event
// surface regardless of transport. Tests can swap in fakes to avoid running
// the real encoder.
package drapto
