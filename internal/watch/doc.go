// Package watch turns filesystem notifications under a watched root into
// encode job submissions. New files are debounced until they stop growing,
// filtered against hidden paths and non-video extensions, and checked against
// the session's duplicate-suppression set before being handed to the encoder.
package watch
