// Package preflight verifies the environment before a session starts:
// directory permissions and the availability of the drapto binary when the
// CLI client is selected.
package preflight
