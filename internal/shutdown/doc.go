// Package shutdown translates operator interrupts and fatal errors into an
// idempotent, escalating shutdown sequence. The first interrupt stops the
// session gracefully and allows buffered log sinks to flush; a repeated
// interrupt forces an immediate exit with a non-zero code.
package shutdown
