// Package outpath resolves raw CLI input (files, directories, globs) into
// video file lists and computes destination paths that mirror the source
// layout under the output root.
package outpath
