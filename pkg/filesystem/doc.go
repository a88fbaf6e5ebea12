// Package filesystem provides the filesystem handles used by nmm.
//
// Everything that touches disk goes through an afero.Fs so tests can run
// against an in-memory filesystem. Writes that replace a file the game reads
// are done atomically (temp file in the same directory, then rename).
package filesystem
