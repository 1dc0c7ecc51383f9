// Package export implements the beat export operation: probe the input,
// run (or replay from cache) the configured detection backend, and write the
// ordered beat document atomically to the destination path.
package export
