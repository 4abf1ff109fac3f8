// Package loader drives one extract-transform-load run.
//
// A ChunkedLoader pulls batches from a decoder fed by a fetcher and writes them
// to a sink, strictly in order and one at a time. The first batch triggers the
// schema definition of the destination table; every batch, the first included,
// is then appended. The run stops at the first error.
//
// Sinks that implement ingest.Finalizer are committed after the last batch and
// aborted on failure.
package loader
