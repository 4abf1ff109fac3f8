// Package services assembles a complete load run from its parts.
//
// IngestService opens the destination through SessionManager, picks the
// fetcher, decoder and sink matching the resolved settings, and drives them
// with a loader.ChunkedLoader. Observers passed to Run receive progress
// notifications; a Prometheus textfile is written when a metrics file is
// configured.
package services
