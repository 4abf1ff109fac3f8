// Package logging provides implementations of the ingest.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: plain lines on stderr, [VERBOSE] and [ERROR] prefixes
//   - ZapLogger: structured JSON lines through go.uber.org/zap
//   - NullLogger: discards everything (useful for testing)
//
// All implementations are safe for concurrent use. Progress output and the
// completion message go to stdout and never through a Logger.
package logging
