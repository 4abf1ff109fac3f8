// Package sink writes decoded batches into PostgreSQL.
//
// PostgresSink performs the two writes of a load run on a single connection:
//   - DefineSchema drops and recreates the destination table in one transaction
//   - Append streams a batch with the COPY protocol, so a batch lands wholly or not at all
//
// Staged wraps a PostgresSink for all-or-nothing runs. It redirects every write
// to a uniquely named staging table and, on Commit, replaces the destination
// with the staging table in one transaction. Abort drops the staging table and
// leaves the destination untouched.
package sink
