// Package schema defines the static column schema of the yellow-taxi trip
// archives and the conversions that go with it.
//
// The schema is fixed: every batch of a load run carries the same columns with
// the same kinds. Raw CSV fields are converted with Column.Parse, headers are
// mapped onto the schema with Schema.Resolve, and the destination table is
// described by Schema.CreateTableSQL.
//
// # Kinds
//
//   - KindInt64: nullable 64-bit integer, PostgreSQL BIGINT
//   - KindFloat64: 64-bit float, PostgreSQL DOUBLE PRECISION
//   - KindText: text, PostgreSQL TEXT
//   - KindTimestamp: timestamp without time zone
//
// An empty field decodes to nil for every kind and is stored as NULL.
package schema
