package schema

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// CreateTableSQL returns the CREATE TABLE statement for table.
// With withIndex the table gets a leading "index" BIGINT column.
func (s *Schema) CreateTableSQL(table string, withIndex bool) string {
	defs := make([]string, 0, len(s.columns)+1)
	if withIndex {
		defs = append(defs, fmt.Sprintf("%s BIGINT", pgx.Identifier{IndexColumn}.Sanitize()))
	}
	for _, c := range s.columns {
		defs = append(defs, fmt.Sprintf("%s %s", pgx.Identifier{c.Name}.Sanitize(), c.Kind.SQLType()))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", pgx.Identifier{table}.Sanitize(), strings.Join(defs, ",\n\t"))
}

// DropTableSQL returns the DROP TABLE IF EXISTS statement for table.
func DropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{table}.Sanitize())
}

// CreateIndexSQL returns the statement creating the row-number index of table.
func CreateIndexSQL(table string) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		pgx.Identifier{IndexName(table)}.Sanitize(),
		pgx.Identifier{table}.Sanitize(),
		pgx.Identifier{IndexColumn}.Sanitize())
}

// IndexName returns the name of the row-number index of table.
func IndexName(table string) string {
	return "ix_" + table + "_" + IndexColumn
}

// RenameTableSQL returns the statement renaming from to to.
func RenameTableSQL(from, to string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", pgx.Identifier{from}.Sanitize(), pgx.Identifier{to}.Sanitize())
}

// RenameIndexSQL returns the statement renaming the index of from after the
// table itself was renamed to to.
func RenameIndexSQL(from, to string) string {
	return fmt.Sprintf("ALTER INDEX IF EXISTS %s RENAME TO %s",
		pgx.Identifier{IndexName(from)}.Sanitize(), pgx.Identifier{IndexName(to)}.Sanitize())
}
