package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateTableSQL(t *testing.T) {
	sql := Yellow().CreateTableSQL("yellow_taxi_data", false)

	assert.True(t, strings.HasPrefix(sql, `CREATE TABLE "yellow_taxi_data" (`), sql)
	assert.Contains(t, sql, `"VendorID" BIGINT`)
	assert.Contains(t, sql, `"trip_distance" DOUBLE PRECISION`)
	assert.Contains(t, sql, `"store_and_fwd_flag" TEXT`)
	assert.Contains(t, sql, `"tpep_pickup_datetime" TIMESTAMP WITHOUT TIME ZONE`)
	assert.NotContains(t, sql, `"index"`)
}

func TestCreateTableSQL_WithIndex(t *testing.T) {
	sql := Yellow().CreateTableSQL("trips", true)

	idx := strings.Index(sql, `"index" BIGINT`)
	vendor := strings.Index(sql, `"VendorID"`)
	assert.True(t, idx > 0 && idx < vendor, "index column must come first: %s", sql)
}

func TestDDL_QuotesIdentifiers(t *testing.T) {
	assert.Equal(t, `DROP TABLE IF EXISTS "weird""name"`, DropTableSQL(`weird"name`))
	assert.Equal(t, `CREATE INDEX "ix_trips_index" ON "trips" ("index")`, CreateIndexSQL("trips"))
	assert.Equal(t, `ALTER TABLE "a" RENAME TO "b"`, RenameTableSQL("a", "b"))
	assert.Equal(t, `ALTER INDEX IF EXISTS "ix_a_index" RENAME TO "ix_b_index"`, RenameIndexSQL("a", "b"))
}
