package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/ingest/pkg/ingest"
)

func mustColumn(t *testing.T, name string) Column {
	t.Helper()
	c, ok := Yellow().Column(name)
	require.True(t, ok, name)
	return c
}

func TestColumnParse_TypedValues(t *testing.T) {
	v, err := mustColumn(t, "VendorID").Parse("2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	v, err = mustColumn(t, "trip_distance").Parse("3.5")
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)

	v, err = mustColumn(t, "store_and_fwd_flag").Parse("N")
	require.NoError(t, err)
	assert.Equal(t, "N", v)

	v, err = mustColumn(t, "tpep_pickup_datetime").Parse("2021-01-01 00:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), v)
}

func TestColumnParse_EmptyIsNil(t *testing.T) {
	for _, c := range Yellow().Columns() {
		v, err := c.Parse("")
		require.NoError(t, err, c.Name)
		assert.Nil(t, v, c.Name)

		v, err = c.Parse("   ")
		require.NoError(t, err, c.Name)
		assert.Nil(t, v, c.Name)
	}
}

func TestColumnParse_IntegralDecimal(t *testing.T) {
	v, err := mustColumn(t, "passenger_count").Parse("1.0")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = mustColumn(t, "passenger_count").Parse("1.5")
	assert.True(t, errors.Is(err, ingest.ErrSchemaMismatch))
}

func TestColumnParse_Negative(t *testing.T) {
	v, err := mustColumn(t, "fare_amount").Parse("-52.0")
	require.NoError(t, err)
	assert.Equal(t, -52.0, v)
}

func TestColumnParse_Errors(t *testing.T) {
	tests := []struct {
		column string
		raw    string
	}{
		{"VendorID", "abc"},
		{"trip_distance", "3,5"},
		{"tpep_dropoff_datetime", "01/01/2021 00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			_, err := mustColumn(t, tt.column).Parse(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ingest.ErrSchemaMismatch))
			assert.Contains(t, err.Error(), tt.column)
		})
	}
}

func TestColumnParse_AlternateTimestampLayouts(t *testing.T) {
	c := mustColumn(t, "tpep_pickup_datetime")
	want := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)

	for _, raw := range []string{"2021-03-04 05:06:07", "2021-03-04T05:06:07", "2021-03-04T05:06:07Z"} {
		v, err := c.Parse(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(v.(time.Time)), raw)
	}
}
