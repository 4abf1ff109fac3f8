package source

import (
	"fmt"

	"github.com/vvka-141/ingest/pkg/ingest"
)

// DefaultURLPrefix is the release mirror hosting the yellow-taxi archives.
const DefaultURLPrefix = "https://github.com/DataTalksClub/nyc-tlc-data/releases/download/yellow/"

// FileName returns the archive name for a locator:
// yellow_tripdata_<year>-<zero-padded month>.csv.gz
func FileName(locator ingest.SourceLocator) string {
	return fmt.Sprintf("yellow_tripdata_%d-%02d.csv.gz", locator.Year, locator.Month)
}

// ResolveURL joins prefix and the archive name of locator after validating it.
func ResolveURL(prefix string, locator ingest.SourceLocator) (string, error) {
	if err := locator.Validate(); err != nil {
		return "", err
	}
	return prefix + FileName(locator), nil
}
