// Package source resolves monthly archive addresses and opens them as
// decompressed CSV streams.
//
// Two fetchers are provided:
//   - HTTPFetcher: downloads from a URL prefix (the public release mirror by default)
//   - DirFetcher: reads archives already present in a local directory
//
// Both transparently gunzip content that starts with the gzip magic bytes, so
// plain .csv files work as well as .csv.gz.
package source
