// Package archive serializes reference orbits so a deep render can be resumed
// without iterating the orbit again.
//
// Layout:
//
//	header   32 bytes, see Header
//	center   re, im   (u32 length + big.Float gob each)
//	fpg z    re, im
//	fpg Bn   re, im
//	intervals         IntervalCount x (rebase, start, end u64)
//	periods           PeriodCount x u64
//	pages             PageCount x (u32 points, real column, imaginary column)
//	checksum          xxhash64 of everything above
//
// Every column is encoded with the header's encoding type and then compressed
// with its compression type; both are stored with a u32 length prefix. All
// multi-byte fields use the byte order selected by the header options.
package archive
