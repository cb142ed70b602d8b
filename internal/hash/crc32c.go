// Package hash provides checksum utilities for artifact integrity.
//
// CRC32-Castagnoli is the polynomial S3 validates uploads against and is
// hardware-accelerated on x86 (SSE4.2) and ARM.
package hash

import "hash/crc32"

// Pre-computed once; repeated MakeTable calls are not free.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}
