// Package cache implements the filesystem artifact cache: completed
// sub-query results are stored under dir, keyed by a 128-bit fingerprint
// of their expanded SQL text so that re-fetching an already-resolved
// (non-future) batch never hits the backend again.
package cache

import (
	"encoding/base64"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// fingerprint128Base64 builds a 128-bit digest of key from two independent
// 64-bit xxhash sums (of key, and of key with a salt byte appended), then
// base64-encodes each 8-byte half, trims its trailing padding byte, and
// concatenates them with '+'/'/' swapped for '-'/'_' so the result is a
// safe path component.
func fingerprint128Base64(key string) string {
	lo := xxhash.Sum64String(key)
	hi := xxhash.Sum64String(key + "\x00salt")

	var loBytes, hiBytes [8]byte
	putUint64LE(loBytes[:], lo)
	putUint64LE(hiBytes[:], hi)

	b1 := base64.StdEncoding.EncodeToString(loBytes[:])
	b2 := base64.StdEncoding.EncodeToString(hiBytes[:])
	combined := b1[:len(b1)-1] + b2[:len(b2)-1]

	combined = strings.ReplaceAll(combined, "+", "-")
	combined = strings.ReplaceAll(combined, "/", "_")
	return combined
}

func putUint64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}

// dirAndFile returns the 2-character shard directory and the full file
// path for key, both prefixed with root.
func dirAndFile(root, key string) (dir, file string) {
	b64 := fingerprint128Base64(key)
	dir = root + "/" + b64[:2]
	file = dir + "/" + b64[2:]
	return dir, file
}
