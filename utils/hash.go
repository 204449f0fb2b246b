// Package utils holds the FNV-1a helpers behind AST fingerprints and cache
// keys.
package utils

import (
	"encoding/binary"
	"hash/fnv"
)

// U64 hashes s with 64-bit FNV-1a.
func U64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// Mix64 combines two fingerprints into one. Order matters.
func Mix64(a, b uint64) uint64 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], a)
	binary.BigEndian.PutUint64(buf[8:], b)
	h := fnv.New64a()
	_, _ = h.Write(buf[:])
	return h.Sum64()
}
