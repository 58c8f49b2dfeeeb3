package core

import (
	"encoding/binary"
	"math"
)

// headerLen is the fixed on-disk header size: 8-byte float64 timestamp,
// 4-byte key length, 4-byte value length. No checksum, no magic, no version
// byte — the wire format clients depend on (spec §3/§6).
const headerLen = 16

// record is a decoded header plus its key/value payload, as produced by
// decodeRecord and by the replay scanner.
type record struct {
	timestamp float64
	key       []byte
	value     []byte
}

// encodeHeader writes the 16-byte header at buf[0:16]. buf must have at
// least headerLen bytes.
func encodeHeader(buf []byte, ts float64, keySize, valSize uint32) {
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(ts))
	binary.LittleEndian.PutUint32(buf[8:12], keySize)
	binary.LittleEndian.PutUint32(buf[12:16], valSize)
}

// decodeHeader reads the header at buf[off:off+16]. The caller guarantees
// len(buf) >= off+headerLen; no further validation is performed here (spec
// §4.1 — "no validation beyond the buffer being ≥ off+16").
func decodeHeader(buf []byte, off int) (ts float64, keySize, valSize uint32) {
	ts = math.Float64frombits(binary.LittleEndian.Uint64(buf[off : off+8]))
	keySize = binary.LittleEndian.Uint32(buf[off+8 : off+12])
	valSize = binary.LittleEndian.Uint32(buf[off+12 : off+16])
	return
}

// encodeKV allocates a buffer of exactly headerLen+len(key)+len(value),
// writes the header, then the key bytes, then the value bytes (Invariant
// R1).
func encodeKV(ts float64, key, value []byte) []byte {
	buf := make([]byte, headerLen+len(key)+len(value))
	encodeHeader(buf, ts, uint32(len(key)), uint32(len(value)))
	copy(buf[headerLen:headerLen+len(key)], key)
	copy(buf[headerLen+len(key):], value)
	return buf
}

// decodeKV decodes a full record out of buf starting at off. The caller
// guarantees buf holds at least headerLen+keySize+valSize bytes from off.
func decodeKV(buf []byte, off int) record {
	ts, keySize, valSize := decodeHeader(buf, off)
	keyStart := off + headerLen
	valStart := keyStart + int(keySize)
	valEnd := valStart + int(valSize)

	key := make([]byte, keySize)
	copy(key, buf[keyStart:valStart])
	val := make([]byte, valSize)
	copy(val, buf[valStart:valEnd])

	return record{timestamp: ts, key: key, value: val}
}

// recordLen returns the total on-disk length of a record given its key and
// value lengths (Invariant R1).
func recordLen(keyLen, valLen int) int64 {
	return int64(headerLen + keyLen + valLen)
}
