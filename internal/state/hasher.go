package state

import (
	"golang.org/x/crypto/blake2b"
)

// Blake2128 returns the 128-bit BLAKE2b digest of data.
func Blake2128(data []byte) []byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// only possible for an invalid size or an oversized key
		panic(err)
	}
	h.Write(data)
	return h.Sum(nil)
}

// Blake2128Concat returns Blake2128(data) followed by data itself, so keys
// are evenly distributed while the original key stays recoverable.
func Blake2128Concat(data []byte) []byte {
	out := make([]byte, 0, 16+len(data))
	out = append(out, Blake2128(data)...)
	return append(out, data...)
}
