// Package keystream implements the rolling XOR cipher that protects archive
// content.
//
// The keystream is the little-endian encoding of a 32-bit key. After every
// four bytes the key advances as key = key*7 + 3 with uint32 wraparound. The
// first four bytes always use the unmodified seed. Encryption and decryption
// are the same operation.
package keystream

import (
	"crypto/cipher"
	"encoding/binary"
)

var _ cipher.Stream = (*Stream)(nil)

// Advance returns the key that follows key in the recurrence.
func Advance(key uint32) uint32 {
	return key*7 + 3
}

// Stream is the cipher state for one entry.
//
// A Stream carries its position across XORKeyStream calls, so content may be
// processed in chunks of any size. A Stream must not be shared between entries.
type Stream struct {
	key    uint32
	window [4]byte
	pos    int // index into window of the next keystream byte
}

// New returns a Stream seeded with seed.
func New(seed uint32) *Stream {
	s := &Stream{key: seed}
	binary.LittleEndian.PutUint32(s.window[:], seed)
	return s
}

// XORKeyStream XORs each byte in src with the keystream and writes the result to dst.
// dst and src may overlap entirely or not at all.
func (s *Stream) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("keystream: output smaller than input")
	}
	for i, b := range src {
		if s.pos == len(s.window) {
			s.key = Advance(s.key)
			binary.LittleEndian.PutUint32(s.window[:], s.key)
			s.pos = 0
		}
		dst[i] = b ^ s.window[s.pos]
		s.pos++
	}
}

// Decrypt returns src XORed with the keystream seeded by seed.
// The same call encrypts plaintext.
func Decrypt(src []byte, seed uint32) []byte {
	dst := make([]byte, len(src))
	New(seed).XORKeyStream(dst, src)
	return dst
}
