package crypto

import (
	"crypto/aes"
	"crypto/cipher"
)

// AESCTRKeySize is the RAOP AES key size in bytes (AES-128).
const AESCTRKeySize = 16

// AESCTRIVSize is the CTR IV size in bytes.
const AESCTRIVSize = 16

// AESCTRCipher is a streaming AES-128-CTR cipher with an explicit seek, so
// the RTP codec can position the keystream at an arbitrary packet-index
// offset (§4.4) instead of only ever advancing forward.
type AESCTRCipher struct {
	block cipher.Block
	iv    [AESCTRIVSize]byte
}

// NewAESCTRCipher builds a cipher from a 16-byte key and 16-byte IV.
func NewAESCTRCipher(key, iv []byte) (*AESCTRCipher, error) {
	if len(key) != AESCTRKeySize {
		return nil, newErr(InvalidKeyLength, "AES-128 key must be 16 bytes")
	}
	if len(iv) != AESCTRIVSize {
		return nil, newErr(InvalidKeyLength, "AES CTR IV must be 16 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, newErr(InvalidKeyLength, err.Error())
	}
	c := &AESCTRCipher{block: block}
	copy(c.iv[:], iv)
	return c, nil
}

// XORKeyStreamAt XORs src into dst using the keystream starting at
// byteOffset from the base IV, without mutating cipher state used by other
// callers: each call recomputes the counter block from byteOffset, so
// concurrent or out-of-order calls on packet indices never desynchronize
// each other (E3).
func (c *AESCTRCipher) XORKeyStreamAt(dst, src []byte, byteOffset uint64) error {
	if len(dst) < len(src) {
		return newErr(EncryptionFailed, "destination shorter than source")
	}
	ctr := seekCounter(c.iv, byteOffset)
	stream := cipher.NewCTR(c.block, ctr[:])
	if skip := byteOffset % 16; skip > 0 {
		var discard [16]byte
		stream.XORKeyStream(discard[:skip], discard[:skip])
	}
	stream.XORKeyStream(dst[:len(src)], src)
	return nil
}

// seekCounter advances a 16-byte big-endian CTR counter/IV by byteOffset
// AES blocks worth of bytes (16 bytes per block), matching the way
// RAOP devices derive the per-packet keystream position from a byte offset
// rather than from block count directly.
func seekCounter(iv [16]byte, byteOffset uint64) [16]byte {
	blockOffset := byteOffset / 16
	var out [16]byte
	copy(out[:], iv[:])

	// add blockOffset (a 64-bit quantity) to the big-endian 128-bit counter.
	carry := blockOffset
	for i := 15; i >= 0 && carry > 0; i-- {
		sum := uint64(out[i]) + (carry & 0xff)
		out[i] = byte(sum)
		carry = (carry >> 8) + (sum >> 8)
	}
	return out
}

// PacketByteOffset computes the AES-CTR keystream byte offset for packet
// index i, per §4.4: indexed by packet index, not RTP sequence number.
func PacketByteOffset(packetIndex uint64, framesPerPacket, bytesPerFrame int) uint64 {
	return packetIndex * uint64(framesPerPacket) * uint64(bytesPerFrame)
}
