package rtp

import (
	apcrypto "github.com/airplay2/airplay2/crypto"
)

// Cipher dispatches RTP payload encryption by the mode negotiated in SDP
// (§4.4). packetIndex is the sender's own monotonic count of packets sent
// this session, starting at 0 — never the RTP sequence number, so
// retransmissions and sequence wrap never desynchronize the keystream.
type Cipher interface {
	Encrypt(packetIndex uint64, header, plaintext []byte) ([]byte, error)
	Decrypt(packetIndex uint64, header, ciphertext []byte) ([]byte, error)
}

// NoCipher passes the payload through unencrypted.
type NoCipher struct{}

func (NoCipher) Encrypt(_ uint64, _, plaintext []byte) ([]byte, error) { return plaintext, nil }
func (NoCipher) Decrypt(_ uint64, _, ciphertext []byte) ([]byte, error) { return ciphertext, nil }

// AESCTRCipher is RAOP's keystream-by-packet-index mode.
type AESCTRCipher struct {
	cipher          *apcrypto.AESCTRCipher
	framesPerPacket int
	bytesPerFrame   int
}

// NewAESCTRCipher builds an AESCTRCipher. framesPerPacket and bytesPerFrame
// come from the negotiated StreamParameters and determine the byte-offset
// stride between packets.
func NewAESCTRCipher(key, iv []byte, framesPerPacket, bytesPerFrame int) (*AESCTRCipher, error) {
	c, err := apcrypto.NewAESCTRCipher(key, iv)
	if err != nil {
		return nil, err
	}
	return &AESCTRCipher{cipher: c, framesPerPacket: framesPerPacket, bytesPerFrame: bytesPerFrame}, nil
}

func (c *AESCTRCipher) Encrypt(packetIndex uint64, _, plaintext []byte) ([]byte, error) {
	out := make([]byte, len(plaintext))
	offset := apcrypto.PacketByteOffset(packetIndex, c.framesPerPacket, c.bytesPerFrame)
	if err := c.cipher.XORKeyStreamAt(out, plaintext, offset); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AESCTRCipher) Decrypt(packetIndex uint64, _, ciphertext []byte) ([]byte, error) {
	return c.Encrypt(packetIndex, nil, ciphertext)
}

// ChaCha20Poly1305Cipher is AirPlay 2's ALAC/AAC payload mode: nonce is
// 0x0000_0000‖packetIndex_le_u64, AAD is the verbatim 12-byte RTP header
// (§4.4).
type ChaCha20Poly1305Cipher struct {
	key [32]byte
}

// NewChaCha20Poly1305Cipher builds a ChaCha20Poly1305Cipher from a 32-byte
// key.
func NewChaCha20Poly1305Cipher(key []byte) (*ChaCha20Poly1305Cipher, error) {
	if len(key) != apcrypto.ChaCha20Poly1305KeySize {
		return nil, newErr(MalformedPacket, "ChaCha20-Poly1305 key must be %d bytes", apcrypto.ChaCha20Poly1305KeySize)
	}
	c := &ChaCha20Poly1305Cipher{}
	copy(c.key[:], key)
	return c, nil
}

func (c *ChaCha20Poly1305Cipher) Encrypt(packetIndex uint64, header, plaintext []byte) ([]byte, error) {
	nonce := apcrypto.LittleEndianNonce(packetIndex)
	return apcrypto.ChaCha20Poly1305Encrypt(c.key[:], nonce[:], header, plaintext)
}

func (c *ChaCha20Poly1305Cipher) Decrypt(packetIndex uint64, header, ciphertext []byte) ([]byte, error) {
	nonce := apcrypto.LittleEndianNonce(packetIndex)
	return apcrypto.ChaCha20Poly1305Decrypt(c.key[:], nonce[:], header, ciphertext)
}
