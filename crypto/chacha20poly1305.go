package crypto

import (
	"golang.org/x/crypto/chacha20poly1305"
)

// ChaCha20Poly1305KeySize is the AEAD key size in bytes.
const ChaCha20Poly1305KeySize = chacha20poly1305.KeySize

// ChaCha20Poly1305NonceSize is the AEAD nonce size in bytes.
const ChaCha20Poly1305NonceSize = chacha20poly1305.NonceSize

// ChaCha20Poly1305TagSize is the appended authentication tag size in bytes.
const ChaCha20Poly1305TagSize = chacha20poly1305.Overhead

// ChaCha20Poly1305Encrypt encrypts plaintext under key/nonce, appending
// aad (if any) as associated data, and returns ciphertext‖tag.
func ChaCha20Poly1305Encrypt(key []byte, nonce []byte, aad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, newErr(InvalidKeyLength, err.Error())
	}
	if len(nonce) != chacha20poly1305.NonceSize {
		return nil, newErr(InvalidKeyLength, "nonce must be 12 bytes")
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

// ChaCha20Poly1305Decrypt verifies and decrypts ciphertext (which must
// include the trailing 16-byte tag). It fails with a single opaque
// DecryptionFailed error regardless of whether the tag mismatched or the
// input was malformed, so a caller cannot distinguish the two.
func ChaCha20Poly1305Decrypt(key []byte, nonce []byte, aad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, errDecryptionFailed
	}
	if len(nonce) != chacha20poly1305.NonceSize {
		return nil, errDecryptionFailed
	}
	out, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, errDecryptionFailed
	}
	return out, nil
}

// LittleEndianNonce builds the 12-byte nonce AirPlay 2 uses throughout:
// 4 zero bytes followed by an 8-byte little-endian counter. This applies to
// the encrypted RTSP framing wrapper (§4.3) and the RTP ChaCha20-Poly1305
// payload mode (§4.4) alike.
func LittleEndianNonce(counter uint64) [12]byte {
	var n [12]byte
	n[4] = byte(counter)
	n[5] = byte(counter >> 8)
	n[6] = byte(counter >> 16)
	n[7] = byte(counter >> 24)
	n[8] = byte(counter >> 32)
	n[9] = byte(counter >> 40)
	n[10] = byte(counter >> 48)
	n[11] = byte(counter >> 56)
	return n
}
