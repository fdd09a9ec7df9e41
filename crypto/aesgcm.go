package crypto

import (
	"crypto/aes"
	"crypto/cipher"
)

// AESGCMEncrypt encrypts plaintext with AES-GCM under key/nonce (12 bytes),
// appending aad as associated data. Offered as an alternative AEAD to
// ChaCha20-Poly1305 with an identical contract (§4.1).
func AESGCMEncrypt(key, nonce, aad, plaintext []byte) ([]byte, error) {
	aead, err := newAESGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, newErr(InvalidKeyLength, "AES-GCM nonce size mismatch")
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

// AESGCMDecrypt verifies and decrypts, failing with a single opaque
// DecryptionFailed error on any problem (tag mismatch or malformed input).
func AESGCMDecrypt(key, nonce, aad, ciphertext []byte) ([]byte, error) {
	aead, err := newAESGCM(key)
	if err != nil {
		return nil, errDecryptionFailed
	}
	if len(nonce) != aead.NonceSize() {
		return nil, errDecryptionFailed
	}
	out, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, errDecryptionFailed
	}
	return out, nil
}

func newAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, newErr(InvalidKeyLength, err.Error())
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, newErr(InvalidKeyLength, err.Error())
	}
	return aead, nil
}
