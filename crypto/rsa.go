package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // RAOP's Apple-Challenge/Response and rsaaeskey wrapping are defined over SHA-1.
)

func cryptoSHA1() stdcrypto.Hash {
	return stdcrypto.SHA1
}

// RSAOAEPWrapAESKey wraps a 16-byte AES key for the SDP `rsaaeskey`
// attribute using RSA-OAEP(SHA-1), as RAOP (AirPlay 1) requires.
func RSAOAEPWrapAESKey(pub *rsa.PublicKey, aesKey []byte) ([]byte, error) {
	out, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, aesKey, nil)
	if err != nil {
		return nil, newErr(EncryptionFailed, err.Error())
	}
	return out, nil
}

// RSAOAEPUnwrapAESKey is the receiver-side counterpart of RSAOAEPWrapAESKey.
func RSAOAEPUnwrapAESKey(priv *rsa.PrivateKey, wrapped []byte) ([]byte, error) {
	out, err := rsa.DecryptOAEP(sha1.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return nil, errDecryptionFailed
	}
	return out, nil
}

// RSASignPKCS1v15SHA1 signs the Apple-Challenge/Apple-Response payload:
// challenge‖local_ip‖mac_addr, zero-padded to at least 32 bytes.
func RSASignPKCS1v15SHA1(priv *rsa.PrivateKey, payload []byte) ([]byte, error) {
	padded := padAppleChallenge(payload)
	h := sha1.Sum(padded)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, cryptoSHA1(), h[:])
	if err != nil {
		return nil, newErr(EncryptionFailed, err.Error())
	}
	return sig, nil
}

// RSAVerifyPKCS1v15SHA1 verifies the Apple-Response signature under Apple's
// well-known public key.
func RSAVerifyPKCS1v15SHA1(pub *rsa.PublicKey, payload, sig []byte) error {
	padded := padAppleChallenge(payload)
	h := sha1.Sum(padded)
	if err := rsa.VerifyPKCS1v15(pub, cryptoSHA1(), h[:], sig); err != nil {
		return newErr(VerificationFailed, err.Error())
	}
	return nil
}

// padAppleChallenge zero-pads payload up to at least 32 bytes, as the RAOP
// challenge-response handshake requires (§4.2).
func padAppleChallenge(payload []byte) []byte {
	if len(payload) >= 32 {
		return payload
	}
	out := make([]byte, 32)
	copy(out, payload)
	return out
}
