package crypto

import (
	"crypto/sha512"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDFExpand runs HKDF-SHA512 extract-then-expand over ikm with the given
// salt and info, writing exactly len(out) bytes into out. This is the
// fixed-length specialization §4.1 asks for: callers pass an
// already-sized destination (e.g. a [32]byte session key) instead of
// receiving a freshly allocated slice.
func HKDFExpand(salt, ikm, info []byte, out []byte) error {
	r := hkdf.New(newSHA512, ikm, salt, info)
	if _, err := io.ReadFull(r, out); err != nil {
		return newErr(KeyDerivationFailed, err.Error())
	}
	return nil
}

// HKDFExpandN is a convenience wrapper returning a freshly allocated slice
// of length n.
func HKDFExpandN(salt, ikm, info []byte, n int) ([]byte, error) {
	out := make([]byte, n)
	if err := HKDFExpand(salt, ikm, info, out); err != nil {
		return nil, err
	}
	return out, nil
}

func newSHA512() hash.Hash {
	return sha512.New()
}
