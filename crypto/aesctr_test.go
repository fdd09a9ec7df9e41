package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAESCTRPacketIndexPositions covers E3: encrypting packet-index 0 and
// packet-index 7 yields different ciphertexts; decrypting each with its own
// index recovers the plaintext, and decrypting index-7 ciphertext at index 0
// does not.
func TestAESCTRPacketIndexPositions(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, AESCTRKeySize)
	iv := bytes.Repeat([]byte{0x00}, AESCTRIVSize)
	plaintext := bytes.Repeat([]byte{0xAA}, 1408)

	enc, err := NewAESCTRCipher(key, iv)
	require.NoError(t, err)

	off0 := PacketByteOffset(0, 352, 4)
	off7 := PacketByteOffset(7, 352, 4)

	ct0 := make([]byte, len(plaintext))
	require.NoError(t, enc.XORKeyStreamAt(ct0, plaintext, off0))

	ct7 := make([]byte, len(plaintext))
	require.NoError(t, enc.XORKeyStreamAt(ct7, plaintext, off7))

	require.NotEqual(t, ct0, ct7)

	dec, err := NewAESCTRCipher(key, iv)
	require.NoError(t, err)

	pt0 := make([]byte, len(ct0))
	require.NoError(t, dec.XORKeyStreamAt(pt0, ct0, off0))
	require.Equal(t, plaintext, pt0)

	pt7 := make([]byte, len(ct7))
	require.NoError(t, dec.XORKeyStreamAt(pt7, ct7, off7))
	require.Equal(t, plaintext, pt7)

	wrong := make([]byte, len(ct7))
	require.NoError(t, dec.XORKeyStreamAt(wrong, ct7, off0))
	require.NotEqual(t, plaintext, wrong)
}

// TestAESCTROutOfOrderDecryption covers invariant 2: ciphertexts fed
// out-of-order but with correct packet indices recover each plaintext.
func TestAESCTROutOfOrderDecryption(t *testing.T) {
	key := bytes.Repeat([]byte{0x09}, AESCTRKeySize)
	iv := bytes.Repeat([]byte{0x01}, AESCTRIVSize)

	enc, err := NewAESCTRCipher(key, iv)
	require.NoError(t, err)

	plaintexts := map[uint64][]byte{
		0: bytes.Repeat([]byte{0x01}, 1408),
		1: bytes.Repeat([]byte{0x02}, 1408),
		2: bytes.Repeat([]byte{0x03}, 1408),
	}
	ciphertexts := map[uint64][]byte{}
	for idx, pt := range plaintexts {
		ct := make([]byte, len(pt))
		require.NoError(t, enc.XORKeyStreamAt(ct, pt, PacketByteOffset(idx, 352, 4)))
		ciphertexts[idx] = ct
	}

	dec, err := NewAESCTRCipher(key, iv)
	require.NoError(t, err)

	// decrypt out of order: 2, 0, 1
	for _, idx := range []uint64{2, 0, 1} {
		out := make([]byte, len(ciphertexts[idx]))
		require.NoError(t, dec.XORKeyStreamAt(out, ciphertexts[idx], PacketByteOffset(idx, 352, 4)))
		require.Equal(t, plaintexts[idx], out)
	}
}
