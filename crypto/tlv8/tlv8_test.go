package tlv8

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	items := []Item{
		{Type: State, Value: []byte{1}},
		{Type: Identifier, Value: []byte("Pair-Setup")},
		{Type: PublicKey, Value: bytes.Repeat([]byte{0xAB}, 32)},
	}
	buf := Encode(items)
	decoded, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, items, decoded)
}

func TestFragmentationReassembly(t *testing.T) {
	value := bytes.Repeat([]byte{0x42}, 600) // spans 3 records: 255+255+90
	buf := Encode([]Item{{Type: EncryptedData, Value: value}})
	decoded, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.Equal(t, value, decoded[0].Value)
}

func TestEmptyValueIsLegal(t *testing.T) {
	buf := Encode([]Item{{Type: Method, Value: nil}})
	require.Equal(t, []byte{byte(Method), 0}, buf)
	decoded, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.Empty(t, decoded[0].Value)
}

func TestTruncatedBufferErrors(t *testing.T) {
	_, err := Decode([]byte{byte(State), 5, 1, 2})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestFindReturnsFirstMatch(t *testing.T) {
	items := []Item{{Type: State, Value: []byte{2}}, {Type: Error, Value: []byte{1}}}
	v, ok := Find(items, Error)
	require.True(t, ok)
	require.Equal(t, []byte{1}, v)
}
