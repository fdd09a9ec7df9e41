package rtsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramingPassthroughBeforeEnable(t *testing.T) {
	enc := NewFrameEncoder()
	dec := NewFrameDecoder()

	plaintext := []byte("OPTIONS * RTSP/1.0\r\n\r\n")
	wire, err := enc.Encode(plaintext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, wire)

	dec.Feed(wire)
	got, ok, err := dec.Decode()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, plaintext, got)
}

func TestFramingEncryptedRoundTrip(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}

	enc := NewFrameEncoder()
	enc.Enable(key)
	dec := NewFrameDecoder()
	dec.Enable(key)

	msg1 := []byte("first message")
	msg2 := []byte("second, different length message")

	wire1, err := enc.Encode(msg1)
	require.NoError(t, err)
	wire2, err := enc.Encode(msg2)
	require.NoError(t, err)

	dec.Feed(wire1)
	got1, ok, err := dec.Decode()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, msg1, got1)

	dec.Feed(wire2)
	got2, ok, err := dec.Decode()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, msg2, got2)
}

func TestFramingTamperedFrameFailsFatally(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i + 1)
	}

	enc := NewFrameEncoder()
	enc.Enable(key)
	dec := NewFrameDecoder()
	dec.Enable(key)

	wire, err := enc.Encode([]byte("payload"))
	require.NoError(t, err)
	wire[len(wire)-1] ^= 0xFF

	dec.Feed(wire)
	_, _, err = dec.Decode()
	require.ErrorIs(t, err, ErrFrameAuthFailed)
}

func TestFramingPartialFrameBuffers(t *testing.T) {
	var key [32]byte
	enc := NewFrameEncoder()
	enc.Enable(key)
	dec := NewFrameDecoder()
	dec.Enable(key)

	wire, err := enc.Encode([]byte("hello world"))
	require.NoError(t, err)

	dec.Feed(wire[:len(wire)-1])
	_, ok, err := dec.Decode()
	require.NoError(t, err)
	assert.False(t, ok)

	dec.Feed(wire[len(wire)-1:])
	got, ok, err := dec.Decode()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("hello world"), got)
}
