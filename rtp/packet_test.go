package rtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTripUnencrypted(t *testing.T) {
	p := &Packet{
		PayloadType:    PayloadTypeAudioRealtime,
		Marker:         true,
		SequenceNumber: 100,
		Timestamp:      44100,
		SSRC:           0xdeadbeef,
		Payload:        []byte("some audio frame bytes"),
	}

	wire, err := Encode(p, 0, NoCipher{})
	require.NoError(t, err)

	got, err := Decode(wire, 0, NoCipher{})
	require.NoError(t, err)
	assert.Equal(t, p.PayloadType, got.PayloadType)
	assert.Equal(t, p.SequenceNumber, got.SequenceNumber)
	assert.Equal(t, p.Timestamp, got.Timestamp)
	assert.Equal(t, p.SSRC, got.SSRC)
	assert.True(t, got.Marker)
	assert.Equal(t, p.Payload, got.Payload)
}

func TestEncodeDecodeRoundTripAESCTRByPacketIndexNotSeq(t *testing.T) {
	key := make([]byte, 16)
	iv := make([]byte, 16)
	for i := range key {
		key[i] = byte(i)
	}

	enc, err := NewAESCTRCipher(key, iv, 352, 4)
	require.NoError(t, err)
	dec, err := NewAESCTRCipher(key, iv, 352, 4)
	require.NoError(t, err)

	p := &Packet{PayloadType: PayloadTypeAudioRealtime, SequenceNumber: 65530, Timestamp: 1, Payload: []byte("pcm-frame-bytes!")}

	// packet index 5, but an arbitrary (wrapped) sequence number -- the
	// keystream position must follow packetIndex, not SequenceNumber.
	wire, err := Encode(p, 5, enc)
	require.NoError(t, err)

	got, err := Decode(wire, 5, dec)
	require.NoError(t, err)
	assert.Equal(t, p.Payload, got.Payload)

	// decoding at the wrong packet index must not reproduce the plaintext.
	wrong, err := Decode(wire, 6, dec)
	require.NoError(t, err)
	assert.NotEqual(t, p.Payload, wrong.Payload)
}

func TestEncodeDecodeRoundTripChaCha20Poly1305(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}
	enc, err := NewChaCha20Poly1305Cipher(key)
	require.NoError(t, err)
	dec, err := NewChaCha20Poly1305Cipher(key)
	require.NoError(t, err)

	p := &Packet{PayloadType: PayloadTypeAudioRealtime, SequenceNumber: 1, Timestamp: 352, Payload: []byte("alac-or-aac-encoded-frame")}

	wire, err := Encode(p, 0, enc)
	require.NoError(t, err)
	got, err := Decode(wire, 0, dec)
	require.NoError(t, err)
	assert.Equal(t, p.Payload, got.Payload)
}

func TestDecodeTamperedChaChaPayloadFails(t *testing.T) {
	key := make([]byte, 32)
	enc, err := NewChaCha20Poly1305Cipher(key)
	require.NoError(t, err)

	p := &Packet{PayloadType: PayloadTypeAudioRealtime, SequenceNumber: 1, Timestamp: 1, Payload: []byte("payload")}
	wire, err := Encode(p, 0, enc)
	require.NoError(t, err)
	wire[len(wire)-1] ^= 0xFF

	_, err = Decode(wire, 0, enc)
	require.Error(t, err)
	rtpErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, DecryptionFailed, rtpErr.Kind)
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	wire := make([]byte, 12)
	wire[0] = 0x80 // version 2 in top bits normally; corrupt to version 1
	wire[0] = 0x40
	_, err := Decode(wire, 0, NoCipher{})
	require.Error(t, err)
}

func TestRetransmitRequestRoundTrip(t *testing.T) {
	req := RetransmitRequest{SeqStart: 500, Count: 3}
	wire := MarshalRetransmitRequest(req)
	got, err := UnmarshalRetransmitRequest(wire)
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestSendBufferResolvesRetainedRange(t *testing.T) {
	buf := NewSendBuffer(4)
	for seq := uint16(1); seq <= 5; seq++ {
		buf.Record(seq, []byte{byte(seq)})
	}
	// capacity 4, so seq 1 should have been evicted.
	_, ok := buf.Lookup(1)
	assert.False(t, ok)

	resolved := buf.Resolve(RetransmitRequest{SeqStart: 2, Count: 4})
	require.Len(t, resolved, 4)
	assert.Equal(t, []byte{2}, resolved[0])
	assert.Equal(t, []byte{5}, resolved[3])
}
