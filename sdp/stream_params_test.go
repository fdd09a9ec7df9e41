package sdp

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alacANNOUNCE = "v=0\r\n" +
	"o=- 0 0 IN IP4 10.0.0.1\r\n" +
	"s=AirTunes\r\n" +
	"t=0 0\r\n" +
	"m=audio 0 RTP/AVP 96\r\n" +
	"a=rtpmap:96 AppleLossless/44100/2\r\n" +
	"a=fmtp:96 352 0 16 40 10 14 2 255 0 0 44100\r\n" +
	"a=min-latency:11025\r\n" +
	"a=max-latency:88200\r\n"

func TestParseALACAnnounceNoEncryption(t *testing.T) {
	params, err := Parse([]byte(alacANNOUNCE), ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, CodecALAC, params.Codec)
	assert.Equal(t, 44100, params.SampleRate)
	assert.Equal(t, 2, params.Channels)
	assert.Equal(t, 16, params.BitsPerSample)
	assert.Equal(t, 352, params.FramesPerPacket)
	assert.Equal(t, EncryptionNone, params.Encryption)
	require.NotNil(t, params.MinLatency)
	assert.Equal(t, 11025, *params.MinLatency)
	require.NotNil(t, params.MaxLatency)
	assert.Equal(t, 88200, *params.MaxLatency)
}

func TestParseRAOPAnnounceWithRSAWrappedKey(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	params := &StreamParameters{
		Codec:           CodecALAC,
		SampleRate:      44100,
		Channels:        2,
		BitsPerSample:   16,
		FramesPerPacket: 352,
		Encryption:      EncryptionAESCTR,
	}
	for i := range params.AESKey {
		params.AESKey[i] = byte(i)
	}
	for i := range params.AESIV {
		params.AESIV[i] = byte(i + 100)
	}

	body, err := Emit(params, EmitOptions{RSAPublicKey: &priv.PublicKey})
	require.NoError(t, err)

	got, err := Parse(body, ParseOptions{RSAPrivateKey: priv})
	require.NoError(t, err)

	assert.Equal(t, EncryptionAESCTR, got.Encryption)
	assert.Equal(t, params.AESKey, got.AESKey)
	assert.Equal(t, params.AESIV, got.AESIV)
}

func TestParseRSAWrappedKeyWithoutPrivateKeyFails(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	params := &StreamParameters{Codec: CodecALAC, SampleRate: 44100, Channels: 2, Encryption: EncryptionAESCTR}
	body, err := Emit(params, EmitOptions{RSAPublicKey: &priv.PublicKey})
	require.NoError(t, err)

	_, err = Parse(body, ParseOptions{})
	require.Error(t, err)
	sdpErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, MissingAttribute, sdpErr.Kind)
}

func TestParseUnsupportedCodecRejected(t *testing.T) {
	body := "v=0\r\no=- 0 0 IN IP4 10.0.0.1\r\ns=AirTunes\r\nt=0 0\r\n" +
		"m=audio 0 RTP/AVP 97\r\na=rtpmap:97 opus/48000/2\r\n"
	_, err := Parse([]byte(body), ParseOptions{})
	require.Error(t, err)
	sdpErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, UnsupportedCodec, sdpErr.Kind)
}

func TestEmitParsePCML16RoundTrip(t *testing.T) {
	params := &StreamParameters{
		Codec:           CodecPCML16,
		SampleRate:      44100,
		Channels:        2,
		BitsPerSample:   16,
		FramesPerPacket: 352,
		Encryption:      EncryptionNone,
	}
	body, err := Emit(params, EmitOptions{})
	require.NoError(t, err)

	got, err := Parse(body, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, CodecPCML16, got.Codec)
	assert.Equal(t, 44100, got.SampleRate)
	assert.Equal(t, 2, got.Channels)
}
