package rtsp

import (
	"bytes"
	"encoding/binary"
	"errors"

	apcrypto "github.com/airplay2/airplay2/crypto"
)

// maxFramePlaintext is the largest plaintext a single encrypted frame may
// carry (§4.3).
const maxFramePlaintext = 65535

// ErrFrameAuthFailed is returned by FrameDecoder.Decode when a frame's AEAD
// tag fails to verify. This is always fatal: the wrapper MUST NOT attempt
// recovery because any slip desynchronizes the per-direction counter.
var ErrFrameAuthFailed = errors.New("rtsp: encrypted frame authentication failed")

// FrameEncoder wraps outgoing RTSP bytes into encrypted frames
// [length_le_u16][ciphertext‖tag16] once pairing reaches Complete. Before
// that it passes plaintext through unchanged (§4.3's passthrough/disabled
// mode). The mode switch is one-way and transactional: Enable must be
// called exactly once, immediately after the pairing state machine reports
// Complete.
type FrameEncoder struct {
	key     [32]byte
	counter uint64
	enabled bool
}

// NewFrameEncoder returns a disabled encoder; call Enable once pairing
// completes.
func NewFrameEncoder() *FrameEncoder {
	return &FrameEncoder{}
}

// Enable turns on encryption under key, permanently, for all subsequent
// Encode calls. Calling it twice is a programming error the caller must not
// do; it is not guarded against since the transactional "exactly once"
// contract is enforced by the session state machine, not this type.
func (e *FrameEncoder) Enable(key [32]byte) {
	e.key = key
	e.enabled = true
	e.counter = 0
}

// Enabled reports whether encryption is active.
func (e *FrameEncoder) Enabled() bool { return e.enabled }

// Encode wraps plaintext into zero or more frames. Plaintext larger than
// maxFramePlaintext is split across multiple frames.
func (e *FrameEncoder) Encode(plaintext []byte) ([]byte, error) {
	if !e.enabled {
		return plaintext, nil
	}

	var out bytes.Buffer
	for len(plaintext) > 0 {
		chunk := plaintext
		if len(chunk) > maxFramePlaintext {
			chunk = chunk[:maxFramePlaintext]
		}
		plaintext = plaintext[len(chunk):]

		nonce := apcrypto.LittleEndianNonce(e.counter)
		e.counter++

		ciphertext, err := apcrypto.ChaCha20Poly1305Encrypt(e.key[:], nonce[:], nil, chunk)
		if err != nil {
			return nil, err
		}

		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(chunk)))
		out.Write(lenBuf[:])
		out.Write(ciphertext)
	}
	return out.Bytes(), nil
}

// FrameDecoder is the receive-side counterpart of FrameEncoder: a sans-I/O
// incremental decoder over the peer's direction-specific counter.
type FrameDecoder struct {
	key     [32]byte
	counter uint64
	enabled bool
	buf     bytes.Buffer
}

// NewFrameDecoder returns a disabled decoder.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{}
}

// Enable turns on decryption under key, permanently.
func (d *FrameDecoder) Enable(key [32]byte) {
	d.key = key
	d.enabled = true
	d.counter = 0
}

// Enabled reports whether decryption is active.
func (d *FrameDecoder) Enabled() bool { return d.enabled }

// Feed appends newly-received bytes to the internal buffer.
func (d *FrameDecoder) Feed(data []byte) {
	d.buf.Write(data)
}

// Decode consumes one complete frame if buffered, returning its decrypted
// plaintext. It returns (nil, false, nil) if a full frame is not yet
// available. In passthrough mode (not yet Enabled) it instead drains and
// returns whatever raw bytes are buffered, since there is no framing to
// wait for pre-pairing.
func (d *FrameDecoder) Decode() ([]byte, bool, error) {
	if !d.enabled {
		if d.buf.Len() == 0 {
			return nil, false, nil
		}
		out := append([]byte(nil), d.buf.Bytes()...)
		d.buf.Reset()
		return out, true, nil
	}

	raw := d.buf.Bytes()
	if len(raw) < 2 {
		return nil, false, nil
	}
	plainLen := int(binary.LittleEndian.Uint16(raw[:2]))
	total := 2 + plainLen + apcrypto.ChaCha20Poly1305TagSize
	if len(raw) < total {
		return nil, false, nil
	}

	nonce := apcrypto.LittleEndianNonce(d.counter)
	plaintext, err := apcrypto.ChaCha20Poly1305Decrypt(d.key[:], nonce[:], nil, raw[2:total])
	if err != nil {
		return nil, false, ErrFrameAuthFailed
	}
	d.counter++
	d.buf.Next(total)
	return plaintext, true, nil
}
