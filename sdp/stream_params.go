// Package sdp turns the SDP body carried inside an RTSP ANNOUNCE into the
// StreamParameters the RTP audio path needs, and emits it back for a sender
// (§3, §4.4, §6). It wraps github.com/pion/sdp/v3 rather than re-parsing SDP
// by hand, the way gortsplib's own pkg/sdp wraps the same library.
package sdp

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	psdp "github.com/pion/sdp/v3"

	apcrypto "github.com/airplay2/airplay2/crypto"
)

// Codec is the audio codec named by a stream's a=rtpmap attribute.
type Codec int

const (
	CodecPCML16 Codec = iota
	CodecALAC
	CodecAACLC
	CodecAACELD
)

func (c Codec) String() string {
	switch c {
	case CodecPCML16:
		return "PCM-L16"
	case CodecALAC:
		return "ALAC"
	case CodecAACLC:
		return "AAC-LC"
	case CodecAACELD:
		return "AAC-ELD"
	default:
		return "unknown"
	}
}

// codecByRTPMapName maps the encoding name pion/sdp/v3 parses out of
// a=rtpmap:<pt> <name>/<clock>[/<channels>] to its Codec.
var codecByRTPMapName = map[string]Codec{
	"L16":           CodecPCML16,
	"AppleLossless": CodecALAC,
	"mpeg4-generic": CodecAACLC,
	"AAC-eld":       CodecAACELD,
}

var rtpMapNameByCodec = map[Codec]string{
	CodecPCML16: "L16",
	CodecALAC:   "AppleLossless",
	CodecAACLC:  "mpeg4-generic",
	CodecAACELD: "AAC-eld",
}

// EncryptionMode is the payload encryption scheme a stream negotiates,
// dispatched by which keying attributes the SDP carries (§4.4).
type EncryptionMode int

const (
	EncryptionNone EncryptionMode = iota
	EncryptionAESCTR
	EncryptionChaCha20Poly1305
)

// StreamParameters is the fully-resolved description of one audio stream,
// parsed from an ANNOUNCE body (§3).
type StreamParameters struct {
	Codec           Codec
	SampleRate      int
	Channels        int
	BitsPerSample   int
	FramesPerPacket int

	Encryption EncryptionMode
	AESKey     [16]byte
	AESIV      [16]byte
	ChaChaKey  [32]byte

	MinLatency *int
	MaxLatency *int
}

// ParseOptions configures Parse's decryption of inline key material.
type ParseOptions struct {
	// RSAPrivateKey unwraps a=rsaaeskey when present (RAOP). If nil and
	// rsaaeskey is present, Parse returns MissingAttribute.
	RSAPrivateKey *rsa.PrivateKey
}

// Parse decodes an ANNOUNCE SDP body into StreamParameters.
func Parse(body []byte, opts ParseOptions) (*StreamParameters, error) {
	var sd psdp.SessionDescription
	if err := sd.Unmarshal(body); err != nil {
		return nil, newErr(MalformedSDP, "%v", err)
	}

	var audio *psdp.MediaDescription
	for _, md := range sd.MediaDescriptions {
		if md.MediaName.Media == "audio" {
			audio = md
			break
		}
	}
	if audio == nil {
		return nil, newErr(MissingAttribute, "no m=audio section")
	}

	params := &StreamParameters{}

	rtpmap, ok := audio.Attribute("rtpmap")
	if !ok {
		return nil, newErr(MissingAttribute, "a=rtpmap missing")
	}
	if err := params.parseRTPMap(rtpmap); err != nil {
		return nil, err
	}

	if fmtp, ok := audio.Attribute("fmtp"); ok {
		params.parseFmtp(fmtp)
	}

	if params.FramesPerPacket == 0 {
		params.FramesPerPacket = 352
	}
	if params.BitsPerSample == 0 {
		params.BitsPerSample = 16
	}

	if minLat, ok := audio.Attribute("min-latency"); ok {
		if n, err := strconv.Atoi(minLat); err == nil {
			params.MinLatency = &n
		}
	}
	if maxLat, ok := audio.Attribute("max-latency"); ok {
		if n, err := strconv.Atoi(maxLat); err == nil {
			params.MaxLatency = &n
		}
	}

	if err := params.parseKeying(audio, opts); err != nil {
		return nil, err
	}

	return params, nil
}

// parseRTPMap reads "<pt> <name>/<clock>[/<channels>]".
func (p *StreamParameters) parseRTPMap(value string) error {
	fields := strings.Fields(value)
	if len(fields) != 2 {
		return newErr(InvalidAttribute, "malformed rtpmap (%v)", value)
	}
	parts := strings.Split(fields[1], "/")
	if len(parts) < 2 {
		return newErr(InvalidAttribute, "malformed rtpmap encoding (%v)", fields[1])
	}

	codec, ok := codecByRTPMapName[parts[0]]
	if !ok {
		return newErr(UnsupportedCodec, "%v", parts[0])
	}
	p.Codec = codec

	rate, err := strconv.Atoi(parts[1])
	if err != nil {
		return newErr(InvalidAttribute, "invalid clock rate (%v)", parts[1])
	}
	p.SampleRate = rate

	if len(parts) >= 3 {
		ch, err := strconv.Atoi(parts[2])
		if err != nil {
			return newErr(InvalidAttribute, "invalid channel count (%v)", parts[2])
		}
		p.Channels = ch
	} else {
		p.Channels = 2
	}

	return nil
}

// parseFmtp reads ALAC's space-separated parameter block: "<pt> frameLength
// compatibleVersion bitDepth pb mb kb channels maxRun maxFrameBytes
// avgBitRate sampleRate". Unknown codecs' fmtp lines are accepted but
// otherwise ignored, matching gortsplib's tolerant-parse style.
func (p *StreamParameters) parseFmtp(value string) {
	if p.Codec != CodecALAC {
		return
	}
	fields := strings.Fields(value)
	if len(fields) < 12 {
		return
	}
	if n, err := strconv.Atoi(fields[1]); err == nil {
		p.FramesPerPacket = n
	}
	if n, err := strconv.Atoi(fields[3]); err == nil {
		p.BitsPerSample = n
	}
	if n, err := strconv.Atoi(fields[7]); err == nil {
		p.Channels = n
	}
	if n, err := strconv.Atoi(fields[11]); err == nil {
		p.SampleRate = n
	}
}

func (p *StreamParameters) parseKeying(audio *psdp.MediaDescription, opts ParseOptions) error {
	rsaKey, hasRSAKey := audio.Attribute("rsaaeskey")
	aesIV, hasAESIV := audio.Attribute("aesiv")
	chachaKey, hasChachaKey := audio.Attribute("ChaChaKey")

	switch {
	case hasRSAKey:
		if !hasAESIV {
			return newErr(MissingAttribute, "a=rsaaeskey present without a=aesiv")
		}
		if opts.RSAPrivateKey == nil {
			return newErr(MissingAttribute, "a=rsaaeskey present but no RSA private key configured")
		}
		wrapped, err := base64.StdEncoding.DecodeString(rsaKey)
		if err != nil {
			return newErr(InvalidAttribute, "invalid rsaaeskey base64: %v", err)
		}
		iv, err := base64.StdEncoding.DecodeString(aesIV)
		if err != nil {
			return newErr(InvalidAttribute, "invalid aesiv base64: %v", err)
		}
		if len(iv) != 16 {
			return newErr(InvalidAttribute, "aesiv must be 16 bytes, got %d", len(iv))
		}
		key, err := apcrypto.RSAOAEPUnwrapAESKey(opts.RSAPrivateKey, wrapped)
		if err != nil {
			return newErr(InvalidAttribute, "rsaaeskey unwrap failed: %v", err)
		}
		if len(key) != 16 {
			return newErr(InvalidAttribute, "unwrapped AES key must be 16 bytes, got %d", len(key))
		}
		p.Encryption = EncryptionAESCTR
		copy(p.AESKey[:], key)
		copy(p.AESIV[:], iv)

	case hasChachaKey:
		key, err := base64.StdEncoding.DecodeString(chachaKey)
		if err != nil {
			return newErr(InvalidAttribute, "invalid ChaChaKey base64: %v", err)
		}
		if len(key) != 32 {
			return newErr(InvalidAttribute, "ChaChaKey must be 32 bytes, got %d", len(key))
		}
		p.Encryption = EncryptionChaCha20Poly1305
		copy(p.ChaChaKey[:], key)

	default:
		p.Encryption = EncryptionNone
	}

	return nil
}

// EmitOptions configures Emit's wrapping of inline key material.
type EmitOptions struct {
	// RSAPublicKey wraps p.AESKey into a=rsaaeskey when Encryption is
	// EncryptionAESCTR. Required in that case.
	RSAPublicKey *rsa.PublicKey
	// SessionID/SessionVersion fill o= per RFC 4566; zero values are
	// acceptable for a one-shot ANNOUNCE.
	SessionID      uint64
	SessionVersion uint64
	OriginAddress  string
}

// Emit encodes p into an ANNOUNCE-ready SDP body.
func Emit(p *StreamParameters, opts EmitOptions) ([]byte, error) {
	name, ok := rtpMapNameByCodec[p.Codec]
	if !ok {
		return nil, newErr(UnsupportedCodec, "codec %v has no rtpmap name", p.Codec)
	}

	const payloadType = 96

	attrs := []psdp.Attribute{
		{Key: "rtpmap", Value: fmt.Sprintf("%d %s/%d/%d", payloadType, name, p.SampleRate, p.Channels)},
	}

	if p.Codec == CodecALAC {
		attrs = append(attrs, psdp.Attribute{Key: "fmtp", Value: fmt.Sprintf(
			"%d %d 0 %d 40 10 14 %d 255 0 0 %d",
			payloadType, p.FramesPerPacket, p.BitsPerSample, p.Channels, p.SampleRate,
		)})
	}

	if p.MinLatency != nil {
		attrs = append(attrs, psdp.Attribute{Key: "min-latency", Value: strconv.Itoa(*p.MinLatency)})
	}
	if p.MaxLatency != nil {
		attrs = append(attrs, psdp.Attribute{Key: "max-latency", Value: strconv.Itoa(*p.MaxLatency)})
	}

	switch p.Encryption {
	case EncryptionAESCTR:
		if opts.RSAPublicKey == nil {
			return nil, newErr(MissingAttribute, "EncryptionAESCTR requires an RSA public key to emit rsaaeskey")
		}
		wrapped, err := apcrypto.RSAOAEPWrapAESKey(opts.RSAPublicKey, p.AESKey[:])
		if err != nil {
			return nil, newErr(InvalidAttribute, "rsaaeskey wrap failed: %v", err)
		}
		attrs = append(attrs,
			psdp.Attribute{Key: "rsaaeskey", Value: base64.StdEncoding.EncodeToString(wrapped)},
			psdp.Attribute{Key: "aesiv", Value: base64.StdEncoding.EncodeToString(p.AESIV[:])},
		)
	case EncryptionChaCha20Poly1305:
		attrs = append(attrs, psdp.Attribute{Key: "ChaChaKey", Value: base64.StdEncoding.EncodeToString(p.ChaChaKey[:])})
	}

	addr := opts.OriginAddress
	if addr == "" {
		addr = "0.0.0.0"
	}

	sd := &psdp.SessionDescription{
		Version: 0,
		Origin: psdp.Origin{
			Username:       "-",
			SessionID:      opts.SessionID,
			SessionVersion: opts.SessionVersion,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: addr,
		},
		SessionName: "AirTunes",
		TimeDescriptions: []psdp.TimeDescription{
			{Timing: psdp.Timing{StartTime: 0, StopTime: 0}},
		},
		MediaDescriptions: []*psdp.MediaDescription{
			{
				MediaName: psdp.MediaName{
					Media:   "audio",
					Port:    psdp.RangedPort{Value: 0},
					Protos:  []string{"RTP", "AVP"},
					Formats: []string{strconv.Itoa(payloadType)},
				},
				Attributes: attrs,
			},
		},
	}

	return sd.Marshal()
}
