// Package rtp implements AirPlay's RTP audio packet encode/decode,
// payload encryption dispatch, and the retransmit request/response pair,
// built on github.com/pion/rtp's wire-level Header/Packet (§4.4).
package rtp

import (
	pionrtp "github.com/pion/rtp"
)

// PayloadType identifies the kind of RTP packet on an AirPlay stream.
type PayloadType uint8

const (
	PayloadTypeAudioRealtime      PayloadType = 0x60
	PayloadTypeAudioBuffered      PayloadType = 0x61
	PayloadTypeTimingRequest      PayloadType = 0x52
	PayloadTypeTimingResponse     PayloadType = 0x53
	PayloadTypeSync               PayloadType = 0x54
	PayloadTypeRetransmitRequest  PayloadType = 0x55
	PayloadTypeRetransmitResponse PayloadType = 0x56
)

// headerSize is the fixed 12-byte RTP header size with no CSRC/extension,
// which is all AirPlay ever sends (§4.4).
const headerSize = 12

// Packet is one decoded AirPlay RTP packet: sequence/timestamp/SSRC plus
// the already-decrypted payload.
type Packet struct {
	PayloadType    PayloadType
	Marker         bool
	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	Payload        []byte
}

// Encode serializes p, encrypting the payload with cipher at packetIndex
// (§4.4's packet-index-keyed keystream/nonce). cipher may be NoCipher{} for
// unencrypted streams.
func Encode(p *Packet, packetIndex uint64, c Cipher) ([]byte, error) {
	header := pionrtp.Header{
		Version:        2,
		Marker:         p.Marker,
		PayloadType:    uint8(p.PayloadType),
		SequenceNumber: p.SequenceNumber,
		Timestamp:      p.Timestamp,
		SSRC:           p.SSRC,
	}

	headerBytes := make([]byte, header.MarshalSize())
	n, err := header.MarshalTo(headerBytes)
	if err != nil {
		return nil, newErr(MalformedPacket, "%v", err)
	}
	headerBytes = headerBytes[:n]

	ciphertext, err := c.Encrypt(packetIndex, headerBytes, p.Payload)
	if err != nil {
		return nil, newErr(DecryptionFailed, "%v", err)
	}

	return append(headerBytes, ciphertext...), nil
}

// Decode parses wire into a Packet, decrypting its payload with cipher at
// packetIndex. It rejects any header whose version is not 2.
func Decode(wire []byte, packetIndex uint64, c Cipher) (*Packet, error) {
	if len(wire) < headerSize {
		return nil, newErr(MalformedPacket, "packet shorter than RTP header (%d bytes)", len(wire))
	}

	var header pionrtp.Header
	n, err := header.Unmarshal(wire)
	if err != nil {
		return nil, newErr(MalformedPacket, "%v", err)
	}
	if header.Version != 2 {
		return nil, newErr(MalformedPacket, "unsupported RTP version %d", header.Version)
	}

	plaintext, err := c.Decrypt(packetIndex, wire[:n], wire[n:])
	if err != nil {
		return nil, newErr(DecryptionFailed, "%v", err)
	}

	return &Packet{
		PayloadType:    PayloadType(header.PayloadType),
		Marker:         header.Marker,
		SequenceNumber: header.SequenceNumber,
		Timestamp:      header.Timestamp,
		SSRC:           header.SSRC,
		Payload:        plaintext,
	}, nil
}
