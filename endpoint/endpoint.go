// Package endpoint holds the Device Endpoint data model (§3): a named
// network target handed to the Session Manager by discovery. It is never
// mutated after construction.
package endpoint

import "net"

// Flavor is which AirPlay protocol generation(s) an endpoint advertises.
type Flavor int

const (
	FlavorAirPlay1 Flavor = iota
	FlavorAirPlay2
	FlavorBoth
)

// Codec is a codec an endpoint claims to support, per RAOP's `cn` TXT
// field (§6).
type Codec int

const (
	CodecPCM Codec = iota
	CodecALAC
	CodecAAC
	CodecAACELD
)

// EncryptionType is an encryption scheme an endpoint claims to support,
// per RAOP's `et` TXT field (§6).
type EncryptionType int

const (
	EncryptionTypeNone EncryptionType = iota
	EncryptionTypeRSA
	EncryptionTypeFairPlay
	EncryptionTypeMFiSAP
	EncryptionTypeFairPlaySAPv25
)

// Endpoint is an immutable description of one discovered AirPlay device.
// Lifecycle: created by discovery, referenced by sessions, never mutated.
type Endpoint struct {
	// Identifier is the stable id: a MAC address for RAOP, or the
	// `deviceid` TXT value for AirPlay 2.
	Identifier string
	Name       string
	Addresses  []net.IP
	Port       int
	Flavor     Flavor

	Codecs      []Codec
	Encryptions []EncryptionType

	// PasswordRequired mirrors RAOP's `pw` TXT field / AP2's flags bit 4.
	PasswordRequired bool
	// LongTermPublicKeyHex is AirPlay 2's `pk` TXT field, the peer's
	// Ed25519 long-term public key, hex-encoded.
	LongTermPublicKeyHex string
	Model                string
}

// SupportsCodec reports whether the endpoint advertises c.
func (e Endpoint) SupportsCodec(c Codec) bool {
	for _, have := range e.Codecs {
		if have == c {
			return true
		}
	}
	return false
}

// SupportsEncryption reports whether the endpoint advertises t.
func (e Endpoint) SupportsEncryption(t EncryptionType) bool {
	for _, have := range e.Encryptions {
		if have == t {
			return true
		}
	}
	return false
}
