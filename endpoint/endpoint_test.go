package endpoint

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointCapabilityQueries(t *testing.T) {
	e := Endpoint{
		Identifier:  "AA:BB:CC:DD:EE:FF",
		Name:        "Living Room",
		Addresses:   []net.IP{net.ParseIP("10.0.0.5")},
		Port:        5000,
		Flavor:      FlavorAirPlay1,
		Codecs:      []Codec{CodecPCM, CodecALAC},
		Encryptions: []EncryptionType{EncryptionTypeRSA},
	}

	assert.True(t, e.SupportsCodec(CodecALAC))
	assert.False(t, e.SupportsCodec(CodecAACELD))
	assert.True(t, e.SupportsEncryption(EncryptionTypeRSA))
	assert.False(t, e.SupportsEncryption(EncryptionTypeFairPlay))
}
