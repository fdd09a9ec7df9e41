package headers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/airplay2/airplay2/rtsp"
)

// TransportProtocol is the underlying transport a stream runs over.
type TransportProtocol int

const (
	TransportProtocolUDP TransportProtocol = iota
	TransportProtocolTCP
)

// TransportMode distinguishes SETUP for playback vs recording; AirPlay
// senders always use record (they push audio to the receiver).
type TransportMode int

const (
	TransportModePlay TransportMode = iota
	TransportModeRecord
)

// Transport is the Transport header exchanged during SETUP, carrying the
// three-port allocation (audio, control, timing) AirPlay negotiates (§4.5).
type Transport struct {
	Protocol TransportProtocol
	Mode     *TransportMode

	ClientPorts *[2]int
	ServerPorts *[2]int

	ControlPort *int
	TimingPort  *int
}

func parsePorts(val string) (*[2]int, error) {
	parts := strings.Split(val, "-")
	switch len(parts) {
	case 2:
		p1, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid ports (%v)", val)
		}
		p2, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid ports (%v)", val)
		}
		return &[2]int{p1, p2}, nil
	case 1:
		p1, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid ports (%v)", val)
		}
		return &[2]int{p1, p1 + 1}, nil
	default:
		return nil, fmt.Errorf("invalid ports (%v)", val)
	}
}

// Read decodes a Transport header value.
func (h *Transport) Read(v rtsp.HeaderValue) error {
	if len(v) == 0 {
		return fmt.Errorf("value not provided")
	}
	if len(v) > 1 {
		return fmt.Errorf("value provided multiple times (%v)", v)
	}

	kvs, err := keyValParse(v[0], ';')
	if err != nil {
		return err
	}

	protocolFound := false
	for k, val := range kvs {
		switch k {
		case "RTP/AVP", "RTP/AVP/UDP":
			h.Protocol = TransportProtocolUDP
			protocolFound = true
		case "RTP/AVP/TCP":
			h.Protocol = TransportProtocolTCP
			protocolFound = true
		case "client_port":
			ports, err := parsePorts(val)
			if err != nil {
				return err
			}
			h.ClientPorts = ports
		case "server_port":
			ports, err := parsePorts(val)
			if err != nil {
				return err
			}
			h.ServerPorts = ports
		case "control_port":
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid control_port (%v)", val)
			}
			h.ControlPort = &n
		case "timing_port":
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid timing_port (%v)", val)
			}
			h.TimingPort = &n
		case "mode":
			str := strings.Trim(strings.ToLower(val), `"`)
			switch str {
			case "play":
				m := TransportModePlay
				h.Mode = &m
			case "record", "receive":
				m := TransportModeRecord
				h.Mode = &m
			default:
				return fmt.Errorf("invalid transport mode: '%s'", str)
			}
		default:
			// ignore keys not meaningful to AirPlay (ttl, destination, ssrc, ...)
		}
	}

	if !protocolFound {
		return fmt.Errorf("protocol not found (%v)", v[0])
	}

	return nil
}

// Write encodes h as a Transport header value.
func (h Transport) Write() rtsp.HeaderValue {
	var parts []string

	if h.Protocol == TransportProtocolUDP {
		parts = append(parts, "RTP/AVP")
	} else {
		parts = append(parts, "RTP/AVP/TCP")
	}

	if h.ClientPorts != nil {
		parts = append(parts, fmt.Sprintf("client_port=%d-%d", h.ClientPorts[0], h.ClientPorts[1]))
	}
	if h.ServerPorts != nil {
		parts = append(parts, fmt.Sprintf("server_port=%d-%d", h.ServerPorts[0], h.ServerPorts[1]))
	}
	if h.ControlPort != nil {
		parts = append(parts, fmt.Sprintf("control_port=%d", *h.ControlPort))
	}
	if h.TimingPort != nil {
		parts = append(parts, fmt.Sprintf("timing_port=%d", *h.TimingPort))
	}
	if h.Mode != nil {
		if *h.Mode == TransportModePlay {
			parts = append(parts, "mode=play")
		} else {
			parts = append(parts, "mode=record")
		}
	}

	return rtsp.HeaderValue{strings.Join(parts, ";")}
}
