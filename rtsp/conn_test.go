package rtsp

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnWriteMessageThenReadMessagePlaintext(t *testing.T) {
	clientNet, serverNet := net.Pipe()
	defer clientNet.Close()
	defer serverNet.Close()

	client := NewConn(clientNet)
	server := NewConn(serverNet)
	defer client.Close()
	defer server.Close()

	u, err := ParseURL("rtsp://10.0.0.5/")
	require.NoError(t, err)

	req := &Request{
		Method: Options,
		URL:    u,
		Header: Header{"CSeq": HeaderValue{"1"}},
	}

	errc := make(chan error, 1)
	go func() { errc <- client.WriteMessage(req) }()

	msg, err := server.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, <-errc)

	gotReq, ok := msg.(*Request)
	require.True(t, ok)
	assert.Equal(t, Options, gotReq.Method)
	assert.Equal(t, HeaderValue{"1"}, gotReq.Header["CSeq"])
}

func TestConnEnableEncryptionRoundTrip(t *testing.T) {
	clientNet, serverNet := net.Pipe()
	defer clientNet.Close()
	defer serverNet.Close()

	client := NewConn(clientNet)
	server := NewConn(serverNet)
	defer client.Close()
	defer server.Close()

	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}
	// Peers use each other's direction: what client encrypts with, server
	// must decrypt with, and vice versa; using the same key for both
	// directions here since only one direction is exercised per call.
	client.EnableEncryption(key, key)
	server.EnableEncryption(key, key)

	u, err := ParseURL("rtsp://10.0.0.5/")
	require.NoError(t, err)
	req := &Request{
		Method: Announce,
		URL:    u,
		Header: Header{"CSeq": HeaderValue{"2"}},
	}

	errc := make(chan error, 1)
	go func() { errc <- client.WriteMessage(req) }()

	msg, err := server.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, <-errc)

	gotReq, ok := msg.(*Request)
	require.True(t, ok)
	assert.Equal(t, Announce, gotReq.Method)
}

func TestConnStatsTrackBytesSent(t *testing.T) {
	clientNet, serverNet := net.Pipe()
	defer clientNet.Close()
	defer serverNet.Close()

	client := NewConn(clientNet)
	server := NewConn(serverNet)
	defer client.Close()
	defer server.Close()

	u, err := ParseURL("rtsp://10.0.0.5/")
	require.NoError(t, err)
	req := &Request{Method: Options, URL: u, Header: Header{"CSeq": HeaderValue{"1"}}}

	go client.WriteMessage(req) //nolint:errcheck
	_, err = server.ReadMessage()
	require.NoError(t, err)

	// give the write goroutine a moment to update the counter after flush.
	time.Sleep(10 * time.Millisecond)
	assert.Greater(t, client.Stats().BytesSent, uint64(0))
}
