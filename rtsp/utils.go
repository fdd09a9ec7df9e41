package rtsp

import (
	"bufio"
	"fmt"
)

func readByteEqual(rb *bufio.Reader, cmp byte) error {
	byt, err := rb.ReadByte()
	if err != nil {
		return err
	}
	if byt != cmp {
		return fmt.Errorf("expected '%c', got '%c'", cmp, byt)
	}
	return nil
}

// readBytesLimited reads from rb up to and including delim, failing if more
// than n bytes are consumed without finding it. Used to bound every
// variable-length field of a start line or header against a malicious or
// malformed peer.
func readBytesLimited(rb *bufio.Reader, delim byte, n int) ([]byte, error) {
	for i := 1; i <= n; i++ {
		byts, err := rb.Peek(i)
		if err != nil {
			return nil, err
		}
		if byts[len(byts)-1] == delim {
			rb.Discard(len(byts)) //nolint:errcheck
			return byts, nil
		}
	}
	return nil, fmt.Errorf("buffer length exceeds %d", n)
}
