package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortAllocatorHandsOutConsecutiveTriples(t *testing.T) {
	a := NewPortAllocator(6000, 9) // 3 slots

	p1, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, PortTriple{Audio: 6000, Control: 6001, Timing: 6002}, p1)

	p2, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, PortTriple{Audio: 6003, Control: 6004, Timing: 6005}, p2)
}

func TestPortAllocatorExhaustionAndRelease(t *testing.T) {
	a := NewPortAllocator(6000, 6) // 2 slots

	p1, err := a.Allocate()
	require.NoError(t, err)
	_, err = a.Allocate()
	require.NoError(t, err)

	_, err = a.Allocate()
	require.Error(t, err)
	allocErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, PortsExhausted, allocErr.Kind)

	a.Release(p1)
	assert.Equal(t, 1, a.Available())

	p3, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, p1, p3)
}

func TestPortAllocatorReleaseOfUnknownTripleIsNoOp(t *testing.T) {
	a := NewPortAllocator(6000, 9)
	before := a.Available()
	a.Release(PortTriple{Audio: 99999, Control: 100000, Timing: 100001})
	assert.Equal(t, before, a.Available())
}
