// Package store defines the persistent pairing-key store contract the core
// consumes but never implements I/O for itself (§6 "Persistent pairing
// store").
package store

import (
	"errors"

	"github.com/airplay2/airplay2/pairing"
)

// ErrNotFound is returned by Load when device_id has no stored keys.
var ErrNotFound = errors.New("store: device not found")

// PairingStore persists long-term pairing identities keyed by device id
// (the peer's stable identifier — MAC for RAOP, deviceid TXT for AP2).
// Implementations own their own locking; the core treats this interface as
// a single-owner, lock-free collaborator from its own perspective.
type PairingStore interface {
	// Load returns the stored keys for deviceID, or ErrNotFound.
	Load(deviceID string) (*pairing.Keys, error)
	// Save persists keys under deviceID, overwriting any existing entry.
	Save(deviceID string, keys *pairing.Keys) error
	// Remove deletes any stored entry for deviceID. It is not an error to
	// remove a device that was never stored.
	Remove(deviceID string) error
	// ListDevices returns every device id currently stored.
	ListDevices() ([]string, error)
}
