package events

// ReceiverEventKind enumerates the event variants a receiver-mode session
// publishes (§6).
type ReceiverEventKind int

const (
	ReceiverPairingComplete ReceiverEventKind = iota
	ReceiverSessionStateChanged
	ReceiverVolumeChanged
	ReceiverBufferUnderrun
	ReceiverError
)

// ReceiverEvent is one notification from a receiver-mode session.
type ReceiverEvent struct {
	Kind      ReceiverEventKind
	SessionID string

	// SessionState is set for ReceiverSessionStateChanged.
	SessionState string
	// VolumeDB is set for ReceiverVolumeChanged, clamped to [-144.0, 0.0].
	VolumeDB float64

	// ErrorCode/ErrorMessage/Recoverable are set for ReceiverError.
	ErrorCode    string
	ErrorMessage string
	Recoverable  bool
}

// ClientEventKind enumerates the event variants a sender-mode session
// publishes (§6).
type ClientEventKind int

const (
	ClientPairingComplete ClientEventKind = iota
	ClientSessionStateChanged
	ClientMetadataUpdated
	ClientArtworkUpdated
	ClientProgressUpdated
	ClientError
)

// ClientEvent is one notification from a sender-mode session.
type ClientEvent struct {
	Kind      ClientEventKind
	SessionID string

	SessionState string

	// Metadata is set for ClientMetadataUpdated (track title/artist/album
	// as the receiver reports them).
	Metadata map[string]string
	// Artwork is set for ClientArtworkUpdated, the raw image bytes.
	Artwork []byte
	// ProgressElapsed/ProgressTotal are set for ClientProgressUpdated.
	ProgressElapsed float64
	ProgressTotal   float64

	ErrorCode    string
	ErrorMessage string
	Recoverable  bool
}
