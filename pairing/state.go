package pairing

// State is a sum type over a pairing state machine's named states (§9's
// "state machines as tagged variants" note): an unexported interface
// implemented by a handful of marker types, so the zero value can never be
// mistaken for a valid state and transitions must go through typed
// constructors rather than in-place field mutation.
type State interface {
	pairingState()
	String() string
}

type stateInit struct{}
type stateWaitingResponse struct{}
type stateSrpExchange struct{}
type stateKeyExchange struct{}
type stateVerifying struct{}
type stateComplete struct{}
type stateFailed struct{ Err *Error }

func (stateInit) pairingState()            {}
func (stateWaitingResponse) pairingState() {}
func (stateSrpExchange) pairingState()     {}
func (stateKeyExchange) pairingState()     {}
func (stateVerifying) pairingState()       {}
func (stateComplete) pairingState()        {}
func (stateFailed) pairingState()          {}

func (stateInit) String() string            { return "Init" }
func (stateWaitingResponse) String() string { return "WaitingResponse" }
func (stateSrpExchange) String() string     { return "SrpExchange" }
func (stateKeyExchange) String() string     { return "KeyExchange" }
func (stateVerifying) String() string       { return "Verifying" }
func (stateComplete) String() string        { return "Complete" }
func (s stateFailed) String() string        { return "Failed(" + s.Err.Error() + ")" }

// States, exposed as values so callers can compare by type via a switch.
var (
	StateInit            State = stateInit{}
	StateWaitingResponse State = stateWaitingResponse{}
	StateSrpExchange     State = stateSrpExchange{}
	StateKeyExchange     State = stateKeyExchange{}
	StateVerifying       State = stateVerifying{}
	StateComplete        State = stateComplete{}
)

// Failed builds a terminal Failed state carrying the triggering error.
func Failed(err *Error) State { return stateFailed{Err: err} }

// IsFailed reports whether s is a terminal Failed state, returning the error.
func IsFailed(s State) (*Error, bool) {
	f, ok := s.(stateFailed)
	if !ok {
		return nil, false
	}
	return f.Err, true
}

// IsComplete reports whether s is the terminal Complete state.
func IsComplete(s State) bool {
	_, ok := s.(stateComplete)
	return ok
}
