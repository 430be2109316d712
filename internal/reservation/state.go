package reservation

// State is how far a reservation attempt got.
type State int

// States in the order a successful attempt passes through them.
const (
	StateStarted State = iota
	StateLocked
	StateValidated
	StateDecremented
	StateBookingPersisted
	StateCredentialIssued
	StateCommitted
	StateRolledBack
)

var stateNames = [...]string{
	StateStarted:          "started",
	StateLocked:           "locked",
	StateValidated:        "validated",
	StateDecremented:      "decremented",
	StateBookingPersisted: "booking_persisted",
	StateCredentialIssued: "credential_issued",
	StateCommitted:        "committed",
	StateRolledBack:       "rolled_back",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
