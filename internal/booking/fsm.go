package booking

// State is the workflow's position.
type State string

const (
	StateSelectingRoom  State = "selecting_room"
	StateFillingDetails State = "filling_details"
	StateSubmitting     State = "submitting"
	StateAwaitingOtp    State = "awaiting_otp"
	StateCompleted      State = "completed"
	StateAbandoned      State = "abandoned"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAbandoned
}

// FSM holds the allowed workflow transitions.
type FSM struct {
	transitions map[State][]State
}

// NewFSM creates a new FSM with predefined transitions.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[State][]State{
			StateSelectingRoom:  {StateFillingDetails, StateAbandoned},
			StateFillingDetails: {StateSubmitting, StateSelectingRoom, StateAbandoned},
			StateSubmitting:     {StateAwaitingOtp, StateFillingDetails, StateAbandoned},
			StateAwaitingOtp:    {StateCompleted, StateAbandoned},
		},
	}
}

// CanTransition checks if transition is allowed.
func (f *FSM) CanTransition(from, to State) bool {
	for _, s := range f.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
