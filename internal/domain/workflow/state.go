package workflow

// State represents a lifecycle state of a maintenance request
type State string

const (
	StatePendingAssessment   State = "Pending Assessment"
	StateReturnedToTech      State = "Returned to Tech"
	StateAwaitingApproval    State = "Awaiting Approval"
	StateAwaitingStore       State = "Approved - Awaiting Store"
	StateMaterialsReady      State = "Materials Ready"
	StateInExecution         State = "In Execution"
	StatePendingVerification State = "Pending Verification"
	StateCompleted           State = "Completed"
	StateRejected            State = "Rejected"
)

var validStates = map[State]bool{
	StatePendingAssessment:   true,
	StateReturnedToTech:      true,
	StateAwaitingApproval:    true,
	StateAwaitingStore:       true,
	StateMaterialsReady:      true,
	StateInExecution:         true,
	StatePendingVerification: true,
	StateCompleted:           true,
	StateRejected:            true,
}

var terminalStates = map[State]bool{
	StateCompleted: true,
	StateRejected:  true,
}

// IsTerminal returns true if the state admits no further transitions
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
