package workflow

// rolePolicy maps each role to the actions it may perform per state.
// Adding a role or state is a data change here, not new branching.
var rolePolicy = map[Role]map[State][]Action{
	RoleTech: {
		StatePendingAssessment: {ActionSubmitAssessment},
		StateReturnedToTech:    {ActionSubmitAssessment},
		StateMaterialsReady:    {ActionConfirmCollection},
		StateInExecution:       {ActionRequestAudit},
	},
	RoleManager: {
		StateAwaitingApproval: {ActionAuthorize, ActionReject},
	},
	RoleStore: {
		StateAwaitingStore: {ActionFulfill},
	},
	RoleQA: {
		StatePendingVerification: {ActionApproveAndClose, ActionFailAudit},
	},
}

// creationRoles lists the roles allowed to create a new request. Creation
// has no from-state, so it lives outside the per-state table.
var creationRoles = map[Role]bool{
	RoleReceiver: true,
}

// Permitted returns the actions the role may perform on a request in the
// given state. The slice is empty when the role has nothing to do there.
func Permitted(role Role, state State) []Action {
	states, ok := rolePolicy[role]
	if !ok {
		return nil
	}
	return append([]Action(nil), states[state]...)
}

// Allows reports whether the role may perform the action from the state.
func Allows(role Role, state State, action Action) bool {
	for _, a := range Permitted(role, state) {
		if a == action {
			return true
		}
	}
	return false
}

// CanCreate reports whether the role may register new requests.
func CanCreate(role Role) bool {
	return creationRoles[role]
}
