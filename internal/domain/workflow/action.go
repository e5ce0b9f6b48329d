package workflow

// Action represents an operation a role performs on a request, causing a
// state transition
type Action string

const (
	ActionCreate            Action = "CREATE"
	ActionSubmitAssessment  Action = "SUBMIT_ASSESSMENT"
	ActionAuthorize         Action = "AUTHORIZE"
	ActionReject            Action = "REJECT"
	ActionFulfill           Action = "FULFILL"
	ActionConfirmCollection Action = "CONFIRM_COLLECTION"
	ActionRequestAudit      Action = "REQUEST_AUDIT"
	ActionApproveAndClose   Action = "APPROVE_AND_CLOSE"
	ActionFailAudit         Action = "FAIL_AUDIT"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// Role identifies a party in the maintenance workflow
type Role string

const (
	RoleReceiver Role = "RECEIVER"
	RoleTech     Role = "TECH"
	RoleManager  Role = "MANAGER"
	RoleStore    Role = "STORE"
	RoleQA       Role = "QA"
)

var validRoles = map[Role]bool{
	RoleReceiver: true,
	RoleTech:     true,
	RoleManager:  true,
	RoleStore:    true,
	RoleQA:       true,
}

// IsValid returns true if the role is a known workflow role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}
