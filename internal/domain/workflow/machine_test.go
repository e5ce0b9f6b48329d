package workflow

import (
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePendingAssessment, false},
		{StateReturnedToTech, false},
		{StateAwaitingApproval, false},
		{StateAwaitingStore, false},
		{StateMaterialsReady, false},
		{StateInExecution, false},
		{StatePendingVerification, false},
		{StateCompleted, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"valid state", StatePendingAssessment, true},
		{"valid terminal state", StateCompleted, true},
		{"unknown state", State("Archived"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("Archived"))
}

func TestLifecycle_HappyPath(t *testing.T) {
	steps := []struct {
		action Action
		want   State
	}{
		{ActionSubmitAssessment, StateAwaitingApproval},
		{ActionAuthorize, StateAwaitingStore},
		{ActionFulfill, StateMaterialsReady},
		{ActionConfirmCollection, StateInExecution},
		{ActionRequestAudit, StatePendingVerification},
		{ActionApproveAndClose, StateCompleted},
	}

	m := NewLifecycle().Build(StatePendingAssessment)
	for _, step := range steps {
		if err := m.Fire(step.action); err != nil {
			t.Fatalf("Fire(%s) from %s failed: %v", step.action, m.State(), err)
		}
		if m.State() != step.want {
			t.Fatalf("after %s: state = %s, want %s", step.action, m.State(), step.want)
		}
	}
}

func TestLifecycle_RejectPath(t *testing.T) {
	m := NewLifecycle().Build(StateAwaitingApproval)
	if err := m.Fire(ActionReject); err != nil {
		t.Fatalf("Fire(REJECT) failed: %v", err)
	}
	if m.State() != StateRejected {
		t.Fatalf("state = %s, want %s", m.State(), StateRejected)
	}
}

func TestLifecycle_ReworkLoop(t *testing.T) {
	m := NewLifecycle().Build(StatePendingVerification)
	if err := m.Fire(ActionFailAudit); err != nil {
		t.Fatalf("Fire(FAIL_AUDIT) failed: %v", err)
	}
	if m.State() != StateInExecution {
		t.Fatalf("state = %s, want %s", m.State(), StateInExecution)
	}

	// Rework can be resubmitted for verification
	if err := m.Fire(ActionRequestAudit); err != nil {
		t.Fatalf("Fire(REQUEST_AUDIT) after rework failed: %v", err)
	}
	if m.State() != StatePendingVerification {
		t.Fatalf("state = %s, want %s", m.State(), StatePendingVerification)
	}
}

func TestLifecycle_TerminalStatesHaveNoTransitions(t *testing.T) {
	allActions := []Action{
		ActionSubmitAssessment, ActionAuthorize, ActionReject, ActionFulfill,
		ActionConfirmCollection, ActionRequestAudit, ActionApproveAndClose,
		ActionFailAudit,
	}

	for _, terminal := range []State{StateCompleted, StateRejected} {
		for _, action := range allActions {
			m := NewLifecycle().Build(terminal)
			err := m.Fire(action)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Fire(%s) from %s: err = %v, want ErrInvalidTransition", action, terminal, err)
			}
			if m.State() != terminal {
				t.Errorf("state moved from terminal %s to %s", terminal, m.State())
			}
		}
	}
}

func TestLifecycle_InvalidTransitionLeavesStateUnchanged(t *testing.T) {
	m := NewLifecycle().Build(StatePendingAssessment)

	err := m.Fire(ActionFulfill)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if m.State() != StatePendingAssessment {
		t.Fatalf("state = %s, want %s", m.State(), StatePendingAssessment)
	}
}

func TestMachine_CanFire(t *testing.T) {
	m := NewLifecycle().Build(StateAwaitingApproval)

	if !m.CanFire(ActionAuthorize) {
		t.Error("CanFire(AUTHORIZE) = false, want true")
	}
	if !m.CanFire(ActionReject) {
		t.Error("CanFire(REJECT) = false, want true")
	}
	if m.CanFire(ActionFulfill) {
		t.Error("CanFire(FULFILL) = true, want false")
	}
}

func TestMachine_PermittedActions(t *testing.T) {
	m := NewLifecycle().Build(StatePendingVerification)

	actions := m.PermittedActions()
	if len(actions) != 2 {
		t.Fatalf("PermittedActions() = %v, want 2 actions", actions)
	}

	m = NewLifecycle().Build(StateCompleted)
	if got := m.PermittedActions(); len(got) != 0 {
		t.Fatalf("PermittedActions() from terminal state = %v, want none", got)
	}
}
