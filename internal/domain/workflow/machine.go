package workflow

import "fmt"

// Machine tracks a current state and validates transitions against its
// configured table.
type Machine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the action is permitted in the current state
	CanFire(action Action) bool

	// Fire executes the action, moving to the target state if allowed
	Fire(action Action) error

	// PermittedActions returns all actions that can fire in the current state
	PermittedActions() []Action
}

// Builder assembles a transition table and builds machine instances from it
type Builder interface {
	// Configure returns the configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates a machine positioned at the given initial state
	Build(initial State) Machine
}

// StateConfiguration declares the outgoing transitions of one state
type StateConfiguration interface {
	// Permit allows the action to transition to the target state
	Permit(action Action, to State) StateConfiguration
}

type stateConfig struct {
	transitions map[Action]State
}

type machineBuilder struct {
	configurations map[State]*stateConfig
}

type machine struct {
	current        State
	configurations map[State]*stateConfig
}

// NewBuilder creates an empty state machine builder
func NewBuilder() Builder {
	return &machineBuilder{configurations: make(map[State]*stateConfig)}
}

// NewLifecycle returns a builder preconfigured with the maintenance request
// transition table. Completed and Rejected are terminal and configure no
// outgoing transitions.
func NewLifecycle() Builder {
	b := NewBuilder()
	b.Configure(StatePendingAssessment).
		Permit(ActionSubmitAssessment, StateAwaitingApproval)
	b.Configure(StateReturnedToTech).
		Permit(ActionSubmitAssessment, StateAwaitingApproval)
	b.Configure(StateAwaitingApproval).
		Permit(ActionAuthorize, StateAwaitingStore).
		Permit(ActionReject, StateRejected)
	b.Configure(StateAwaitingStore).
		Permit(ActionFulfill, StateMaterialsReady)
	b.Configure(StateMaterialsReady).
		Permit(ActionConfirmCollection, StateInExecution)
	b.Configure(StateInExecution).
		Permit(ActionRequestAudit, StatePendingVerification)
	b.Configure(StatePendingVerification).
		Permit(ActionApproveAndClose, StateCompleted).
		Permit(ActionFailAudit, StateInExecution)
	return b
}

// Configure returns the configuration for the given state
func (b *machineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{transitions: make(map[Action]State)}
		b.configurations[state] = config
	}
	return config
}

// Build creates a machine positioned at the given initial state
func (b *machineBuilder) Build(initial State) Machine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}

	// Copy configurations so later builder changes cannot leak into
	// machines already handed out
	configs := make(map[State]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		transitions := make(map[Action]State, len(config.transitions))
		for action, to := range config.transitions {
			transitions[action] = to
		}
		configs[state] = &stateConfig{transitions: transitions}
	}

	return &machine{current: initial, configurations: configs}
}

// Permit allows the action to transition to the target state
func (c *stateConfig) Permit(action Action, to State) StateConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}
	c.transitions[action] = to
	return c
}

// State returns the current state
func (m *machine) State() State {
	return m.current
}

// CanFire returns true if the action is permitted in the current state
func (m *machine) CanFire(action Action) bool {
	config, exists := m.configurations[m.current]
	if !exists {
		return false
	}
	_, ok := config.transitions[action]
	return ok
}

// Fire executes the action, moving to the target state if allowed
func (m *machine) Fire(action Action) error {
	config, exists := m.configurations[m.current]
	if !exists {
		return fmt.Errorf("%w: cannot fire %s from terminal or unconfigured state %s",
			ErrInvalidTransition, action, m.current)
	}

	to, ok := config.transitions[action]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from state %s",
			ErrInvalidTransition, action, m.current)
	}

	m.current = to
	return nil
}

// PermittedActions returns all actions that can fire in the current state
func (m *machine) PermittedActions() []Action {
	config, exists := m.configurations[m.current]
	if !exists {
		return []Action{}
	}

	actions := make([]Action, 0, len(config.transitions))
	for action := range config.transitions {
		actions = append(actions, action)
	}
	return actions
}
