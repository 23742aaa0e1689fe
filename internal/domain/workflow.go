package domain

// WorkflowState is a state of the print workflow state machine.
type WorkflowState string

// Workflow states. Aborted and Faulted are terminal for an attempt.
const (
	StateIdle        WorkflowState = "idle"
	StateLoading     WorkflowState = "loading"
	StateReady       WorkflowState = "ready"
	StateValidating  WorkflowState = "validating"
	StateEncoding    WorkflowState = "encoding"
	StatePersisting  WorkflowState = "persisting"
	StateAdvancing   WorkflowState = "advancing"
	StateDispatching WorkflowState = "dispatching"
	StateCompleted   WorkflowState = "completed"
	StateAborted     WorkflowState = "aborted"
	StateFaulted     WorkflowState = "faulted"
)

// InFlight reports whether the state belongs to a running print attempt.
func (s WorkflowState) InFlight() bool {
	switch s {
	case StateValidating, StateEncoding, StatePersisting, StateAdvancing, StateDispatching:
		return true
	default:
		return false
	}
}

// AcceptsPrint reports whether a new print attempt may start from this state.
// Aborted behaves like Ready: the operator fixes the input and tries again.
func (s WorkflowState) AcceptsPrint() bool {
	return s == StateReady || s == StateAborted
}
