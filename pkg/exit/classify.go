package exit

import (
	apiv1 "github.com/attestantio/go-eth2-client/api/v1"
)

// Action says what the orchestrator may do with a validator in a given
// lifecycle state.
type Action int

const (
	// ActionExit means a voluntary exit may be initiated.
	ActionExit Action = iota
	// ActionSkipAlreadyExited means the validator has already left, or is
	// already on its way out.
	ActionSkipAlreadyExited
	// ActionSkipNotActive means the validator never reached the active set,
	// or its state cannot be determined.
	ActionSkipNotActive
)

// ClassifyState maps every lifecycle state onto an action. The state machine
// only moves forward, so anything at or past active_exiting counts as already
// exited. Unrecognized states are non-actionable.
func ClassifyState(state apiv1.ValidatorState) Action {
	switch state {
	case apiv1.ValidatorStateActiveOngoing, apiv1.ValidatorStateActiveSlashed:
		return ActionExit
	case apiv1.ValidatorStateActiveExiting,
		apiv1.ValidatorStateExitedUnslashed,
		apiv1.ValidatorStateExitedSlashed,
		apiv1.ValidatorStateWithdrawalPossible,
		apiv1.ValidatorStateWithdrawalDone:
		return ActionSkipAlreadyExited
	case apiv1.ValidatorStatePendingInitialized, apiv1.ValidatorStatePendingQueued:
		return ActionSkipNotActive
	default:
		return ActionSkipNotActive
	}
}
