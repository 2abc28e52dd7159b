package exit

import (
	"testing"

	apiv1 "github.com/attestantio/go-eth2-client/api/v1"
	"github.com/stretchr/testify/assert"
)

func TestClassifyState(t *testing.T) {
	tests := []struct {
		state    apiv1.ValidatorState
		expected Action
	}{
		{apiv1.ValidatorStateActiveOngoing, ActionExit},
		{apiv1.ValidatorStateActiveSlashed, ActionExit},
		{apiv1.ValidatorStateActiveExiting, ActionSkipAlreadyExited},
		{apiv1.ValidatorStateExitedUnslashed, ActionSkipAlreadyExited},
		{apiv1.ValidatorStateExitedSlashed, ActionSkipAlreadyExited},
		{apiv1.ValidatorStateWithdrawalPossible, ActionSkipAlreadyExited},
		{apiv1.ValidatorStateWithdrawalDone, ActionSkipAlreadyExited},
		{apiv1.ValidatorStatePendingInitialized, ActionSkipNotActive},
		{apiv1.ValidatorStatePendingQueued, ActionSkipNotActive},
		{apiv1.ValidatorStateUnknown, ActionSkipNotActive},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyState(tt.state))
		})
	}
}
