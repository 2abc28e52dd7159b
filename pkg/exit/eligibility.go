package exit

import (
	"fmt"
	"time"

	"github.com/prysmaticlabs/prysm/v5/config/params"
	"github.com/prysmaticlabs/prysm/v5/consensus-types/primitives"

	"github.com/ethpandaops/validator-exit/pkg/beacon"
)

// VerdictKind classifies a validator's exit eligibility.
type VerdictKind int

const (
	// VerdictUnknown means the chain has not yet published an activation
	// epoch, so eligibility cannot be computed.
	VerdictUnknown VerdictKind = iota
	// VerdictEligible means the validator has served the minimum active
	// period and may exit now.
	VerdictEligible
	// VerdictNotEligible means the minimum active period has not elapsed yet.
	VerdictNotEligible
)

// Verdict is the result of an eligibility evaluation. EligibleAt and Wait are
// only set for VerdictNotEligible; Wait is a wall-clock estimate for operator
// display and must never gate the exit decision itself.
type Verdict struct {
	Kind       VerdictKind
	EligibleAt primitives.Epoch
	Wait       time.Duration
}

// Evaluate computes exit eligibility for a validator at the given epoch.
// A validator becomes eligible the moment the minimum active period has
// elapsed: currentEpoch == activationEpoch + minPeriod is already eligible.
func Evaluate(v *beacon.Validator, currentEpoch primitives.Epoch) Verdict {
	if !v.HasActivationEpoch() {
		return Verdict{Kind: VerdictUnknown}
	}

	cfg := params.BeaconConfig()

	eligibleAt := v.ActivationEpoch + primitives.Epoch(cfg.ShardCommitteePeriod)
	if currentEpoch >= eligibleAt {
		return Verdict{Kind: VerdictEligible}
	}

	remaining := uint64(eligibleAt - currentEpoch)
	wait := time.Duration(remaining*uint64(cfg.SlotsPerEpoch)*cfg.SecondsPerSlot) * time.Second

	return Verdict{
		Kind:       VerdictNotEligible,
		EligibleAt: eligibleAt,
		Wait:       wait,
	}
}

// FormatWait renders a wait estimate as hours and minutes for display.
func FormatWait(wait time.Duration) string {
	hours := int(wait.Hours())
	minutes := int(wait.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}

	return fmt.Sprintf("%dm", minutes)
}
