package exit

import (
	"fmt"

	"github.com/prysmaticlabs/prysm/v5/consensus-types/primitives"

	"github.com/ethpandaops/validator-exit/pkg/beacon"
)

// shortPubkey abbreviates a pubkey for display and log lines.
func shortPubkey(pubkey string) string {
	normalized := beacon.NormalizePubkey(pubkey)
	if len(normalized) <= 16 {
		return "0x" + normalized
	}

	return "0x" + normalized[:8] + "..." + normalized[len(normalized)-6:]
}

// describeValidator renders one validator's chain state and eligibility for
// the pre-confirmation display.
func describeValidator(v *beacon.Validator, found bool, currentEpoch primitives.Epoch) string {
	if !found {
		return "status: unknown to the chain (not deposited yet?)"
	}

	withdrawal := "Not set"
	if addr, ok := v.WithdrawalAddress(); ok {
		withdrawal = addr.Hex()
	}

	var eligibility string

	switch verdict := Evaluate(v, currentEpoch); verdict.Kind {
	case VerdictEligible:
		eligibility = "eligible to exit now"
	case VerdictNotEligible:
		eligibility = fmt.Sprintf("eligible at epoch %d (in about %s)", verdict.EligibleAt, FormatWait(verdict.Wait))
	case VerdictUnknown:
		eligibility = "cannot determine (activation epoch not known yet)"
	}

	return fmt.Sprintf("status: %s | balance: %.4f ETH | withdrawal address: %s | %s",
		v.State.String(), float64(v.BalanceGwei)/1e9, withdrawal, eligibility)
}

// printSummary writes the aggregate batch report plus the post-exit timeline.
func (o *Orchestrator) printSummary(summary *Summary) {
	fmt.Fprintf(o.Out, "\nExit batch complete: %d succeeded, %d failed, %d skipped.\n",
		summary.Succeeded, summary.Failed, summary.Skipped)

	for _, outcome := range summary.Outcomes {
		switch outcome.Result {
		case ResultSucceeded:
			fmt.Fprintf(o.Out, "  %s: exit broadcast\n", shortPubkey(outcome.Pubkey))
		case ResultFailed:
			fmt.Fprintf(o.Out, "  %s: failed (%v)\n", shortPubkey(outcome.Pubkey), outcome.Err)
		case ResultSkipped:
			if outcome.Reason == SkipNotYetEligible {
				fmt.Fprintf(o.Out, "  %s: skipped (%s, about %s remaining)\n",
					shortPubkey(outcome.Pubkey), outcome.Reason, FormatWait(outcome.Wait))
			} else {
				fmt.Fprintf(o.Out, "  %s: skipped (%s)\n", shortPubkey(outcome.Pubkey), outcome.Reason)
			}
		}
	}

	if summary.Succeeded > 0 {
		fmt.Fprintln(o.Out, `
What happens next:
  1. The exit joins the chain's exit queue; the validator keeps attesting
     until its assigned exit epoch.
  2. At the exit epoch the validator stops duties and its status moves to
     exited.
  3. After the withdrawability delay the stake becomes withdrawable.
  4. The next balance sweep moves the funds to the withdrawal address.

Keep the validator running until its exit epoch has passed.`)
	}
}
