package exit

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/prysmaticlabs/prysm/v5/consensus-types/primitives"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/validator-exit/pkg/beacon"
)

// ConfirmationPhrase must be typed exactly before any exit is broadcast.
// A default or empty input never satisfies the gate.
const ConfirmationPhrase = "exit my validators"

// DefaultItemDelay spaces out consecutive broadcasts so a batch does not
// hammer the beacon node's submission endpoint.
const DefaultItemDelay = 2 * time.Second

// StateReader provides the live chain state the workflow re-checks before
// every irreversible step. *beacon.Client satisfies it.
type StateReader interface {
	CurrentEpoch() (primitives.Epoch, error)
	Validator(pubkey string) (*beacon.Validator, bool, error)
}

// Result is the terminal category of one validator's workflow run.
type Result int

const (
	// ResultSucceeded means the exit was broadcast.
	ResultSucceeded Result = iota
	// ResultFailed means the broadcast or a per-item query failed.
	ResultFailed
	// ResultSkipped means the validator was not actionable.
	ResultSkipped
)

// SkipReason says why a validator was skipped.
type SkipReason int

const (
	// SkipAlreadyExited covers exiting, exited and withdrawal states.
	SkipAlreadyExited SkipReason = iota
	// SkipNotActive covers pending, unknown and not-found validators.
	SkipNotActive
	// SkipNotYetEligible means the minimum active period has not elapsed.
	SkipNotYetEligible
)

func (r SkipReason) String() string {
	switch r {
	case SkipAlreadyExited:
		return "already exited"
	case SkipNotActive:
		return "not active"
	case SkipNotYetEligible:
		return "not yet eligible"
	default:
		return "unknown"
	}
}

// Outcome is the per-validator result of a workflow run.
type Outcome struct {
	Pubkey string
	Result Result
	Reason SkipReason
	Err    error
	Wait   time.Duration
}

// Summary aggregates a whole batch. Succeeded+Failed+Skipped always equals
// the number of selected validators.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Outcomes  []Outcome
}

// Orchestrator drives the end-to-end exit workflow: display, confirmation
// gate, then one validator at a time against live chain state.
type Orchestrator struct {
	Chain       StateReader
	Broadcaster Broadcaster
	In          io.Reader
	Out         io.Writer
	ItemDelay   time.Duration
}

// NewOrchestrator creates an Orchestrator with the default inter-item delay.
func NewOrchestrator(chain StateReader, broadcaster Broadcaster, in io.Reader, out io.Writer) *Orchestrator {
	return &Orchestrator{
		Chain:       chain,
		Broadcaster: broadcaster,
		In:          in,
		Out:         out,
		ItemDelay:   DefaultItemDelay,
	}
}

// Run executes the batch workflow over the selected validators. It returns
// (nil, nil) when the batch was aborted before any broadcast: either nothing
// was eligible, or the operator did not type the confirmation phrase. The
// batch never stops early on a per-validator failure; chain state can change
// while the operator deliberates, so every validator is re-checked right
// before its own broadcast.
func (o *Orchestrator) Run(selection []string) (*Summary, error) {
	currentEpoch, err := o.Chain.CurrentEpoch()
	if err != nil {
		return nil, err
	}

	eligibleCount, err := o.displaySelection(selection, currentEpoch)
	if err != nil {
		return nil, err
	}

	if eligibleCount == 0 {
		fmt.Fprintln(o.Out, "\nNo selected validator is currently eligible to exit. Nothing to do.")

		return nil, nil
	}

	if !o.confirm(eligibleCount) {
		fmt.Fprintln(o.Out, "Aborted. No exits were broadcast.")

		return nil, nil
	}

	summary := &Summary{Outcomes: make([]Outcome, 0, len(selection))}

	for i, pubkey := range selection {
		outcome := o.processOne(pubkey)
		summary.Outcomes = append(summary.Outcomes, outcome)

		switch outcome.Result {
		case ResultSucceeded:
			summary.Succeeded++
		case ResultFailed:
			summary.Failed++
		case ResultSkipped:
			summary.Skipped++
		}

		if i < len(selection)-1 && o.ItemDelay > 0 {
			time.Sleep(o.ItemDelay)
		}
	}

	o.printSummary(summary)

	return summary, nil
}

// displaySelection shows every selected validator's current state and
// eligibility, and returns how many are actionable right now. Validators
// with an unknown activation epoch show as "cannot determine" and do not
// count towards the total.
func (o *Orchestrator) displaySelection(selection []string, currentEpoch primitives.Epoch) (int, error) {
	fmt.Fprintf(o.Out, "\nSelected validators (current epoch %d):\n", currentEpoch)

	eligible := 0

	for i, pubkey := range selection {
		v, found, err := o.Chain.Validator(pubkey)
		if err != nil {
			return 0, err
		}

		fmt.Fprintf(o.Out, "  %d. %s\n     %s\n", i+1, shortPubkey(pubkey), describeValidator(v, found, currentEpoch))

		if found && ClassifyState(v.State) == ActionExit && Evaluate(v, currentEpoch).Kind == VerdictEligible {
			eligible++
		}
	}

	return eligible, nil
}

// confirm requires the operator to type the exact confirmation phrase.
func (o *Orchestrator) confirm(eligibleCount int) bool {
	fmt.Fprintf(o.Out, "\nAbout to broadcast voluntary exits for %d validator(s). This is irreversible.\n", eligibleCount)
	fmt.Fprintf(o.Out, "Type %q to continue: ", ConfirmationPhrase)

	scanner := bufio.NewScanner(o.In)
	if !scanner.Scan() {
		return false
	}

	return scanner.Text() == ConfirmationPhrase
}

// processOne runs the full per-validator sequence: re-fetch state, classify,
// re-evaluate eligibility at the epoch of this very moment, then broadcast.
func (o *Orchestrator) processOne(pubkey string) Outcome {
	itemLog := log.WithField("pubkey", shortPubkey(pubkey))

	v, found, err := o.Chain.Validator(pubkey)
	if err != nil {
		itemLog.WithError(err).Error("Failed to fetch validator state")

		return Outcome{Pubkey: pubkey, Result: ResultFailed, Err: err}
	}

	if !found {
		itemLog.Info("Validator unknown to the chain, skipping")

		return Outcome{Pubkey: pubkey, Result: ResultSkipped, Reason: SkipNotActive}
	}

	switch ClassifyState(v.State) {
	case ActionSkipAlreadyExited:
		itemLog.WithField("status", v.State.String()).Info("Validator already exited, skipping")

		return Outcome{Pubkey: pubkey, Result: ResultSkipped, Reason: SkipAlreadyExited}
	case ActionSkipNotActive:
		itemLog.WithField("status", v.State.String()).Info("Validator not active, skipping")

		return Outcome{Pubkey: pubkey, Result: ResultSkipped, Reason: SkipNotActive}
	case ActionExit:
	}

	currentEpoch, err := o.Chain.CurrentEpoch()
	if err != nil {
		itemLog.WithError(err).Error("Failed to fetch current epoch")

		return Outcome{Pubkey: pubkey, Result: ResultFailed, Err: err}
	}

	// An Unknown verdict is allowed through: the chain may simply be slow
	// to index the activation epoch, and the node rejects a premature exit
	// itself.
	if verdict := Evaluate(v, currentEpoch); verdict.Kind == VerdictNotEligible {
		itemLog.WithFields(logrus.Fields{
			"eligible_at": verdict.EligibleAt,
			"wait":        FormatWait(verdict.Wait),
		}).Info("Validator not yet eligible, skipping")

		return Outcome{Pubkey: pubkey, Result: ResultSkipped, Reason: SkipNotYetEligible, Wait: verdict.Wait}
	}

	if err := o.Broadcaster.BroadcastExit(pubkey); err != nil {
		itemLog.WithError(err).Error("Exit broadcast failed")

		return Outcome{Pubkey: pubkey, Result: ResultFailed, Err: err}
	}

	itemLog.Info("Voluntary exit broadcast")

	return Outcome{Pubkey: pubkey, Result: ResultSucceeded}
}
