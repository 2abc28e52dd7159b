package beacon

import (
	"encoding/hex"
	"strings"

	apiv1 "github.com/attestantio/go-eth2-client/api/v1"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prysmaticlabs/prysm/v5/config/params"
	"github.com/prysmaticlabs/prysm/v5/consensus-types/primitives"
)

// Validator is the on-chain view of a single validator at the current head.
type Validator struct {
	Pubkey                string
	Index                 primitives.ValidatorIndex
	State                 apiv1.ValidatorState
	BalanceGwei           uint64
	ActivationEpoch       primitives.Epoch
	WithdrawalCredentials []byte
}

// HasActivationEpoch reports whether the chain has assigned an activation
// epoch yet. Before activation the chain publishes the far-future sentinel.
func (v *Validator) HasActivationEpoch() bool {
	return v.ActivationEpoch != params.BeaconConfig().FarFutureEpoch
}

// WithdrawalAddress extracts the execution-layer payout address from
// 0x01-prefixed withdrawal credentials. BLS (0x00) credentials carry no
// derivable payout address.
func (v *Validator) WithdrawalAddress() (common.Address, bool) {
	if len(v.WithdrawalCredentials) != 32 || v.WithdrawalCredentials[0] != 0x01 {
		return common.Address{}, false
	}

	return common.BytesToAddress(v.WithdrawalCredentials[12:]), true
}

// parseState maps a beacon API status tag onto the closed state enumeration.
// Tags this build does not know about come back as ValidatorStateUnknown so
// new upstream states degrade to non-actionable instead of failing the run.
func parseState(status string) apiv1.ValidatorState {
	for st := apiv1.ValidatorStatePendingInitialized; st <= apiv1.ValidatorStateWithdrawalDone; st++ {
		if st.String() == status {
			return st
		}
	}

	return apiv1.ValidatorStateUnknown
}

// NormalizePubkey strips an optional 0x prefix and lowercases a validator
// public key so directory names and operator input compare equal.
func NormalizePubkey(pubkey string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(pubkey), "0x"))
}

// ValidPubkey reports whether the string is a well-formed 48-byte hex pubkey,
// with or without the 0x prefix.
func ValidPubkey(pubkey string) bool {
	raw, err := hex.DecodeString(NormalizePubkey(pubkey))
	if err != nil {
		return false
	}

	return len(raw) == 48
}
