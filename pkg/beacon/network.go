package beacon

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm/v5/config/params"
)

// SetNetwork configures the chain parameters for the given network name.
// Epoch arithmetic (slots per epoch, seconds per slot, the minimum active
// period) reads from the active config, so this must run before any
// eligibility computation.
func SetNetwork(network string) error {
	switch network {
	case "mainnet":
		params.OverrideBeaconConfig(params.MainnetConfig())
	case "holesky":
		params.OverrideBeaconConfig(params.HoleskyConfig())
	case "hoodi":
		params.OverrideBeaconConfig(params.HoodiConfig())
	default:
		return errors.Errorf("unknown network: %s", network)
	}

	return nil
}
