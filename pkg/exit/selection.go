package exit

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ethpandaops/validator-exit/pkg/beacon"
)

// ErrEmptySelection marks a selection that resolved to zero validators.
var ErrEmptySelection = errors.New("selection resolved to no validators")

// SelectionMode says how the operator picked validators to exit.
type SelectionMode int

const (
	// SelectAll selects every managed validator.
	SelectAll SelectionMode = iota
	// SelectByIndex selects 1-based positions in the displayed list.
	SelectByIndex
	// SelectByPubkey selects one explicit public key, which does not have
	// to be present in the local keystore directory.
	SelectByPubkey
)

// ResolveSelection turns operator input into a concrete ordered work list of
// validator public keys. Out-of-range positions in index mode are reported
// as warnings and dropped rather than failing the whole selection.
func ResolveSelection(mode SelectionMode, identities []string, input string) ([]string, []string, error) {
	switch mode {
	case SelectAll:
		if len(identities) == 0 {
			return nil, nil, ErrEmptySelection
		}

		selected := make([]string, len(identities))
		copy(selected, identities)

		return selected, nil, nil

	case SelectByIndex:
		return resolveByIndex(identities, input)

	case SelectByPubkey:
		pubkey := beacon.NormalizePubkey(input)
		if pubkey == "" {
			return nil, nil, ErrEmptySelection
		}

		if !beacon.ValidPubkey(pubkey) {
			return nil, nil, errors.Errorf("invalid validator public key: %s", input)
		}

		return []string{pubkey}, nil, nil

	default:
		return nil, nil, errors.Errorf("unknown selection mode: %d", mode)
	}
}

// resolveByIndex parses a comma-separated list of 1-based positions into the
// identities slice. Each invalid entry produces its own warning; the valid
// remainder still resolves in the operator's given order.
func resolveByIndex(identities []string, input string) ([]string, []string, error) {
	var (
		selected []string
		warnings []string
	)

	for _, field := range strings.Split(input, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		pos, err := strconv.Atoi(field)
		if err != nil {
			warnings = append(warnings, "invalid number: "+field)

			continue
		}

		if pos < 1 || pos > len(identities) {
			warnings = append(warnings, "number out of range: "+field)

			continue
		}

		selected = append(selected, identities[pos-1])
	}

	if len(selected) == 0 {
		return nil, warnings, ErrEmptySelection
	}

	return selected, warnings, nil
}
