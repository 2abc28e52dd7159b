package exit

import (
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/ethpandaops/validator-exit/pkg/keystore"
)

type commander interface {
	CombinedOutput() ([]byte, error)
}

var execCommand = func(name string, args ...string) commander {
	return exec.Command(name, args...)
}

const exitToolBinary = "lighthouse"

// Broadcaster signs and submits one voluntary exit. Implementations expose
// only a success/failure signal; the signing internals stay external.
type Broadcaster interface {
	BroadcastExit(pubkey string) error
}

// CLIBroadcaster drives the external lighthouse account tooling against a
// staged copy of the validator's keystore material.
type CLIBroadcaster struct {
	Store      *keystore.Store
	BeaconURL  string
	NetworkDir string
}

// CheckDependencies verifies the external exit tooling is installed. Runs
// before any chain interaction so a missing binary aborts with nothing done.
func CheckDependencies() error {
	if _, err := exec.LookPath(exitToolBinary); err != nil {
		return errors.Errorf("required command '%s' not found. Please install it first.\nSee: https://lighthouse-book.sigmaprime.io/installation.html", exitToolBinary)
	}

	return nil
}

// BroadcastExit stages the validator's keystore and password into a scoped
// temporary copy, invokes the exit tooling against the beacon endpoint and
// removes the copy whatever the outcome.
func (b *CLIBroadcaster) BroadcastExit(pubkey string) error {
	staged, err := b.Store.Stage(pubkey)
	if err != nil {
		return err
	}

	defer staged.Release()

	args := []string{
		"account", "validator", "exit",
		"--keystore", staged.Keystore,
		"--password-file", staged.Password,
		"--beacon-node", b.BeaconURL,
		"--no-confirmation",
	}

	if b.NetworkDir != "" {
		args = append(args, "--testnet-dir", b.NetworkDir)
	}

	log.WithField("pubkey", pubkey).Debugf("Executing command: %s %s", exitToolBinary, strings.Join(args, " "))

	output, err := execCommand(exitToolBinary, args...).CombinedOutput()
	if err != nil {
		log.WithField("pubkey", pubkey).Errorf("Exit command failed: %v", err)
		log.Errorf("Command output: %s", string(output))

		return errors.Wrapf(err, "exit broadcast failed: %s", strings.TrimSpace(string(output)))
	}

	log.WithField("pubkey", pubkey).Debug("Exit command completed successfully")

	return nil
}
