package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/validator-exit/pkg/beacon"
	"github.com/ethpandaops/validator-exit/pkg/exit"
	"github.com/ethpandaops/validator-exit/pkg/keystore"
)

var (
	runBeaconURL    string
	runKeystoreDir  string
	runNetwork      string
	runNetworkDir   string
	runSelection    string
	runSelectionArg string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Discover managed validators and walk through exiting them",
	Long: `Discover locally managed validators, show which are currently permitted
to exit, let you pick a subset and broadcast voluntary exits for them.

Broadcasting a voluntary exit is irreversible. Every selected validator is
re-checked against live chain state immediately before its exit is sent, and
an exact typed confirmation is required before anything is broadcast.

Anything not supplied as a flag is asked for interactively.`,
	RunE: runExitWorkflow,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runBeaconURL, "beacon", "", "Beacon node endpoint URL (e.g. 'http://localhost:5052')")
	runCmd.Flags().StringVar(&runKeystoreDir, "keystores", "", "Keystore directory (contains validators/ and secrets/)")
	runCmd.Flags().StringVar(&runNetwork, "network", "mainnet", "Network name (mainnet, holesky, hoodi)")
	runCmd.Flags().StringVar(&runNetworkDir, "testnet-dir", "", "Custom network definition directory (optional)")
	runCmd.Flags().StringVar(&runSelection, "select", "", "Selection mode: 'all', 'index' or 'pubkey' (prompted if unset)")
	runCmd.Flags().StringVar(&runSelectionArg, "select-arg", "", "Selection input for index/pubkey modes")
}

func runExitWorkflow(cmd *cobra.Command, args []string) error {
	initCommon()

	for _, setLevel := range []func(string) error{beacon.SetLogLevel, keystore.SetLogLevel, exit.SetLogLevel} {
		if err := setLevel(logLevel); err != nil {
			return errors.Wrapf(err, "invalid log level: %s", logLevel)
		}
	}

	if err := exit.CheckDependencies(); err != nil {
		return err
	}

	if err := beacon.SetNetwork(runNetwork); err != nil {
		return err
	}

	in := bufio.NewReader(os.Stdin)
	out := cmd.OutOrStdout()

	client, err := connectBeacon(in, out)
	if err != nil {
		return err
	}

	store, identities, err := openKeystores(in, out)
	if err != nil {
		return err
	}

	selection, err := selectValidators(in, out, identities)
	if err != nil {
		return err
	}

	orchestrator := exit.NewOrchestrator(client, &exit.CLIBroadcaster{
		Store:      store,
		BeaconURL:  client.BaseURL(),
		NetworkDir: runNetworkDir,
	}, in, out)

	_, err = orchestrator.Run(selection)

	return err
}

// connectBeacon resolves a working beacon endpoint. An unreachable or
// syncing node is reported and the operator may try a different URL; this
// is the only retry point in the workflow.
func connectBeacon(in *bufio.Reader, out io.Writer) (*beacon.Client, error) {
	url := runBeaconURL

	for {
		if url == "" {
			url = prompt(in, out, "Beacon node URL [http://localhost:5052]: ")
			if url == "" {
				url = "http://localhost:5052"
			}
		}

		client := beacon.NewClient(url)

		err := client.Health()
		if err == nil {
			var syncing bool

			syncing, err = client.Syncing()
			if err == nil && syncing {
				err = errors.New("beacon node is still syncing")
			}
		}

		if err == nil {
			log.WithField("url", url).Info("Connected to beacon node")

			return client, nil
		}

		fmt.Fprintf(out, "Cannot use beacon node at %s: %v\n", url, err)

		if !promptYesNo(in, out, "Try a different URL?") {
			return nil, errors.Wrap(err, "no usable beacon node")
		}

		url = ""
	}
}

// openKeystores opens the keystore directory and enumerates managed
// validators. An empty directory is fatal: with no local identities there is
// nothing this tool can do.
func openKeystores(in *bufio.Reader, out io.Writer) (*keystore.Store, []string, error) {
	dir := runKeystoreDir
	if dir == "" {
		dir = prompt(in, out, "Keystore directory: ")
	}

	store := keystore.NewStore(dir)

	identities, err := store.ListIdentities()
	if err != nil {
		return nil, nil, err
	}

	if len(identities) == 0 {
		return nil, nil, errors.Errorf("no validator keystores found under %s", dir)
	}

	fmt.Fprintf(out, "\nFound %d managed validator(s):\n", len(identities))

	for i, pubkey := range identities {
		fmt.Fprintf(out, "  %d. 0x%s\n", i+1, pubkey)
	}

	return store, identities, nil
}

// selectValidators resolves the operator's selection into a work list.
// Invalid input repeats the selection step rather than failing the run.
func selectValidators(in *bufio.Reader, out io.Writer, identities []string) ([]string, error) {
	for {
		mode, input, err := selectionInput(in, out)
		if err != nil {
			if runSelection != "" {
				return nil, err
			}

			fmt.Fprintf(out, "%v\n", err)

			continue
		}

		selection, warnings, err := exit.ResolveSelection(mode, identities, input)

		for _, warning := range warnings {
			fmt.Fprintf(out, "Warning: %s\n", warning)
		}

		if err != nil {
			fmt.Fprintf(out, "Invalid selection: %v\n", err)

			// Non-interactive selection cannot be corrected by reprompting.
			if runSelection != "" {
				return nil, err
			}

			continue
		}

		return selection, nil
	}
}

func selectionInput(in *bufio.Reader, out io.Writer) (exit.SelectionMode, string, error) {
	mode := runSelection
	if mode == "" {
		mode = prompt(in, out, "\nExit (a)ll, by (i)ndex, or by explicit (p)ubkey? [a/i/p]: ")
	}

	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "a", "all":
		return exit.SelectAll, "", nil
	case "i", "index":
		input := runSelectionArg
		if input == "" {
			input = prompt(in, out, "Validator numbers (comma-separated, e.g. 1,3): ")
		}

		return exit.SelectByIndex, input, nil
	case "p", "pubkey":
		input := runSelectionArg
		if input == "" {
			input = prompt(in, out, "Validator public key: ")
		}

		return exit.SelectByPubkey, input, nil
	default:
		return exit.SelectAll, "", errors.Errorf("unknown selection mode: %s", mode)
	}
}

func prompt(in *bufio.Reader, out io.Writer, msg string) string {
	fmt.Fprint(out, msg)

	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}

	return strings.TrimSpace(line)
}

func promptYesNo(in *bufio.Reader, out io.Writer, msg string) bool {
	answer := prompt(in, out, msg+" [y/N]: ")

	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}
