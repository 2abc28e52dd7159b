package keystore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/ethpandaops/validator-exit/pkg/beacon"
)

const (
	validatorsDirName = "validators"
	secretsDirName    = "secrets"
	keystoreFileName  = "voting-keystore.json"
)

// Store reads validator signing material laid out as
//
//	<root>/validators/<pubkey>/voting-keystore.json
//	<root>/secrets/<pubkey>
//
// one subdirectory per managed identity, password files keyed by the same
// identity string.
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// ListIdentities enumerates the locally managed validator public keys in
// directory-listing order. The order carries no meaning but stays stable
// within one invocation so index-based selection lines up with the display.
// An empty store yields an empty slice, not an error.
func (s *Store) ListIdentities() ([]string, error) {
	validatorsDir := filepath.Join(s.root, validatorsDirName)

	entries, err := os.ReadDir(validatorsDir)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("path", validatorsDir).Debug("No validators directory present")

			return []string{}, nil
		}

		return nil, errors.Wrapf(err, "failed to read validators directory: %s", validatorsDir)
	}

	identities := make([]string, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !beacon.ValidPubkey(name) {
			log.WithField("entry", name).Debug("Skipping non-pubkey directory entry")

			continue
		}

		if _, err := os.Stat(filepath.Join(validatorsDir, name, keystoreFileName)); err != nil {
			log.WithField("entry", name).Warn("Validator directory has no keystore file, skipping")

			continue
		}

		identities = append(identities, beacon.NormalizePubkey(name))
	}

	log.WithField("count", len(identities)).Debug("Enumerated managed validators")

	return identities, nil
}

// KeystorePath returns the signing keystore path for one identity.
func (s *Store) KeystorePath(pubkey string) string {
	return filepath.Join(s.root, validatorsDirName, dirNameFor(s.root, pubkey), keystoreFileName)
}

// PasswordPath returns the keystore password file path for one identity.
func (s *Store) PasswordPath(pubkey string) string {
	return filepath.Join(s.root, secretsDirName, dirNameFor(s.root, pubkey))
}

// dirNameFor resolves the on-disk directory name for a pubkey. Stores written
// by different tooling disagree on the 0x prefix, so probe both spellings.
func dirNameFor(root, pubkey string) string {
	normalized := beacon.NormalizePubkey(pubkey)
	prefixed := "0x" + normalized

	if _, err := os.Stat(filepath.Join(root, validatorsDirName, prefixed)); err == nil {
		return prefixed
	}

	return normalized
}

// Staged is a scoped working copy of one validator's keystore and password,
// handed to the external exit tooling. Release removes the copy on every
// exit path regardless of the tooling's outcome.
type Staged struct {
	Keystore string
	Password string
	dir      string
}

// Release deletes the staged working copy.
func (st *Staged) Release() {
	if st.dir == "" {
		return
	}

	if err := os.RemoveAll(st.dir); err != nil {
		log.WithError(err).WithField("dir", st.dir).Warn("Failed to remove staged keystore copy")
	}

	st.dir = ""
}

// Stage copies one identity's keystore and password file into a private
// temporary directory. A missing keystore or password fails only this
// identity, never the whole run.
func (s *Store) Stage(pubkey string) (*Staged, error) {
	keystoreSrc := s.KeystorePath(pubkey)
	passwordSrc := s.PasswordPath(pubkey)

	if _, err := os.Stat(keystoreSrc); err != nil {
		return nil, errors.Wrapf(err, "missing keystore for validator %s", pubkey)
	}

	if _, err := os.Stat(passwordSrc); err != nil {
		return nil, errors.Wrapf(err, "missing password file for validator %s", pubkey)
	}

	tmpDir, err := os.MkdirTemp("", "validator-exit-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create staging directory")
	}

	staged := &Staged{
		Keystore: filepath.Join(tmpDir, keystoreFileName),
		Password: filepath.Join(tmpDir, "password.txt"),
		dir:      tmpDir,
	}

	if err := copyFile(keystoreSrc, staged.Keystore, 0o600); err != nil {
		staged.Release()

		return nil, errors.Wrapf(err, "failed to stage keystore for validator %s", pubkey)
	}

	if err := copyFile(passwordSrc, staged.Password, 0o600); err != nil {
		staged.Release()

		return nil, errors.Wrapf(err, "failed to stage password for validator %s", pubkey)
	}

	log.WithField("pubkey", strings.TrimPrefix(pubkey, "0x")).Debug("Staged keystore material")

	return staged, nil
}

// copyFile copies a file from source to destination with the given mode.
func copyFile(src, dst string, mode os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, mode)
}
