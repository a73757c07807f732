package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

var (
	// ErrNullNetwork ...
	ErrNullNetwork = errors.New("network params are null")
	// ErrNullSeed ...
	ErrNullSeed = errors.New("seed must not be null")
	// ErrNullPassphrase ...
	ErrNullPassphrase = errors.New("passphrase must not be null")
	// ErrNullPlainText ...
	ErrNullPlainText = errors.New("text to encrypt must not be null")
	// ErrNullCypherText ...
	ErrNullCypherText = errors.New("cypher to decrypt must not be null")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")

	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidCypherText ...
	ErrInvalidCypherText = errors.New("cypher must be in base64 format")
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New("malformed derivation path")
	// ErrNotDescendant is returned when deriving a key to a path that does not
	// extend the key's own path.
	ErrNotDescendant = errors.New("derivation path is not a descendant of the key path")
	// ErrPublicKeyExpected ...
	ErrPublicKeyExpected = errors.New("extended key must be public")
	// ErrPrivateKeyExpected ...
	ErrPrivateKeyExpected = errors.New("extended key must be private")
	// ErrWrongNetwork ...
	ErrWrongNetwork = errors.New("extended key belongs to another network")
	// ErrUnknownNetwork ...
	ErrUnknownNetwork = errors.New("unknown network")
)

// NetworkByName returns the chain params for the given network name.
func NetworkByName(name string) (*chaincfg.Params, error) {
	switch strings.ToLower(name) {
	case "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
	}
}
