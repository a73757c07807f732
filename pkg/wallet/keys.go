package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// HDPrivateKey is an extended private key bound to the absolute derivation
// path it was derived at.
type HDPrivateKey struct {
	key     *hdkeychain.ExtendedKey
	Network *chaincfg.Params
	Path    string
}

// HDPublicKey is the public counterpart of HDPrivateKey.
type HDPublicKey struct {
	key     *hdkeychain.ExtendedKey
	Network *chaincfg.Params
	Path    string
}

// NewHDPrivateKey returns the master key for the given seed.
func NewHDPrivateKey(seed []byte, network *chaincfg.Params) (*HDPrivateKey, error) {
	if len(seed) <= 0 {
		return nil, ErrNullSeed
	}
	if network == nil {
		return nil, ErrNullNetwork
	}
	key, err := hdkeychain.NewMaster(seed, network)
	if err != nil {
		return nil, err
	}
	return &HDPrivateKey{key: key, Network: network, Path: "m"}, nil
}

// NewHDPrivateKeyFromBytes builds a master key out of a raw 32 byte private
// key and its chain code.
func NewHDPrivateKeyFromBytes(
	rawKey, chainCode []byte, network *chaincfg.Params,
) (*HDPrivateKey, error) {
	if network == nil {
		return nil, ErrNullNetwork
	}
	if len(rawKey) != 32 || len(chainCode) != 32 {
		return nil, fmt.Errorf(
			"raw key and chain code must be 32 bytes long, got %d and %d",
			len(rawKey), len(chainCode),
		)
	}
	parentFP := []byte{0, 0, 0, 0}
	key := hdkeychain.NewExtendedKey(
		network.HDPrivateKeyID[:], rawKey, chainCode, parentFP, 0, 0, true,
	)
	if _, err := key.ECPrivKey(); err != nil {
		return nil, err
	}
	return &HDPrivateKey{key: key, Network: network, Path: "m"}, nil
}

// NewHDPrivateKeyFromString parses a base58 xprv and binds it to path.
func NewHDPrivateKeyFromString(
	str, path string, network *chaincfg.Params,
) (*HDPrivateKey, error) {
	key, err := parseExtendedKey(str, path, network)
	if err != nil {
		return nil, err
	}
	if !key.IsPrivate() {
		return nil, ErrPrivateKeyExpected
	}
	return &HDPrivateKey{key: key, Network: network, Path: path}, nil
}

// NewHDPublicKeyFromString parses a base58 xpub and binds it to path.
func NewHDPublicKeyFromString(
	str, path string, network *chaincfg.Params,
) (*HDPublicKey, error) {
	key, err := parseExtendedKey(str, path, network)
	if err != nil {
		return nil, err
	}
	if key.IsPrivate() {
		return nil, ErrPublicKeyExpected
	}
	return &HDPublicKey{key: key, Network: network, Path: path}, nil
}

// PublicKey returns the neutered key at the same path.
func (p *HDPrivateKey) PublicKey() *HDPublicKey {
	key, err := p.key.Neuter()
	if err != nil {
		// Neuter only fails for unknown network versions, which the
		// constructors already rule out.
		panic(fmt.Sprintf("neuter private key: %s", err))
	}
	return &HDPublicKey{key: key, Network: p.Network, Path: p.Path}
}

// String returns the base58 serialization of the key.
func (p *HDPrivateKey) String() string {
	return p.key.String()
}

// ECPrivateKey returns the raw secp256k1 private key.
func (p *HDPrivateKey) ECPrivateKey() (*btcec.PrivateKey, error) {
	return p.key.ECPrivKey()
}

// ChainCode ...
func (p *HDPrivateKey) ChainCode() []byte {
	return p.key.ChainCode()
}

// DeriveTo derives the key at the absolute path, which must extend the key's
// own path.
func (p *HDPrivateKey) DeriveTo(path string) (*HDPrivateKey, error) {
	key, err := deriveTo(p.key, p.Path, path)
	if err != nil {
		return nil, err
	}
	return &HDPrivateKey{key: key, Network: p.Network, Path: path}, nil
}

// String returns the base58 serialization of the key.
func (p *HDPublicKey) String() string {
	return p.key.String()
}

// ECPublicKey returns the raw secp256k1 public key.
func (p *HDPublicKey) ECPublicKey() (*btcec.PublicKey, error) {
	return p.key.ECPubKey()
}

// Raw returns the compressed serialization of the public key.
func (p *HDPublicKey) Raw() []byte {
	pub, err := p.key.ECPubKey()
	if err != nil {
		return nil
	}
	return pub.SerializeCompressed()
}

// DeriveTo derives the key at the absolute path, which must extend the key's
// own path with non hardened steps only.
func (p *HDPublicKey) DeriveTo(path string) (*HDPublicKey, error) {
	key, err := deriveTo(p.key, p.Path, path)
	if err != nil {
		return nil, err
	}
	return &HDPublicKey{key: key, Network: p.Network, Path: path}, nil
}

func parseExtendedKey(
	str, path string, network *chaincfg.Params,
) (*hdkeychain.ExtendedKey, error) {
	if network == nil {
		return nil, ErrNullNetwork
	}
	if _, err := ParseDerivationPath(path); err != nil {
		return nil, err
	}
	key, err := hdkeychain.NewKeyFromString(str)
	if err != nil {
		return nil, err
	}
	if !key.IsForNet(network) {
		return nil, ErrWrongNetwork
	}
	return key, nil
}

func deriveTo(
	key *hdkeychain.ExtendedKey, fromPath, toPath string,
) (*hdkeychain.ExtendedKey, error) {
	from, err := ParseDerivationPath(fromPath)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse derivation path %s: %w", fromPath, err)
	}
	to, err := ParseDerivationPath(toPath)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse derivation path %s: %w", toPath, err)
	}
	if !to.HasPrefix(from) {
		return nil, fmt.Errorf("%w: %s from %s", ErrNotDescendant, toPath, fromPath)
	}

	for depth, index := range to.IndexesFrom(from) {
		key, err = key.Derive(index)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to derive key at path %s on depth %d: %w", toPath, depth, err,
			)
		}
	}
	return key, nil
}
