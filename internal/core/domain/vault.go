package domain

import (
	"bytes"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/muun/cosigner/pkg/wallet"
)

// Vault keeps the encrypted extended private key of one party. The key in
// plain text is only available while the vault is unlocked and is never
// persisted.
type Vault struct {
	Party             Party
	Network           string
	EncryptedKey      string
	PassphraseHash    []byte
	ExtendedPublicKey string
	DerivationPath    string
	ScryptN           int

	key *wallet.HDPrivateKey
}

// NewVault encrypts the provided key with the passhrase and returns a new
// Vault initialized with the encrypted key and the hash of the passphrase.
// The Vault is locked by default.
func NewVault(
	party Party, network string, key *wallet.HDPrivateKey, passphrase string,
	scryptN int,
) (*Vault, error) {
	if key == nil || len(passphrase) <= 0 {
		return nil, ErrNullKeyOrPassphrase
	}
	if !party.IsValid() {
		return nil, ErrUnknownParty
	}
	if _, err := wallet.NetworkByName(network); err != nil {
		return nil, err
	}

	encryptedKey, err := wallet.Encrypt(wallet.EncryptOpts{
		PlainText:  []byte(key.String()),
		Passphrase: passphrase,
		ScryptN:    scryptN,
	})
	if err != nil {
		return nil, err
	}

	return &Vault{
		Party:             party,
		Network:           network,
		EncryptedKey:      encryptedKey,
		PassphraseHash:    btcutil.Hash160([]byte(passphrase)),
		ExtendedPublicKey: key.PublicKey().String(),
		DerivationPath:    key.Path,
		ScryptN:           scryptN,
	}, nil
}

// IsLocked ...
func (v *Vault) IsLocked() bool {
	return v.key == nil
}

// IsValidPassphrase ...
func (v *Vault) IsValidPassphrase(passphrase string) bool {
	return bytes.Equal(v.PassphraseHash, btcutil.Hash160([]byte(passphrase)))
}

// Unlock decrypts the key with the passphrase.
func (v *Vault) Unlock(passphrase string) error {
	if !v.IsLocked() {
		return nil
	}
	if !v.IsValidPassphrase(passphrase) {
		return ErrInvalidPassphrase
	}

	net, err := wallet.NetworkByName(v.Network)
	if err != nil {
		return err
	}
	plain, err := wallet.Decrypt(wallet.DecryptOpts{
		CypherText: v.EncryptedKey,
		Passphrase: passphrase,
		ScryptN:    v.ScryptN,
	})
	if err != nil {
		return err
	}
	key, err := wallet.NewHDPrivateKeyFromString(string(plain), v.DerivationPath, net)
	if err != nil {
		return err
	}
	v.key = key
	return nil
}

// Lock drops the key in plain text.
func (v *Vault) Lock() {
	v.key = nil
}

// ChangePassphrase re-encrypts the key. The vault must be locked.
func (v *Vault) ChangePassphrase(current, passphrase string) error {
	if !v.IsLocked() {
		return ErrMustBeLocked
	}
	if len(passphrase) <= 0 {
		return ErrNullKeyOrPassphrase
	}
	if err := v.Unlock(current); err != nil {
		return err
	}
	defer v.Lock()

	encryptedKey, err := wallet.Encrypt(wallet.EncryptOpts{
		PlainText:  []byte(v.key.String()),
		Passphrase: passphrase,
		ScryptN:    v.ScryptN,
	})
	if err != nil {
		return err
	}
	v.EncryptedKey = encryptedKey
	v.PassphraseHash = btcutil.Hash160([]byte(passphrase))
	return nil
}

// PrivateKey returns the key in plain text, the vault must be unlocked.
func (v *Vault) PrivateKey() (*wallet.HDPrivateKey, error) {
	if v.IsLocked() {
		return nil, ErrMustBeUnlocked
	}
	return v.key, nil
}

// PublicKey ...
func (v *Vault) PublicKey() (*wallet.HDPublicKey, error) {
	net, err := wallet.NetworkByName(v.Network)
	if err != nil {
		return nil, err
	}
	return wallet.NewHDPublicKeyFromString(
		v.ExtendedPublicKey, v.DerivationPath, net,
	)
}
