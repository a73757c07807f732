// Package keys manages the encrypted keys of both parties and hands out
// their plain text version while unlocked.
package keys

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/ports"
	"github.com/muun/cosigner/pkg/wallet"
	log "github.com/sirupsen/logrus"
)

// BasePath is the path every party key is derived to from its master key.
// Address paths extend it.
const BasePath = "m/schema:1'/recovery:1'"

// Service implements ports.KeyCustody over the vault repository. Unlocked
// vaults only live in memory.
type Service struct {
	repo    ports.RepoManager
	network string
	params  *chaincfg.Params
	scryptN int

	lock     sync.RWMutex
	unlocked map[domain.Party]*domain.Vault
}

// NewService ...
func NewService(repo ports.RepoManager, network string, scryptN int) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	params, err := wallet.NetworkByName(network)
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:     repo,
		network:  network,
		params:   params,
		scryptN:  scryptN,
		unlocked: make(map[domain.Party]*domain.Vault),
	}, nil
}

// GenSeed returns a new 24 words mnemonic.
func (s *Service) GenSeed(ctx context.Context) ([]string, error) {
	return wallet.NewMnemonic(wallet.NewMnemonicOpts{EntropySize: 256})
}

// InitKeys derives the party key from mnemonic and stores it encrypted with
// passphrase. It returns the extended public key at BasePath.
func (s *Service) InitKeys(
	ctx context.Context, party domain.Party, mnemonic []string, passphrase string,
) (string, error) {
	if !party.IsValid() {
		return "", domain.ErrUnknownParty
	}
	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return "", err
	}
	master, err := wallet.NewHDPrivateKey(seed, s.params)
	if err != nil {
		return "", err
	}
	key, err := master.DeriveTo(BasePath)
	if err != nil {
		return "", err
	}
	return s.ImportKey(ctx, party, key, passphrase)
}

// ImportKey stores an already derived party key, like one restored from a
// recovery container. The key must be bound to BasePath.
func (s *Service) ImportKey(
	ctx context.Context, party domain.Party, key *wallet.HDPrivateKey,
	passphrase string,
) (string, error) {
	if !party.IsValid() {
		return "", domain.ErrUnknownParty
	}
	if key == nil {
		return "", domain.ErrNullKeyOrPassphrase
	}
	if key.Path != BasePath {
		return "", fmt.Errorf("key must be bound to %s, got %s", BasePath, key.Path)
	}

	vault, err := domain.NewVault(party, s.network, key, passphrase, s.scryptN)
	if err != nil {
		return "", err
	}
	if err := s.repo.VaultRepository().AddVault(ctx, vault); err != nil {
		return "", err
	}

	log.Infof("%s key initialized", party)
	return vault.ExtendedPublicKey, nil
}

// Unlock decrypts the party key and keeps it in memory until Lock.
func (s *Service) Unlock(
	ctx context.Context, party domain.Party, passphrase string,
) error {
	vault, err := s.repo.VaultRepository().GetVault(ctx, party)
	if err != nil {
		return err
	}
	if err := vault.Unlock(passphrase); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.unlocked[party] = vault

	log.Debugf("%s key unlocked", party)
	return nil
}

// Lock ...
func (s *Service) Lock(ctx context.Context, party domain.Party) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if vault, ok := s.unlocked[party]; ok {
		vault.Lock()
		delete(s.unlocked, party)
	}
}

// ChangePassphrase re-encrypts the party key. The key must be locked.
func (s *Service) ChangePassphrase(
	ctx context.Context, party domain.Party, current, passphrase string,
) error {
	if !s.isLocked(party) {
		return domain.ErrMustBeLocked
	}
	return s.repo.VaultRepository().UpdateVault(
		ctx, party, func(v *domain.Vault) (*domain.Vault, error) {
			if err := v.ChangePassphrase(current, passphrase); err != nil {
				return nil, err
			}
			return v, nil
		},
	)
}

func (s *Service) PrivateKey(
	ctx context.Context, party domain.Party,
) (*wallet.HDPrivateKey, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	vault, ok := s.unlocked[party]
	if !ok {
		return nil, fmt.Errorf("%s: %w", party, domain.ErrMustBeUnlocked)
	}
	return vault.PrivateKey()
}

func (s *Service) PublicKey(
	ctx context.Context, party domain.Party,
) (*wallet.HDPublicKey, error) {
	vault, err := s.repo.VaultRepository().GetVault(ctx, party)
	if err != nil {
		return nil, err
	}
	return vault.PublicKey()
}

func (s *Service) isLocked(party domain.Party) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, ok := s.unlocked[party]
	return !ok
}
