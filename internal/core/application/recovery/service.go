// Package recovery exports party keys into recovery containers that can only
// be opened with both the password and the recovery code, and restores them.
package recovery

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/muun/cosigner/internal/core/application/keys"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/ports"
	"github.com/muun/cosigner/pkg/recovery"
	"github.com/muun/cosigner/pkg/wallet"
	log "github.com/sirupsen/logrus"
)

const saltSize = 8

var (
	// ErrMissingCredentials ...
	ErrMissingCredentials = errors.New("password and recovery code must not be empty")
	// ErrInvalidSalt ...
	ErrInvalidSalt = fmt.Errorf("salt must be a %d bytes hex string", saltSize)
)

// KitEntry is what a user must keep to restore a key: the container plus
// the salt of the challenge keys.
type KitEntry struct {
	Container string
	Salt      string
}

// KeyImporter stores a restored party key.
type KeyImporter interface {
	ImportKey(
		ctx context.Context, party domain.Party, key *wallet.HDPrivateKey,
		passphrase string,
	) (string, error)
}

// Service ...
type Service struct {
	custody  ports.KeyCustody
	importer KeyImporter
	params   *chaincfg.Params
}

// NewService ...
func NewService(
	custody ports.KeyCustody, importer KeyImporter, network string,
) (*Service, error) {
	if custody == nil {
		return nil, fmt.Errorf("missing key custody")
	}
	params, err := wallet.NetworkByName(network)
	if err != nil {
		return nil, err
	}
	return &Service{custody, importer, params}, nil
}

// ExportKey encrypts the unlocked party key for the challenge keys of
// password and recoveryCode.
func (s *Service) ExportKey(
	ctx context.Context, party domain.Party, password, recoveryCode string,
) (*KitEntry, error) {
	key, err := s.custody.PrivateKey(ctx, party)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	privA, privB, err := challengeKeys(password, recoveryCode, salt)
	if err != nil {
		return nil, err
	}

	container, err := recovery.EncryptMasterKey(key, privA.PubKey(), privB.PubKey())
	if err != nil {
		return nil, err
	}

	log.Infof("%s key exported", party)
	return &KitEntry{
		Container: container.String(),
		Salt:      hex.EncodeToString(salt),
	}, nil
}

// RestoreKey decrypts the key of entry and binds it to the path it was
// exported at.
func (s *Service) RestoreKey(
	entry KitEntry, password, recoveryCode string,
) (*wallet.HDPrivateKey, error) {
	salt, err := hex.DecodeString(entry.Salt)
	if err != nil || len(salt) != saltSize {
		return nil, ErrInvalidSalt
	}
	container, err := recovery.ParseContainer(entry.Container)
	if err != nil {
		return nil, err
	}
	privA, privB, err := challengeKeys(password, recoveryCode, salt)
	if err != nil {
		return nil, err
	}

	key, err := recovery.DecryptMasterKey(container, privA, privB, s.params)
	if err != nil {
		return nil, err
	}
	return wallet.NewHDPrivateKeyFromString(key.String(), keys.BasePath, s.params)
}

// ImportKey restores the key of entry and stores it for party encrypted with
// passphrase. It returns the restored extended public key.
func (s *Service) ImportKey(
	ctx context.Context, party domain.Party, entry KitEntry,
	password, recoveryCode, passphrase string,
) (string, error) {
	if s.importer == nil {
		return "", fmt.Errorf("key import is not configured")
	}
	key, err := s.RestoreKey(entry, password, recoveryCode)
	if err != nil {
		return "", err
	}
	return s.importer.ImportKey(ctx, party, key, passphrase)
}

func challengeKeys(
	password, recoveryCode string, salt []byte,
) (*btcec.PrivateKey, *btcec.PrivateKey, error) {
	if password == "" || recoveryCode == "" {
		return nil, nil, ErrMissingCredentials
	}
	privA, err := recovery.NewChallengeKey([]byte(password), salt)
	if err != nil {
		return nil, nil, err
	}
	privB, err := recovery.NewChallengeKey([]byte(recoveryCode), salt)
	if err != nil {
		return nil, nil, err
	}
	return privA, privB, nil
}
