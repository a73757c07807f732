// Package cosigning drives PSTs from creation to broadcast: every signature
// is preceded by a check of the transaction against the signing
// expectations.
package cosigning

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/ports"
	"github.com/muun/cosigner/internal/core/scheme"
	"github.com/muun/cosigner/internal/core/signer"
	"github.com/muun/cosigner/pkg/wallet"
	log "github.com/sirupsen/logrus"
)

// ErrBroadcasterNotConfigured ...
var ErrBroadcasterNotConfigured = errors.New("broadcaster is not configured")

// Auditor re-checks a finalized transaction against its expectations
// without failing.
type Auditor interface {
	AuditExpectations(
		pst *domain.PartiallySignedTransaction, exp domain.SigningExpectations,
		userKey, serviceKey *wallet.HDPublicKey,
	)
}

// Service ...
type Service struct {
	repo        ports.RepoManager
	custody     ports.KeyCustody
	engine      ports.Engine
	coordinator *signer.Coordinator
	verifier    *signer.Verifier
	broadcaster ports.Broadcaster
	auditor     Auditor
}

// NewService ...
func NewService(
	repo ports.RepoManager, custody ports.KeyCustody, engine ports.Engine,
	coordinator *signer.Coordinator, verifier *signer.Verifier,
	broadcaster ports.Broadcaster, auditor Auditor,
) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if custody == nil {
		return nil, fmt.Errorf("missing key custody")
	}
	if engine == nil || coordinator == nil || verifier == nil {
		return nil, fmt.Errorf("missing signing engine")
	}
	return &Service{
		repo:        repo,
		custody:     custody,
		engine:      engine,
		coordinator: coordinator,
		verifier:    verifier,
		broadcaster: broadcaster,
		auditor:     auditor,
	}, nil
}

// DeriveAddress returns the address of the given version at path.
func (s *Service) DeriveAddress(
	ctx context.Context, version domain.AddressVersion, path string,
) (*domain.MuunAddress, error) {
	userKey, serviceKey, err := s.publicKeys(ctx)
	if err != nil {
		return nil, err
	}
	userKey, err = userKey.DeriveTo(path)
	if err != nil {
		return nil, err
	}
	serviceKey, err = serviceKey.DeriveTo(path)
	if err != nil {
		return nil, err
	}
	return s.engine.DeriveAddress(version, userKey, serviceKey)
}

// AddPST stores a new PST and returns its id.
func (s *Service) AddPST(
	ctx context.Context, pst *domain.PartiallySignedTransaction,
) (string, error) {
	if pst == nil {
		return "", domain.ErrNullTransaction
	}
	if err := pst.Validate(); err != nil {
		return "", err
	}
	if pst.ID == "" {
		pst.ID = uuid.New().String()
	}
	if err := s.repo.PSTRepository().AddPST(ctx, pst); err != nil {
		return "", err
	}
	return pst.ID, nil
}

// GetPST ...
func (s *Service) GetPST(
	ctx context.Context, id string,
) (*domain.PartiallySignedTransaction, error) {
	return s.repo.PSTRepository().GetPST(ctx, id)
}

// PrepareNonces publishes the user's MuSig2 public nonces on the PST and
// keeps the secret ones until the user signs.
func (s *Service) PrepareNonces(ctx context.Context, id string) error {
	userKey, err := s.custody.PublicKey(ctx, domain.PartyUser)
	if err != nil {
		return err
	}

	var nonces *scheme.MusigNonces
	if err := s.repo.PSTRepository().UpdatePST(
		ctx, id, func(
			pst *domain.PartiallySignedTransaction,
		) (*domain.PartiallySignedTransaction, error) {
			n, err := s.coordinator.PrepareNonces(pst, userKey, rand.Reader)
			if err != nil {
				return nil, err
			}
			nonces = n
			return pst, nil
		},
	); err != nil {
		return err
	}

	return s.repo.NonceRepository().AddNonces(ctx, id, nonces.Serialize())
}

// VerifyPST checks the PST against exp.
func (s *Service) VerifyPST(
	ctx context.Context, id string, exp domain.SigningExpectations,
) error {
	pst, err := s.GetPST(ctx, id)
	if err != nil {
		return err
	}
	userKey, serviceKey, err := s.publicKeys(ctx)
	if err != nil {
		return err
	}
	return s.verifier.Verify(pst, exp, userKey, serviceKey)
}

// SignPST verifies the PST against exp and, only if it matches, adds the
// party signatures. The party key must be unlocked. The user's secret nonces
// are consumed even if signing fails.
func (s *Service) SignPST(
	ctx context.Context, id string, party domain.Party,
	exp domain.SigningExpectations,
) error {
	userKey, serviceKey, err := s.publicKeys(ctx)
	if err != nil {
		return err
	}
	privateKey, err := s.custody.PrivateKey(ctx, party)
	if err != nil {
		return err
	}

	return s.repo.PSTRepository().UpdatePST(
		ctx, id, func(
			pst *domain.PartiallySignedTransaction,
		) (*domain.PartiallySignedTransaction, error) {
			if err := s.verifier.Verify(pst, exp, userKey, serviceKey); err != nil {
				return nil, err
			}

			keys := signer.SigningKeys{
				Private:    privateKey,
				UserKey:    userKey,
				ServiceKey: serviceKey,
				Digests:    s.engine,
			}
			if party == domain.PartyUser && hasMusigInputs(pst) {
				nonces, err := s.popNonces(ctx, id)
				if err != nil {
					return nil, err
				}
				keys.Nonces = nonces
			}

			if err := s.coordinator.AddPartySignatures(pst, party, keys); err != nil {
				return nil, err
			}
			log.Infof("pst %s signed by %s, state %s", id, party, pst.State())
			return pst, nil
		},
	)
}

// FinalizePST serializes a completely signed PST. When exp is given the
// result is audited against it.
func (s *Service) FinalizePST(
	ctx context.Context, id string, exp *domain.SigningExpectations,
) (*domain.Transaction, error) {
	pst, err := s.GetPST(ctx, id)
	if err != nil {
		return nil, err
	}
	userKey, serviceKey, err := s.publicKeys(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.engine.Finalize(pst, userKey, serviceKey)
	if err != nil {
		return nil, err
	}
	if exp != nil && s.auditor != nil {
		s.auditor.AuditExpectations(pst, *exp, userKey, serviceKey)
	}
	return tx, nil
}

// BroadcastPST finalizes the PST and publishes it.
func (s *Service) BroadcastPST(
	ctx context.Context, id string, exp *domain.SigningExpectations,
) (string, error) {
	if s.broadcaster == nil {
		return "", ErrBroadcasterNotConfigured
	}
	tx, err := s.FinalizePST(ctx, id, exp)
	if err != nil {
		return "", err
	}
	return s.broadcaster.Broadcast(ctx, hex.EncodeToString(tx.Bytes))
}

func (s *Service) publicKeys(
	ctx context.Context,
) (*wallet.HDPublicKey, *wallet.HDPublicKey, error) {
	userKey, err := s.custody.PublicKey(ctx, domain.PartyUser)
	if err != nil {
		return nil, nil, fmt.Errorf("user key: %w", err)
	}
	serviceKey, err := s.custody.PublicKey(ctx, domain.PartyService)
	if err != nil {
		return nil, nil, fmt.Errorf("service key: %w", err)
	}
	return userKey, serviceKey, nil
}

func (s *Service) popNonces(ctx context.Context, id string) (*scheme.MusigNonces, error) {
	raw, err := s.repo.NonceRepository().PopNonces(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingNonce, err)
	}
	return scheme.DeserializeMusigNonces(raw)
}

func hasMusigInputs(pst *domain.PartiallySignedTransaction) bool {
	for _, in := range pst.Inputs {
		if in.Address.Version == domain.AddressVersionV5 {
			return true
		}
	}
	return false
}
