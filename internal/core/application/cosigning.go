package application

import (
	"context"

	"github.com/muun/cosigner/internal/core/application/cosigning"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/ports"
	"github.com/muun/cosigner/internal/core/signer"
)

type CosigningService interface {
	DeriveAddress(
		ctx context.Context, version domain.AddressVersion, path string,
	) (*domain.MuunAddress, error)
	AddPST(
		ctx context.Context, pst *domain.PartiallySignedTransaction,
	) (string, error)
	GetPST(
		ctx context.Context, id string,
	) (*domain.PartiallySignedTransaction, error)
	PrepareNonces(ctx context.Context, id string) error
	VerifyPST(ctx context.Context, id string, exp domain.SigningExpectations) error
	SignPST(
		ctx context.Context, id string, party domain.Party,
		exp domain.SigningExpectations,
	) error
	FinalizePST(
		ctx context.Context, id string, exp *domain.SigningExpectations,
	) (*domain.Transaction, error)
	BroadcastPST(
		ctx context.Context, id string, exp *domain.SigningExpectations,
	) (string, error)
}

func NewCosigningService(
	repo ports.RepoManager, custody ports.KeyCustody, engine ports.Engine,
	coordinator *signer.Coordinator, verifier *signer.Verifier,
	broadcaster ports.Broadcaster, auditor cosigning.Auditor,
) (CosigningService, error) {
	return cosigning.NewService(
		repo, custody, engine, coordinator, verifier, broadcaster, auditor,
	)
}
