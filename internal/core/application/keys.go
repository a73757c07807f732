package application

import (
	"context"

	"github.com/muun/cosigner/internal/core/application/keys"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/ports"
	"github.com/muun/cosigner/pkg/wallet"
)

type KeyService interface {
	ports.KeyCustody
	GenSeed(ctx context.Context) ([]string, error)
	InitKeys(
		ctx context.Context, party domain.Party, mnemonic []string,
		passphrase string,
	) (string, error)
	ImportKey(
		ctx context.Context, party domain.Party, key *wallet.HDPrivateKey,
		passphrase string,
	) (string, error)
	Unlock(ctx context.Context, party domain.Party, passphrase string) error
	Lock(ctx context.Context, party domain.Party)
	ChangePassphrase(
		ctx context.Context, party domain.Party, current, passphrase string,
	) error
}

func NewKeyService(
	repo ports.RepoManager, network string, scryptN int,
) (KeyService, error) {
	return keys.NewService(repo, network, scryptN)
}
