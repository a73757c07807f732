package ports

import (
	"context"

	"github.com/muun/cosigner/internal/core/domain"
)

// NonceRepository keeps the user's secret MuSig2 nonces of a PST between
// nonce publication and signing. PopNonces deletes what it returns so a
// secret nonce can't be used twice.
type NonceRepository interface {
	AddNonces(ctx context.Context, pstID string, nonces []byte) error
	PopNonces(ctx context.Context, pstID string) ([]byte, error)
}

// RepoManager gives access to every repository backed by the same store.
type RepoManager interface {
	VaultRepository() domain.VaultRepository
	PSTRepository() domain.PSTRepository
	NonceRepository() NonceRepository
	Close()
}
