package ports

import (
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/pkg/wallet"
)

// Engine derives addresses and keys, computes signature digests and
// finalizes transactions. User and service keys are extended public keys
// of the two parties; they are derived to the paths the operation needs.
type Engine interface {
	// DeriveAddress returns the address of the given version for user and
	// service keys already derived at the address path.
	DeriveAddress(
		version domain.AddressVersion, userKey, serviceKey *wallet.HDPublicKey,
	) (*domain.MuunAddress, error)
	// DerivePublicKey returns the compressed public key of key at path.
	DerivePublicKey(key *wallet.HDPublicKey, path string) ([]byte, error)
	// SigHash returns the digest input index of pst must be signed over.
	SigHash(
		pst *domain.PartiallySignedTransaction, index int,
		userKey, serviceKey *wallet.HDPublicKey,
	) ([]byte, error)
	// Finalize serializes a completely signed pst.
	Finalize(
		pst *domain.PartiallySignedTransaction,
		userKey, serviceKey *wallet.HDPublicKey,
	) (*domain.Transaction, error)
}
