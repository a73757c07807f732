package ports

import (
	"context"

	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/pkg/wallet"
)

// KeyCustody hands out the private key of a party on demand. Callers derive
// the key to the paths they need and never persist it.
type KeyCustody interface {
	PrivateKey(ctx context.Context, party domain.Party) (*wallet.HDPrivateKey, error)
	PublicKey(ctx context.Context, party domain.Party) (*wallet.HDPublicKey, error)
}
