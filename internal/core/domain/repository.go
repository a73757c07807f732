package domain

import "context"

// VaultRepository persists one vault per party.
type VaultRepository interface {
	AddVault(ctx context.Context, vault *Vault) error
	GetVault(ctx context.Context, party Party) (*Vault, error)
	UpdateVault(
		ctx context.Context,
		party Party,
		updateFn func(v *Vault) (*Vault, error),
	) error
}

// PSTRepository persists partially signed transactions by id so that the
// two parties can sign them in different processes.
type PSTRepository interface {
	AddPST(ctx context.Context, pst *PartiallySignedTransaction) error
	GetPST(ctx context.Context, id string) (*PartiallySignedTransaction, error)
	UpdatePST(
		ctx context.Context,
		id string,
		updateFn func(
			p *PartiallySignedTransaction,
		) (*PartiallySignedTransaction, error),
	) error
}
