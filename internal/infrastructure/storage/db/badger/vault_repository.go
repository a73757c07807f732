package dbbadger

import (
	"context"

	"github.com/muun/cosigner/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type vaultRepository struct {
	store *badgerhold.Store
}

func newVaultRepository(store *badgerhold.Store) domain.VaultRepository {
	return &vaultRepository{store}
}

func (r *vaultRepository) AddVault(ctx context.Context, vault *domain.Vault) error {
	if err := r.store.Insert(vaultKey(vault.Party), vault); err != nil {
		if err == badgerhold.ErrKeyExists {
			return ErrVaultAlreadyExists
		}
		return err
	}
	return nil
}

func (r *vaultRepository) GetVault(
	ctx context.Context, party domain.Party,
) (*domain.Vault, error) {
	var vault domain.Vault
	if err := r.store.Get(vaultKey(party), &vault); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, ErrVaultNotFound
		}
		return nil, err
	}
	return &vault, nil
}

func (r *vaultRepository) UpdateVault(
	ctx context.Context, party domain.Party,
	updateFn func(v *domain.Vault) (*domain.Vault, error),
) error {
	vault, err := r.GetVault(ctx, party)
	if err != nil {
		return err
	}

	updatedVault, err := updateFn(vault)
	if err != nil {
		return err
	}

	return r.store.Update(vaultKey(party), updatedVault)
}

func vaultKey(party domain.Party) string {
	return "vault/" + party.String()
}
