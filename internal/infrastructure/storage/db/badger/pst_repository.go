package dbbadger

import (
	"context"

	"github.com/muun/cosigner/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type pstRepository struct {
	store *badgerhold.Store
}

func newPSTRepository(store *badgerhold.Store) domain.PSTRepository {
	return &pstRepository{store}
}

func (r *pstRepository) AddPST(
	ctx context.Context, pst *domain.PartiallySignedTransaction,
) error {
	if pst == nil || pst.Tx == nil {
		return ErrNullPST
	}
	p, err := toPST(pst)
	if err != nil {
		return err
	}

	if err := r.store.Insert(pst.ID, p); err != nil {
		if err == badgerhold.ErrKeyExists {
			return ErrPSTAlreadyExists
		}
		return err
	}
	return nil
}

func (r *pstRepository) GetPST(
	ctx context.Context, id string,
) (*domain.PartiallySignedTransaction, error) {
	var p PST
	if err := r.store.Get(id, &p); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, ErrPSTNotFound
		}
		return nil, err
	}
	return p.toDomain()
}

func (r *pstRepository) UpdatePST(
	ctx context.Context, id string,
	updateFn func(
		p *domain.PartiallySignedTransaction,
	) (*domain.PartiallySignedTransaction, error),
) error {
	pst, err := r.GetPST(ctx, id)
	if err != nil {
		return err
	}

	updatedPST, err := updateFn(pst)
	if err != nil {
		return err
	}

	p, err := toPST(updatedPST)
	if err != nil {
		return err
	}
	return r.store.Update(id, p)
}
