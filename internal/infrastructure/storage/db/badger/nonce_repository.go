package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/muun/cosigner/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

type nonces struct {
	PSTID  string
	Nonces []byte
}

type nonceRepository struct {
	store *badgerhold.Store
}

func newNonceRepository(store *badgerhold.Store) ports.NonceRepository {
	return &nonceRepository{store}
}

func (r *nonceRepository) AddNonces(
	ctx context.Context, pstID string, secretNonces []byte,
) error {
	return r.store.Upsert(nonceKey(pstID), &nonces{pstID, secretNonces})
}

// PopNonces reads and deletes the nonces in the same transaction.
func (r *nonceRepository) PopNonces(ctx context.Context, pstID string) ([]byte, error) {
	var n nonces
	err := r.store.Badger().Update(func(tx *badger.Txn) error {
		if err := r.store.TxGet(tx, nonceKey(pstID), &n); err != nil {
			return err
		}
		return r.store.TxDelete(tx, nonceKey(pstID), &nonces{})
	})
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, ErrNoncesNotFound
		}
		return nil, err
	}
	return n.Nonces, nil
}

func nonceKey(pstID string) string {
	return "nonces/" + pstID
}
