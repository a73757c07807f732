package dbbadger

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

type repoManager struct {
	keyStore *badgerhold.Store
	pstStore *badgerhold.Store

	vaultRepository domain.VaultRepository
	pstRepository   domain.PSTRepository
	nonceRepository ports.NonceRepository
}

// NewRepoManager opens (or creates if not exists) the badger stores under
// baseDbDir. Keys and nonces live in a dedicated store, separated from
// PSTs. An empty baseDbDir makes every store in-memory.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var keyDir, pstDir string
	if len(baseDbDir) > 0 {
		keyDir = filepath.Join(baseDbDir, "keys")
		pstDir = filepath.Join(baseDbDir, "pst")
	}

	keyStore, err := createDb(keyDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening key db: %w", err)
	}
	pstStore, err := createDb(pstDir, logger)
	if err != nil {
		keyStore.Close()
		return nil, fmt.Errorf("opening pst db: %w", err)
	}

	return &repoManager{
		keyStore:        keyStore,
		pstStore:        pstStore,
		vaultRepository: newVaultRepository(keyStore),
		pstRepository:   newPSTRepository(pstStore),
		nonceRepository: newNonceRepository(keyStore),
	}, nil
}

func (r *repoManager) VaultRepository() domain.VaultRepository {
	return r.vaultRepository
}

func (r *repoManager) PSTRepository() domain.PSTRepository {
	return r.pstRepository
}

func (r *repoManager) NonceRepository() ports.NonceRepository {
	return r.nonceRepository
}

func (r *repoManager) Close() {
	r.keyStore.Close()
	r.pstStore.Close()
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			for range ticker.C {
				if err := db.Badger().RunValueLogGC(0.5); err != nil &&
					err != badger.ErrNoRewrite {
					log.Error(err)
				}
			}
		}()
	}

	return db, nil
}
