package refengine

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/ports"
	"github.com/muun/cosigner/pkg/wallet"
)

// Adapter exposes Engine through the ports.Engine interface.
type Adapter struct {
	engine *Engine
}

// NewAdapter ...
func NewAdapter(net *chaincfg.Params) ports.Engine {
	return &Adapter{New(net)}
}

func (a *Adapter) DeriveAddress(
	version domain.AddressVersion, userKey, serviceKey *wallet.HDPublicKey,
) (*domain.MuunAddress, error) {
	if userKey == nil {
		return nil, fmt.Errorf("missing user key")
	}
	user, err := a.engine.ChildPublicKey(userKey.String(), nil)
	if err != nil {
		return nil, err
	}
	var service []byte
	if serviceKey != nil {
		if service, err = a.engine.ChildPublicKey(serviceKey.String(), nil); err != nil {
			return nil, err
		}
	}
	addr, err := a.engine.Address(int(version), user, service)
	if err != nil {
		return nil, err
	}
	return &domain.MuunAddress{
		Version:        version,
		DerivationPath: userKey.Path,
		Address:        addr,
	}, nil
}

func (a *Adapter) DerivePublicKey(
	key *wallet.HDPublicKey, path string,
) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("missing key")
	}
	indexes, err := relativeIndexes(key.Path, path)
	if err != nil {
		return nil, err
	}
	return a.engine.ChildPublicKey(key.String(), indexes)
}

func (a *Adapter) SigHash(
	pst *domain.PartiallySignedTransaction, index int,
	userKey, serviceKey *wallet.HDPublicKey,
) ([]byte, error) {
	coins, err := a.coins(pst, userKey, serviceKey)
	if err != nil {
		return nil, err
	}
	return a.engine.SignatureHash(pst.Tx, index, coins)
}

func (a *Adapter) Finalize(
	pst *domain.PartiallySignedTransaction,
	userKey, serviceKey *wallet.HDPublicKey,
) (*domain.Transaction, error) {
	coins, err := a.coins(pst, userKey, serviceKey)
	if err != nil {
		return nil, err
	}
	tx, err := a.engine.Assemble(pst.Tx, coins)
	if err != nil {
		return nil, err
	}
	return domain.NewTransaction(tx)
}

func (a *Adapter) coins(
	pst *domain.PartiallySignedTransaction,
	userKey, serviceKey *wallet.HDPublicKey,
) ([]Coin, error) {
	if pst == nil || pst.Tx == nil {
		return nil, domain.ErrNullTransaction
	}
	if userKey == nil || serviceKey == nil {
		return nil, fmt.Errorf("missing user or service key")
	}

	coins := make([]Coin, 0, len(pst.Inputs))
	for i, in := range pst.Inputs {
		user, err := a.DerivePublicKey(userKey, in.Address.DerivationPath)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		service, err := a.DerivePublicKey(serviceKey, in.Address.DerivationPath)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		coins = append(coins, Coin{
			Version:    int(in.Address.Version),
			Amount:     in.Amount,
			UserKey:    user,
			ServiceKey: service,
			UserSig:    in.UserSignature,
			ServiceSig: in.ServiceSignature,
		})
	}
	return coins, nil
}

func relativeIndexes(from, to string) ([]uint32, error) {
	fromPath, err := wallet.ParseDerivationPath(from)
	if err != nil {
		return nil, err
	}
	toPath, err := wallet.ParseDerivationPath(to)
	if err != nil {
		return nil, err
	}
	if !toPath.HasPrefix(fromPath) {
		return nil, fmt.Errorf("%w: %s from %s", wallet.ErrNotDescendant, to, from)
	}
	return toPath.IndexesFrom(fromPath), nil
}
