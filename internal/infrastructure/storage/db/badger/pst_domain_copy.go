package dbbadger

import (
	"bytes"

	"github.com/btcsuite/btcd/wire"
	"github.com/muun/cosigner/internal/core/domain"
)

// PST is the storage representation of a domain.PartiallySignedTransaction.
// The transaction is kept serialized with witnesses.
type PST struct {
	ID     string
	Tx     []byte
	Inputs []Input
}

// Input ...
type Input struct {
	TxID               [32]byte
	Index              uint32
	Amount             int64
	Version            int
	DerivationPath     string
	Address            string
	UserSignature      []byte
	ServiceSignature   []byte
	UserPublicNonce    []byte
	ServicePublicNonce []byte
}

func toPST(pst *domain.PartiallySignedTransaction) (*PST, error) {
	var buf bytes.Buffer
	if err := pst.Tx.Serialize(&buf); err != nil {
		return nil, err
	}

	inputs := make([]Input, 0, len(pst.Inputs))
	for _, in := range pst.Inputs {
		inputs = append(inputs, Input{
			TxID:               in.TxID,
			Index:              in.Index,
			Amount:             in.Amount,
			Version:            int(in.Address.Version),
			DerivationPath:     in.Address.DerivationPath,
			Address:            in.Address.Address,
			UserSignature:      in.UserSignature,
			ServiceSignature:   in.ServiceSignature,
			UserPublicNonce:    in.UserPublicNonce,
			ServicePublicNonce: in.ServicePublicNonce,
		})
	}
	return &PST{ID: pst.ID, Tx: buf.Bytes(), Inputs: inputs}, nil
}

func (p *PST) toDomain() (*domain.PartiallySignedTransaction, error) {
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(p.Tx)); err != nil {
		return nil, err
	}

	inputs := make([]*domain.Input, 0, len(p.Inputs))
	for _, in := range p.Inputs {
		inputs = append(inputs, &domain.Input{
			Outpoint: domain.Outpoint{
				TxID:   in.TxID,
				Index:  in.Index,
				Amount: in.Amount,
			},
			Address: domain.MuunAddress{
				Version:        domain.AddressVersion(in.Version),
				DerivationPath: in.DerivationPath,
				Address:        in.Address,
			},
			UserSignature:      in.UserSignature,
			ServiceSignature:   in.ServiceSignature,
			UserPublicNonce:    in.UserPublicNonce,
			ServicePublicNonce: in.ServicePublicNonce,
		})
	}
	return &domain.PartiallySignedTransaction{ID: p.ID, Tx: tx, Inputs: inputs}, nil
}
