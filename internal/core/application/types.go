package application

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AddressJSON ...
type AddressJSON struct {
	Version        int    `json:"version"`
	DerivationPath string `json:"derivationPath"`
	Address        string `json:"address"`
}

// InputJSON ...
type InputJSON struct {
	TxID               string      `json:"txid"`
	Index              uint32      `json:"index"`
	Amount             int64       `json:"amount"`
	Address            AddressJSON `json:"address"`
	UserSignature      string      `json:"userSignature,omitempty"`
	ServiceSignature   string      `json:"serviceSignature,omitempty"`
	UserPublicNonce    string      `json:"userPublicNonce,omitempty"`
	ServicePublicNonce string      `json:"servicePublicNonce,omitempty"`
}

// PSTJSON is the portable form of a PST, so that the parties can sign it in
// different processes.
type PSTJSON struct {
	ID     string      `json:"id"`
	Tx     string      `json:"tx"`
	Inputs []InputJSON `json:"inputs"`
}

// ExpectationsJSON ...
type ExpectationsJSON struct {
	Destination string       `json:"destination"`
	Amount      int64        `json:"amount"`
	Change      *AddressJSON `json:"change,omitempty"`
	Fee         int64        `json:"fee"`
	Alternative bool         `json:"alternative,omitempty"`
}

// NewAddressJSON ...
func NewAddressJSON(a domain.MuunAddress) AddressJSON {
	return AddressJSON{
		Version:        int(a.Version),
		DerivationPath: a.DerivationPath,
		Address:        a.Address,
	}
}

// ToDomain ...
func (a AddressJSON) ToDomain() (*domain.MuunAddress, error) {
	addr := &domain.MuunAddress{
		Version:        domain.AddressVersion(a.Version),
		DerivationPath: a.DerivationPath,
		Address:        a.Address,
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}

// NewPSTJSON ...
func NewPSTJSON(pst *domain.PartiallySignedTransaction) (*PSTJSON, error) {
	if pst == nil {
		return nil, domain.ErrNullTransaction
	}
	var buf bytes.Buffer
	if err := pst.Tx.Serialize(&buf); err != nil {
		return nil, err
	}

	inputs := make([]InputJSON, 0, len(pst.Inputs))
	for _, in := range pst.Inputs {
		inputs = append(inputs, InputJSON{
			TxID:               in.TxID.String(),
			Index:              in.Index,
			Amount:             in.Amount,
			Address:            NewAddressJSON(in.Address),
			UserSignature:      hex.EncodeToString(in.UserSignature),
			ServiceSignature:   hex.EncodeToString(in.ServiceSignature),
			UserPublicNonce:    hex.EncodeToString(in.UserPublicNonce),
			ServicePublicNonce: hex.EncodeToString(in.ServicePublicNonce),
		})
	}
	return &PSTJSON{
		ID:     pst.ID,
		Tx:     hex.EncodeToString(buf.Bytes()),
		Inputs: inputs,
	}, nil
}

// ToDomain decodes and validates the PST.
func (p PSTJSON) ToDomain() (*domain.PartiallySignedTransaction, error) {
	rawTx, err := hex.DecodeString(p.Tx)
	if err != nil {
		return nil, fmt.Errorf("%w: tx must be in hex format", domain.ErrValidation)
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(rawTx)); err != nil {
		return nil, fmt.Errorf("%w: invalid tx: %s", domain.ErrValidation, err)
	}

	inputs := make([]*domain.Input, 0, len(p.Inputs))
	for i, in := range p.Inputs {
		input, err := in.toDomain()
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		inputs = append(inputs, input)
	}

	pst := &domain.PartiallySignedTransaction{ID: p.ID, Tx: tx, Inputs: inputs}
	if err := pst.Validate(); err != nil {
		return nil, err
	}
	return pst, nil
}

func (in InputJSON) toDomain() (*domain.Input, error) {
	txid, err := chainhash.NewHashFromStr(in.TxID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid txid: %s", domain.ErrValidation, err)
	}
	addr, err := in.Address.ToDomain()
	if err != nil {
		return nil, err
	}

	input := &domain.Input{
		Outpoint: domain.Outpoint{TxID: *txid, Index: in.Index, Amount: in.Amount},
		Address:  *addr,
	}
	fields := []struct {
		name  string
		value string
		dest  *[]byte
	}{
		{"user signature", in.UserSignature, &input.UserSignature},
		{"service signature", in.ServiceSignature, &input.ServiceSignature},
		{"user public nonce", in.UserPublicNonce, &input.UserPublicNonce},
		{"service public nonce", in.ServicePublicNonce, &input.ServicePublicNonce},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		b, err := hex.DecodeString(f.value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be in hex format", domain.ErrValidation, f.name)
		}
		*f.dest = b
	}
	return input, nil
}

// NewExpectationsJSON ...
func NewExpectationsJSON(e domain.SigningExpectations) ExpectationsJSON {
	exp := ExpectationsJSON{
		Destination: e.Destination,
		Amount:      e.Amount,
		Fee:         e.Fee,
		Alternative: e.Alternative,
	}
	if e.Change != nil {
		change := NewAddressJSON(*e.Change)
		exp.Change = &change
	}
	return exp
}

// ToDomain ...
func (e ExpectationsJSON) ToDomain() (*domain.SigningExpectations, error) {
	exp := &domain.SigningExpectations{
		Destination: e.Destination,
		Amount:      e.Amount,
		Fee:         e.Fee,
		Alternative: e.Alternative,
	}
	if e.Change != nil {
		change, err := e.Change.ToDomain()
		if err != nil {
			return nil, err
		}
		exp.Change = change
	}
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	return exp, nil
}

// FormatBTC renders an amount in satoshis as BTC with 8 decimals.
func FormatBTC(sats int64) string {
	return decimal.New(sats, -8).StringFixed(8)
}
