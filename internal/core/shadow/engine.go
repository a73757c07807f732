// Package shadow runs a reference engine next to the primary one and
// reports every difference between the two without ever altering the
// primary results.
package shadow

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/ports"
	"github.com/muun/cosigner/pkg/wallet"
)

// Operations as reported to the observer.
const (
	OpDeriveAddress     = "DeriveAddress"
	OpDerivePublicKey   = "DerivePublicKey"
	OpSigHash           = "SigHash"
	OpFinalize          = "Finalize"
	OpAuditExpectations = "AuditExpectations"
)

// Auditor checks a transaction against the expectations it was signed for.
type Auditor interface {
	Verify(
		pst *domain.PartiallySignedTransaction, exp domain.SigningExpectations,
		userKey, serviceKey *wallet.HDPublicKey,
	) error
}

// Option ...
type Option func(*Engine)

// WithAuditor enables AuditExpectations.
func WithAuditor(a Auditor) Option {
	return func(e *Engine) {
		e.auditor = a
	}
}

// Engine implements ports.Engine by delegating to primary. Every successful
// primary call is replayed on reference and the results compared.
type Engine struct {
	primary   ports.Engine
	reference ports.Engine
	observer  ports.Observer
	auditor   Auditor
}

// NewEngine ...
func NewEngine(
	primary, reference ports.Engine, observer ports.Observer, opts ...Option,
) (*Engine, error) {
	if primary == nil {
		return nil, fmt.Errorf("missing primary engine")
	}
	if reference == nil {
		return nil, fmt.Errorf("missing reference engine")
	}
	if observer == nil {
		return nil, fmt.Errorf("missing observer")
	}
	e := &Engine{primary: primary, reference: reference, observer: observer}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) DeriveAddress(
	version domain.AddressVersion, userKey, serviceKey *wallet.HDPublicKey,
) (*domain.MuunAddress, error) {
	addr, err := e.primary.DeriveAddress(version, userKey, serviceKey)
	if err != nil {
		return nil, err
	}

	e.compare(OpDeriveAddress, func() (string, error) {
		ref, err := e.reference.DeriveAddress(version, userKey, serviceKey)
		if err != nil {
			return "", err
		}
		return ref.Address, nil
	}, addr.Address)
	return addr, nil
}

func (e *Engine) DerivePublicKey(
	key *wallet.HDPublicKey, path string,
) ([]byte, error) {
	pub, err := e.primary.DerivePublicKey(key, path)
	if err != nil {
		return nil, err
	}

	e.compare(OpDerivePublicKey, func() (string, error) {
		ref, err := e.reference.DerivePublicKey(key, path)
		return hex.EncodeToString(ref), err
	}, hex.EncodeToString(pub))
	return pub, nil
}

func (e *Engine) SigHash(
	pst *domain.PartiallySignedTransaction, index int,
	userKey, serviceKey *wallet.HDPublicKey,
) ([]byte, error) {
	digest, err := e.primary.SigHash(pst, index, userKey, serviceKey)
	if err != nil {
		return nil, err
	}

	e.compare(OpSigHash, func() (string, error) {
		ref, err := e.reference.SigHash(pst, index, userKey, serviceKey)
		return hex.EncodeToString(ref), err
	}, hex.EncodeToString(digest))
	return digest, nil
}

// Finalize compares transaction hashes, and full serializations when no
// input is a MuSig2 spend.
func (e *Engine) Finalize(
	pst *domain.PartiallySignedTransaction,
	userKey, serviceKey *wallet.HDPublicKey,
) (*domain.Transaction, error) {
	tx, err := e.primary.Finalize(pst, userKey, serviceKey)
	if err != nil {
		return nil, err
	}

	compareBytes := !hasTaprootInputs(pst)
	e.run(OpFinalize, func() error {
		ref, err := e.reference.Finalize(pst, userKey, serviceKey)
		if err != nil {
			return err
		}
		if ref.Hash != tx.Hash {
			e.observer.ReportDivergence(domain.Divergence{
				Operation: OpFinalize,
				Expected:  ref.Hash,
				Actual:    tx.Hash,
			})
			return nil
		}
		if compareBytes && !bytes.Equal(ref.Bytes, tx.Bytes) {
			e.observer.ReportDivergence(domain.Divergence{
				Operation: OpFinalize,
				Expected:  hex.EncodeToString(ref.Bytes),
				Actual:    hex.EncodeToString(tx.Bytes),
			})
		}
		return nil
	})
	return tx, nil
}

// AuditExpectations verifies pst against exp and reports a divergence on
// failure. It never returns an error.
func (e *Engine) AuditExpectations(
	pst *domain.PartiallySignedTransaction, exp domain.SigningExpectations,
	userKey, serviceKey *wallet.HDPublicKey,
) {
	if e.auditor == nil {
		return
	}
	e.run(OpAuditExpectations, func() error {
		if err := e.auditor.Verify(pst, exp, userKey, serviceKey); err != nil {
			e.observer.ReportDivergence(domain.Divergence{
				Operation: OpAuditExpectations,
				Expected:  "transaction matching expectations",
				Actual:    err.Error(),
			})
		}
		return nil
	})
}

func (e *Engine) compare(op string, refFn func() (string, error), actual string) {
	e.run(op, func() error {
		expected, err := refFn()
		if err != nil {
			return err
		}
		if expected != actual {
			e.observer.ReportDivergence(domain.Divergence{
				Operation: op,
				Expected:  expected,
				Actual:    actual,
			})
		}
		return nil
	})
}

// run executes fn reporting its error or panic to the observer.
func (e *Engine) run(op string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.observer.ReportError(op, fmt.Errorf("reference engine panicked: %v", r))
		}
	}()
	if err := fn(); err != nil {
		e.observer.ReportError(op, err)
	}
}

func hasTaprootInputs(pst *domain.PartiallySignedTransaction) bool {
	for _, in := range pst.Inputs {
		if in.Address.Version == domain.AddressVersionV5 {
			return true
		}
	}
	return false
}
