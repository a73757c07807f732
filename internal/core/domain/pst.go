package domain

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/google/uuid"
)

// PSTState makes the signing progress of a PST explicit.
type PSTState int

const (
	// StateUnsigned means no input carries any signature.
	StateUnsigned PSTState = iota
	// StatePartiallySigned means some but not all signatures are present.
	StatePartiallySigned
	// StateComplete means every input carries every required signature.
	StateComplete
)

func (s PSTState) String() string {
	switch s {
	case StateUnsigned:
		return "unsigned"
	case StatePartiallySigned:
		return "partially-signed"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// PartiallySignedTransaction is an unsigned transaction plus the ordered
// metadata of its inputs. It is owned by a single signing session and must
// not be mutated concurrently.
type PartiallySignedTransaction struct {
	ID     string
	Tx     *wire.MsgTx
	Inputs []*Input
}

// NewPartiallySignedTransaction validates that inputs describe tx's inputs
// one to one and in order.
func NewPartiallySignedTransaction(
	tx *wire.MsgTx, inputs []*Input,
) (*PartiallySignedTransaction, error) {
	pst := &PartiallySignedTransaction{
		ID:     uuid.New().String(),
		Tx:     tx,
		Inputs: inputs,
	}
	if err := pst.Validate(); err != nil {
		return nil, err
	}
	return pst, nil
}

// Validate ...
func (p *PartiallySignedTransaction) Validate() error {
	if p.Tx == nil {
		return ErrNullTransaction
	}
	if len(p.Tx.TxIn) == 0 || len(p.Tx.TxIn) != len(p.Inputs) {
		return fmt.Errorf(
			"%w: %d tx inputs, %d metadata entries",
			ErrInputsMismatch, len(p.Tx.TxIn), len(p.Inputs),
		)
	}
	for i, in := range p.Inputs {
		if in == nil {
			return fmt.Errorf("%w: input %d is null", ErrInputsMismatch, i)
		}
		if p.Tx.TxIn[i].PreviousOutPoint != in.WireOutPoint() {
			return fmt.Errorf(
				"%w: input %d spends %s, metadata refers to %s",
				ErrInputsMismatch, i, p.Tx.TxIn[i].PreviousOutPoint, in.Outpoint,
			)
		}
		if in.Amount <= 0 {
			return fmt.Errorf("input %d: %w", i, ErrInvalidAmount)
		}
		if err := in.Address.Validate(); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	return nil
}

// State ...
func (p *PartiallySignedTransaction) State() PSTState {
	complete, anySig := true, false
	for _, in := range p.Inputs {
		if !in.IsComplete() {
			complete = false
		}
		if in.HasSigned(PartyUser) || in.HasSigned(PartyService) {
			anySig = true
		}
	}
	switch {
	case complete:
		return StateComplete
	case anySig:
		return StatePartiallySigned
	default:
		return StateUnsigned
	}
}

// IsComplete ...
func (p *PartiallySignedTransaction) IsComplete() bool {
	return p.State() == StateComplete
}

// MissingSignatures maps input indexes to the parties that still need to
// sign them.
func (p *PartiallySignedTransaction) MissingSignatures() map[int][]Party {
	missing := make(map[int][]Party)
	for i, in := range p.Inputs {
		if m := in.MissingSignatures(); len(m) > 0 {
			missing[i] = m
		}
	}
	return missing
}

// InputsAmount ...
func (p *PartiallySignedTransaction) InputsAmount() int64 {
	var total int64
	for _, in := range p.Inputs {
		total += in.Amount
	}
	return total
}

// OutputsAmount ...
func (p *PartiallySignedTransaction) OutputsAmount() int64 {
	var total int64
	for _, out := range p.Tx.TxOut {
		total += out.Value
	}
	return total
}

// Fee ...
func (p *PartiallySignedTransaction) Fee() int64 {
	return p.InputsAmount() - p.OutputsAmount()
}

// PrevOuts returns the outputs spent by the transaction keyed by outpoint,
// given a function resolving each input to its output script.
func (p *PartiallySignedTransaction) PrevOuts(
	scriptFn func(in *Input) ([]byte, error),
) (map[wire.OutPoint]*wire.TxOut, error) {
	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(p.Inputs))
	for i, in := range p.Inputs {
		script, err := scriptFn(in)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		prevOuts[in.WireOutPoint()] = wire.NewTxOut(in.Amount, script)
	}
	return prevOuts, nil
}

// Transaction is a fully signed, serialized transaction.
type Transaction struct {
	Hash  string
	Bytes []byte
}

// NewTransaction serializes tx.
func NewTransaction(tx *wire.MsgTx) (*Transaction, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, err
	}
	return &Transaction{Hash: tx.TxHash().String(), Bytes: buf.Bytes()}, nil
}
