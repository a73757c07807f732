package scheme

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr/musig2"
	"github.com/muun/cosigner/internal/core/domain"
)

const nonceEntrySize = 1 + musig2.SecNonceSize + musig2.PubNonceSize

// MusigNonces holds the user's secret MuSig2 nonces for the inputs of one
// PST, indexed by input. Entries for non MuSig2 inputs are nil. Secret nonces
// must be used for a single signature.
type MusigNonces struct {
	nonces []*musig2.Nonces
}

// GenerateNonces draws a fresh nonce pair for every input whose user key is
// not nil.
func GenerateNonces(userKeys []*btcec.PublicKey, rand io.Reader) (*MusigNonces, error) {
	nonces := make([]*musig2.Nonces, len(userKeys))
	for i, key := range userKeys {
		if key == nil {
			continue
		}
		opts := []musig2.NonceGenOption{musig2.WithPublicKey(key)}
		if rand != nil {
			opts = append(opts, musig2.WithCustomRand(rand))
		}
		n, err := musig2.GenNonces(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to generate nonce for input %d: %w", i, err)
		}
		nonces[i] = n
	}
	return &MusigNonces{nonces}, nil
}

// At returns the nonces of input index, nil when the input has none.
func (n *MusigNonces) At(index int) *musig2.Nonces {
	if n == nil || index < 0 || index >= len(n.nonces) {
		return nil
	}
	return n.nonces[index]
}

// Len ...
func (n *MusigNonces) Len() int {
	return len(n.nonces)
}

// Serialize encodes every entry as a presence byte followed by the secret
// and public nonces.
func (n *MusigNonces) Serialize() []byte {
	out := make([]byte, 0, len(n.nonces)*nonceEntrySize)
	for _, nonce := range n.nonces {
		if nonce == nil {
			out = append(out, make([]byte, nonceEntrySize)...)
			continue
		}
		out = append(out, 1)
		out = append(out, nonce.SecNonce[:]...)
		out = append(out, nonce.PubNonce[:]...)
	}
	return out
}

// DeserializeMusigNonces ...
func DeserializeMusigNonces(b []byte) (*MusigNonces, error) {
	if len(b)%nonceEntrySize != 0 {
		return nil, fmt.Errorf(
			"%w: nonces length must be a multiple of %d",
			domain.ErrValidation, nonceEntrySize,
		)
	}
	nonces := make([]*musig2.Nonces, len(b)/nonceEntrySize)
	for i := range nonces {
		entry := b[i*nonceEntrySize : (i+1)*nonceEntrySize]
		if entry[0] == 0 {
			continue
		}
		n := &musig2.Nonces{}
		copy(n.SecNonce[:], entry[1:1+musig2.SecNonceSize])
		copy(n.PubNonce[:], entry[1+musig2.SecNonceSize:])
		nonces[i] = n
	}
	return &MusigNonces{nonces}, nil
}
