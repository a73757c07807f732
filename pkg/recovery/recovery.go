// Package recovery encrypts a master key so that it can only be recovered
// by holding two independent private keys at once.
package recovery

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// PayloadSize is the size of the encrypted payload: a private key followed
// by its chain code.
const PayloadSize = 64

var (
	// ErrInvalidContainer ...
	ErrInvalidContainer = errors.New("invalid recovery container")
	// ErrInvalidLength ...
	ErrInvalidLength = fmt.Errorf("%w: wrong length", ErrInvalidContainer)
	// ErrUnknownVersion ...
	ErrUnknownVersion = fmt.Errorf("%w: unknown version", ErrInvalidContainer)
	// ErrInvalidEphemeralKey ...
	ErrInvalidEphemeralKey = fmt.Errorf("%w: invalid ephemeral public key", ErrInvalidContainer)
	// ErrInvalidPayload ...
	ErrInvalidPayload = fmt.Errorf("payload must be %d bytes long", PayloadSize)
	// ErrNullKey ...
	ErrNullKey = errors.New("both keys are required")
)

type options struct {
	rand io.Reader
}

// Option ...
type Option func(*options)

// WithRand sets the source of the ephemeral key.
func WithRand(r io.Reader) Option {
	return func(o *options) {
		o.rand = r
	}
}

// Encrypt encrypts payload for the owners of both pubA and pubB.
func Encrypt(
	payload []byte, pubA, pubB *btcec.PublicKey, opts ...Option,
) (*Container, error) {
	if len(payload) != PayloadSize {
		return nil, ErrInvalidPayload
	}
	if pubA == nil || pubB == nil {
		return nil, ErrNullKey
	}
	o := &options{rand: rand.Reader}
	for _, opt := range opts {
		opt(o)
	}

	ephemeral, err := newEphemeralKey(o.rand)
	if err != nil {
		return nil, err
	}
	key := combinedSecret(
		btcec.GenerateSharedSecret(ephemeral, pubA),
		btcec.GenerateSharedSecret(ephemeral, pubB),
	)

	c := &Container{Version: ContainerVersion}
	copy(c.EphemeralPublicKey[:], ephemeral.PubKey().SerializeCompressed())

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	cipher.NewCBCEncrypter(block, ivFromPublicKey(c.EphemeralPublicKey)).
		CryptBlocks(c.Ciphertext[:], payload)
	return c, nil
}

// Decrypt recovers the payload of c. Decrypting with a wrong key does not
// fail, it produces garbage.
func Decrypt(c *Container, privA, privB *btcec.PrivateKey) ([]byte, error) {
	if c == nil {
		return nil, ErrInvalidContainer
	}
	if c.Version != ContainerVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, c.Version)
	}
	if privA == nil || privB == nil {
		return nil, ErrNullKey
	}

	ephemeral, err := btcec.ParsePubKey(c.EphemeralPublicKey[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEphemeralKey, err)
	}
	key := combinedSecret(
		btcec.GenerateSharedSecret(privA, ephemeral),
		btcec.GenerateSharedSecret(privB, ephemeral),
	)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, PayloadSize)
	cipher.NewCBCDecrypter(block, ivFromPublicKey(c.EphemeralPublicKey)).
		CryptBlocks(payload, c.Ciphertext[:])
	return payload, nil
}

func combinedSecret(a, b []byte) []byte {
	key := make([]byte, len(a))
	for i := range a {
		key[i] = a[i] ^ b[i]
	}
	return key
}

// ivFromPublicKey takes the least significant bytes of the ephemeral key.
func ivFromPublicKey(pub [ephemeralKeySize]byte) []byte {
	iv := make([]byte, aes.BlockSize)
	copy(iv, pub[ephemeralKeySize-aes.BlockSize:])
	return iv
}

func newEphemeralKey(r io.Reader) (*btcec.PrivateKey, error) {
	buf := make([]byte, 32)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
		}
		var scalar btcec.ModNScalar
		if overflow := scalar.SetByteSlice(buf); overflow || scalar.IsZero() {
			continue
		}
		priv, _ := btcec.PrivKeyFromBytes(buf)
		return priv, nil
	}
}
