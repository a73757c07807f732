package recovery

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/muun/cosigner/pkg/wallet"
	"golang.org/x/crypto/scrypt"
)

const (
	challengeScryptN = 512
	challengeScryptR = 8
	challengeScryptP = 1
)

// EncryptMasterKey packs the private key and chain code of key and encrypts
// them for pubA and pubB.
func EncryptMasterKey(
	key *wallet.HDPrivateKey, pubA, pubB *btcec.PublicKey, opts ...Option,
) (*Container, error) {
	if key == nil {
		return nil, ErrNullKey
	}
	priv, err := key.ECPrivateKey()
	if err != nil {
		return nil, err
	}
	payload := make([]byte, 0, PayloadSize)
	payload = append(payload, priv.Serialize()...)
	payload = append(payload, key.ChainCode()...)
	return Encrypt(payload, pubA, pubB, opts...)
}

// DecryptMasterKey is the inverse of EncryptMasterKey. The key is restored
// as a master key of the given network.
func DecryptMasterKey(
	c *Container, privA, privB *btcec.PrivateKey, net *chaincfg.Params,
) (*wallet.HDPrivateKey, error) {
	payload, err := Decrypt(c, privA, privB)
	if err != nil {
		return nil, err
	}
	return wallet.NewHDPrivateKeyFromBytes(payload[:32], payload[32:], net)
}

// NewChallengeKey derives a key pair from a user credential, like a password
// or a recovery code, and its salt.
func NewChallengeKey(input, salt []byte) (*btcec.PrivateKey, error) {
	if len(input) == 0 {
		return nil, ErrNullKey
	}
	secret, err := scrypt.Key(
		input, salt, challengeScryptN, challengeScryptR, challengeScryptP, 32,
	)
	if err != nil {
		return nil, err
	}
	priv, _ := btcec.PrivKeyFromBytes(secret)
	return priv, nil
}
