package recovery

import (
	"fmt"

	"github.com/muun/cosigner/pkg/encoding/base58"
)

const (
	// ContainerVersion is the only container format understood.
	ContainerVersion byte = 1

	ephemeralKeySize = 33
	ciphertextSize   = PayloadSize
	containerSize    = 1 + ephemeralKeySize + ciphertextSize
)

// Container is the serialized form of an encrypted recovery payload. Every
// field has a fixed size, so its length is checked before anything else.
type Container struct {
	Version            byte
	EphemeralPublicKey [ephemeralKeySize]byte
	Ciphertext         [ciphertextSize]byte
}

// Serialize ...
func (c *Container) Serialize() []byte {
	out := make([]byte, 0, containerSize)
	out = append(out, c.Version)
	out = append(out, c.EphemeralPublicKey[:]...)
	return append(out, c.Ciphertext[:]...)
}

// String returns the base58 encoding of the container.
func (c *Container) String() string {
	return base58.Encode(c.Serialize())
}

// ParseContainer decodes a base58 encoded container.
func ParseContainer(s string) (*Container, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContainer, err)
	}
	return DeserializeContainer(b)
}

// DeserializeContainer checks length and version, in this order. No key is
// decoded at this stage.
func DeserializeContainer(b []byte) (*Container, error) {
	if len(b) != containerSize {
		return nil, fmt.Errorf(
			"%w: expected %d bytes, got %d", ErrInvalidLength, containerSize, len(b),
		)
	}
	if b[0] != ContainerVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, b[0])
	}

	c := &Container{Version: b[0]}
	copy(c.EphemeralPublicKey[:], b[1:1+ephemeralKeySize])
	copy(c.Ciphertext[:], b[1+ephemeralKeySize:])
	return c, nil
}
