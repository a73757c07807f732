package domain

import "fmt"

// AddressVersion identifies the derivation and script rules of an address.
// It is always carried as explicit metadata next to the address and never
// inferred from a script.
type AddressVersion int

const (
	// AddressVersionV1 is a P2PKH of the user key.
	AddressVersionV1 AddressVersion = 1
	// AddressVersionV2 is a P2SH 2-of-2 multisig.
	AddressVersionV2 AddressVersion = 2
	// AddressVersionV3 is a P2SH-P2WSH 2-of-2 multisig.
	AddressVersionV3 AddressVersion = 3
	// AddressVersionV4 is a P2WSH 2-of-2 multisig.
	AddressVersionV4 AddressVersion = 4
	// AddressVersionV5 is a P2TR key path spend of the MuSig2 aggregated keys.
	AddressVersionV5 AddressVersion = 5
)

// AddressVersions returns every supported version in ascending order.
func AddressVersions() []AddressVersion {
	return []AddressVersion{
		AddressVersionV1,
		AddressVersionV2,
		AddressVersionV3,
		AddressVersionV4,
		AddressVersionV5,
	}
}

// IsValid ...
func (v AddressVersion) IsValid() bool {
	return v >= AddressVersionV1 && v <= AddressVersionV5
}

func (v AddressVersion) String() string {
	return fmt.Sprintf("V%d", int(v))
}

// Signers returns the parties that must sign an input of this version, in
// the order they are required to sign.
func (v AddressVersion) Signers() []Party {
	switch v {
	case AddressVersionV1:
		return []Party{PartyUser}
	case AddressVersionV2, AddressVersionV3, AddressVersionV4, AddressVersionV5:
		return []Party{PartyService, PartyUser}
	default:
		return nil
	}
}

// MuunAddress is an address together with the version and absolute
// derivation path it was generated with.
type MuunAddress struct {
	Version        AddressVersion
	DerivationPath string
	Address        string
}

// Validate ...
func (a MuunAddress) Validate() error {
	if !a.Version.IsValid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, a.Version)
	}
	if a.DerivationPath == "" {
		return ErrNullDerivationPath
	}
	if a.Address == "" {
		return ErrNullAddress
	}
	return nil
}

// IsSigner ...
func (v AddressVersion) IsSigner(p Party) bool {
	for _, signer := range v.Signers() {
		if signer == p {
			return true
		}
	}
	return false
}
