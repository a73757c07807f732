package wallet

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DerivationPath is the internal representation of a hierarchical
// deterministic key path. The empty path is the master key.
type DerivationPath []uint32

// ParseDerivationPath converts a derivation path string to the
// internal binary representation. Components may carry a descriptive name
// before a colon, as in "m/schema:1'/recovery:1'/0/3", which is discarded.
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if strings.TrimSpace(strPath) == "" {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	if strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}
	if containsEmptyString(elems) {
		return nil, ErrMalformedDerivationPath
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		if i := strings.LastIndex(elem, ":"); i >= 0 {
			elem = strings.TrimSpace(elem[i+1:])
		}

		var value uint32
		if strings.HasSuffix(elem, "'") {
			value = hdkeychain.HardenedKeyStart
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}

		// use big int for convertion
		bigval, ok := new(big.Int).SetString(elem, 0)
		if !ok {
			return nil, fmt.Errorf("%w: invalid elem '%s' in path", ErrInvalidDerivationPath, elem)
		}

		max := math.MaxUint32 - value
		if bigval.Sign() < 0 || bigval.Cmp(big.NewInt(int64(max))) > 0 {
			if value == 0 {
				return nil, fmt.Errorf("elem %v must be in range [0, %d]", bigval, max)
			}
			return nil, fmt.Errorf("elem %v must be in hardened range [0, %d]", bigval, max)
		}
		value += uint32(bigval.Uint64())

		path = append(path, value)
	}

	return path, nil
}

// String converts a binary derivation path to its canonical representation
func (path DerivationPath) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, component := range path {
		hardened := component >= hdkeychain.HardenedKeyStart
		if hardened {
			component -= hdkeychain.HardenedKeyStart
		}
		fmt.Fprintf(&b, "/%d", component)
		if hardened {
			b.WriteString("'")
		}
	}
	return b.String()
}

// Child returns a copy of the path extended with the given index.
func (path DerivationPath) Child(index uint32) DerivationPath {
	child := make(DerivationPath, len(path), len(path)+1)
	copy(child, path)
	return append(child, index)
}

// HasPrefix tells whether prefix is an ancestor of (or equal to) path.
func (path DerivationPath) HasPrefix(prefix DerivationPath) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i := range prefix {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}

// IndexesFrom returns the indexes to derive to go from prefix to path.
// It expects prefix to be an ancestor of path.
func (path DerivationPath) IndexesFrom(prefix DerivationPath) []uint32 {
	return path[len(prefix):]
}

func containsEmptyString(composedPath []string) bool {
	for _, s := range composedPath {
		if strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}
