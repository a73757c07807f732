package shadow_test

import (
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/pkg/wallet"
	"github.com/stretchr/testify/mock"
)

// **** Engine ****

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) DeriveAddress(
	version domain.AddressVersion, userKey, serviceKey *wallet.HDPublicKey,
) (*domain.MuunAddress, error) {
	args := m.Called(version, userKey, serviceKey)

	var res *domain.MuunAddress
	if a := args.Get(0); a != nil {
		res = a.(*domain.MuunAddress)
	}
	return res, args.Error(1)
}

func (m *mockEngine) DerivePublicKey(
	key *wallet.HDPublicKey, path string,
) ([]byte, error) {
	args := m.Called(key, path)

	var res []byte
	if a := args.Get(0); a != nil {
		res = a.([]byte)
	}
	return res, args.Error(1)
}

func (m *mockEngine) SigHash(
	pst *domain.PartiallySignedTransaction, index int,
	userKey, serviceKey *wallet.HDPublicKey,
) ([]byte, error) {
	args := m.Called(pst, index, userKey, serviceKey)

	var res []byte
	if a := args.Get(0); a != nil {
		res = a.([]byte)
	}
	return res, args.Error(1)
}

func (m *mockEngine) Finalize(
	pst *domain.PartiallySignedTransaction,
	userKey, serviceKey *wallet.HDPublicKey,
) (*domain.Transaction, error) {
	args := m.Called(pst, userKey, serviceKey)

	var res *domain.Transaction
	if a := args.Get(0); a != nil {
		res = a.(*domain.Transaction)
	}
	return res, args.Error(1)
}

// **** Observer ****

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) ReportDivergence(d domain.Divergence) {
	m.Called(d)
}

func (m *mockObserver) ReportError(operation string, err error) {
	m.Called(operation, err)
}

// **** Auditor ****

type mockAuditor struct {
	mock.Mock
}

func (m *mockAuditor) Verify(
	pst *domain.PartiallySignedTransaction, exp domain.SigningExpectations,
	userKey, serviceKey *wallet.HDPublicKey,
) error {
	args := m.Called(pst, exp, userKey, serviceKey)
	return args.Error(0)
}
