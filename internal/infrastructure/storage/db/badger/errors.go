package dbbadger

import "errors"

var (
	// ErrVaultNotFound ...
	ErrVaultNotFound = errors.New("vault not found")
	// ErrVaultAlreadyExists ...
	ErrVaultAlreadyExists = errors.New("vault already exists")
	// ErrPSTNotFound ...
	ErrPSTNotFound = errors.New("pst not found")
	// ErrPSTAlreadyExists ...
	ErrPSTAlreadyExists = errors.New("pst already exists")
	// ErrNoncesNotFound ...
	ErrNoncesNotFound = errors.New("nonces not found")
	// ErrNullPST ...
	ErrNullPST = errors.New("pst must not be null")
)
