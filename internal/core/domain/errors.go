package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every malformed input error.
	ErrValidation = errors.New("validation error")
	// ErrPrecondition is matched by programmer errors like signing out of
	// order or signing twice.
	ErrPrecondition = errors.New("precondition violation")
	// ErrSigningExpectationMismatch is matched by *ExpectationMismatchError.
	ErrSigningExpectationMismatch = errors.New("signing expectation mismatch")

	// ErrUnsupportedVersion ...
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported address version", ErrValidation)
	// ErrUnknownParty ...
	ErrUnknownParty = fmt.Errorf("%w: unknown party", ErrValidation)
	// ErrNullTransaction ...
	ErrNullTransaction = fmt.Errorf("%w: transaction must not be null", ErrValidation)
	// ErrNullAddress ...
	ErrNullAddress = fmt.Errorf("%w: address must not be null", ErrValidation)
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = fmt.Errorf("%w: derivation path must not be null", ErrValidation)
	// ErrInputsMismatch ...
	ErrInputsMismatch = fmt.Errorf(
		"%w: inputs metadata doesn't match transaction inputs", ErrValidation,
	)
	// ErrInvalidAmount ...
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive", ErrValidation)
	// ErrInvalidExpectations ...
	ErrInvalidExpectations = fmt.Errorf("%w: invalid signing expectations", ErrValidation)

	// ErrAlreadySigned ...
	ErrAlreadySigned = fmt.Errorf("%w: input already signed by party", ErrPrecondition)
	// ErrSigningOrder ...
	ErrSigningOrder = fmt.Errorf(
		"%w: counter-party must sign the input first", ErrPrecondition,
	)
	// ErrNotComplete ...
	ErrNotComplete = fmt.Errorf("%w: transaction is missing signatures", ErrPrecondition)
	// ErrMissingNonce ...
	ErrMissingNonce = fmt.Errorf("%w: musig public nonce missing", ErrPrecondition)
	// ErrNonceAlreadySet ...
	ErrNonceAlreadySet = fmt.Errorf("%w: musig public nonce already set", ErrPrecondition)

	// ErrMustBeLocked is returned when changing the passphrase of an unlocked vault
	ErrMustBeLocked = errors.New("vault must be locked to perform this operation")
	// ErrMustBeUnlocked is returned when accessing the key of a locked vault
	ErrMustBeUnlocked = errors.New("vault must be unlocked to perform this operation")
	// ErrInvalidPassphrase ...
	ErrInvalidPassphrase = errors.New("passphrase is not valid")
	// ErrNullKeyOrPassphrase ...
	ErrNullKeyOrPassphrase = errors.New("key and/or passphrase must not be null")
)

// ExpectationMismatchError reports which part of a transaction differs from
// what the signer expected.
type ExpectationMismatchError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *ExpectationMismatchError) Error() string {
	return fmt.Sprintf(
		"%s on %s: expected %s, got %s",
		ErrSigningExpectationMismatch, e.Field, e.Expected, e.Actual,
	)
}

// Is ...
func (e *ExpectationMismatchError) Is(target error) bool {
	return target == ErrSigningExpectationMismatch
}
