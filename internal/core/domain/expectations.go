package domain

import "fmt"

// SigningExpectations is the intent a transaction is allowed to fulfill. It
// is built from business intent and never derived from the transaction it
// is checked against.
type SigningExpectations struct {
	Destination string
	Amount      int64
	Change      *MuunAddress
	Fee         int64
	// Alternative marks a replacement of a previous transaction where the
	// destination may receive less as long as the difference went to fees.
	Alternative bool
}

// Validate ...
func (e SigningExpectations) Validate() error {
	if e.Destination == "" {
		return fmt.Errorf("%w: destination is empty", ErrInvalidExpectations)
	}
	if e.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidExpectations)
	}
	if e.Fee < 0 {
		return fmt.Errorf("%w: fee must not be negative", ErrInvalidExpectations)
	}
	if e.Change != nil {
		if err := e.Change.Validate(); err != nil {
			return fmt.Errorf("%w: change: %s", ErrInvalidExpectations, err)
		}
	}
	return nil
}
