package wallet

import (
	"errors"
	"fmt"
)

// UserRejectionCode is the well-known code interactive wallets use when the
// user dismisses the signing prompt.
const UserRejectionCode = 4001

// ErrRejected matches any *RejectedError via errors.Is.
var ErrRejected = errors.New("signing rejected by user")

// RejectedError is an explicit refusal from the signing wallet.
type RejectedError struct {
	Code int
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("signing rejected by user (code %d)", e.Code)
}

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }
