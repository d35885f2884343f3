package aptos

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEndpoints means the client was built without any fullnode URL.
	ErrNoEndpoints = errors.New("no endpoints configured")

	// ErrNotFound is returned when the queried resource does not exist yet.
	// For transactions this usually means the hash has not propagated.
	ErrNotFound = errors.New("not found")

	// ErrFinalityTimeout means polling gave up before the outcome was
	// determined. The submission itself may still land either way.
	ErrFinalityTimeout = errors.New("timed out waiting for finality")
)

// RejectedError is a submission the ledger refused to accept: the fullnode
// answered with a 4xx error body before the transaction entered a block.
type RejectedError struct {
	StatusCode  int
	Message     string
	ErrorCode   string
	VMErrorCode int
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ledger rejected submission: %s", e.Message)
	}
	return fmt.Sprintf("ledger rejected submission (http %d)", e.StatusCode)
}

// AbortError is a transaction that finalized unsuccessfully: the Move program
// aborted and the vm_status carries the reason.
type AbortError struct {
	Hash     string
	VMStatus string
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("transaction %s aborted: %s", e.Hash, e.VMStatus)
}

// TransportError wraps connectivity failures: the outcome of the attempted
// call is unknown because the ledger could not be reached.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
