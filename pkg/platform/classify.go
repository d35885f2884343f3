package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aptedu/scholarx/pkg/aptos"
	"github.com/aptedu/scholarx/pkg/wallet"
)

// Kind is the classification of a submission attempt's outcome.
type Kind int

const (
	Success Kind = iota
	UserDeclined
	LedgerRejected
	TransportFailure
	NotConnected
	ValidationFailed
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case UserDeclined:
		return "user_declined"
	case LedgerRejected:
		return "ledger_rejected"
	case TransportFailure:
		return "transport_failure"
	case NotConnected:
		return "not_connected"
	case ValidationFailed:
		return "validation_failed"
	}
	return "unknown"
}

// MarshalJSON renders the kind as its wire label.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, kind := range []Kind{Success, UserDeclined, LedgerRejected, TransportFailure, NotConnected, ValidationFailed} {
		if kind.String() == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown outcome kind %q", s)
}

// Outcome is the single classified result handed to callers. No raw
// transport error ever crosses this boundary unclassified.
type Outcome struct {
	Kind      Kind   `json:"kind"`
	Notice    string `json:"notice"`
	Retryable bool   `json:"retryable"`
	// AlreadyDone marks a ledger rejection that means the operation had
	// already succeeded earlier (e.g. a balance initialized twice). From the
	// user's perspective this is informational, not a failure.
	AlreadyDone bool   `json:"already_done,omitempty"`
	TxHash      string `json:"tx_hash,omitempty"`
	VMStatus    string `json:"vm_status,omitempty"`
	Err         error  `json:"-"`
}

// Classify maps a raised submission error to exactly one kind. It is a pure
// function of the error value: no call history, no ambient state.
func Classify(err error) Kind {
	if err == nil {
		return Success
	}
	if errors.Is(err, wallet.ErrRejected) {
		return UserDeclined
	}
	var abort *aptos.AbortError
	if errors.As(err, &abort) {
		return LedgerRejected
	}
	var rejected *aptos.RejectedError
	if errors.As(err, &rejected) {
		return LedgerRejected
	}
	if errors.Is(err, ErrNotConnected) {
		return NotConnected
	}
	if errors.Is(err, ErrArgumentSchema) || errors.Is(err, ErrSubmissionInFlight) || errors.Is(err, ErrValidation) {
		return ValidationFailed
	}
	// Everything else — gateway transport errors, finality timeouts, context
	// cancellation, unknown failures — left the outcome undetermined.
	return TransportFailure
}

// classified builds the full outcome for a failed submission.
func classified(op Operation, err error) *Outcome {
	kind := Classify(err)
	out := &Outcome{Kind: kind, Err: err}
	switch kind {
	case UserDeclined:
		out.Notice = "Transaction rejected by user."
	case LedgerRejected:
		out.VMStatus = abortReason(err)
		if alreadyDone(err) {
			out.AlreadyDone = true
			out.Notice = alreadyDoneNotice(op)
		} else if out.VMStatus != "" {
			out.Notice = fmt.Sprintf("The ledger rejected this operation: %s", out.VMStatus)
		} else {
			out.Notice = "The ledger rejected this operation."
		}
	case TransportFailure:
		out.Retryable = true
		if errors.Is(err, aptos.ErrFinalityTimeout) {
			out.Notice = "Timed out waiting for the ledger to finalize — the operation may still land. Refresh before retrying."
		} else if errors.Is(err, context.Canceled) {
			out.Notice = "The request was cancelled."
		} else {
			out.Notice = "Could not reach the ledger — please try again."
		}
	case NotConnected:
		out.Notice = "Please connect your wallet first."
	case ValidationFailed:
		if errors.Is(err, ErrSubmissionInFlight) {
			out.Notice = "A submission for this operation is already pending."
		} else {
			out.Notice = err.Error()
		}
	}
	return out
}

// abortReason extracts the ledger's stated reason, when available.
func abortReason(err error) string {
	var abort *aptos.AbortError
	if errors.As(err, &abort) {
		return abort.VMStatus
	}
	var rejected *aptos.RejectedError
	if errors.As(err, &rejected) {
		return rejected.Message
	}
	return ""
}

// alreadyDone detects "already initialized"-style aborts: preconditions that
// fail only because the operation succeeded earlier. Retrying by re-click is
// the platform's idempotency model, so these read as done, not as failures.
func alreadyDone(err error) bool {
	reason := strings.ToLower(abortReason(err))
	return strings.Contains(reason, "already") ||
		strings.Contains(reason, "resource_already_exists") ||
		strings.Contains(reason, "e_already_initialized")
}

func alreadyDoneNotice(op Operation) string {
	switch op {
	case OpInitializeBalance:
		return "Balance was already initialized for this account."
	case OpInitializeScholarships:
		return "Scholarship storage was already initialized for this account."
	}
	return "This operation was already completed for this account."
}

func successNotice(op Operation) string {
	switch op {
	case OpInitializeBalance:
		return "Balance initialized successfully!"
	case OpIssueTokens:
		return "Tokens issued successfully!"
	case OpInitializeScholarships:
		return "Scholarship storage initialized successfully!"
	case OpCreateScholarship:
		return "Scholarship created!"
	case OpApplyForScholarship:
		return "Applied for scholarship!"
	case OpDistributeScholarship:
		return "Scholarship has been distributed!"
	case OpEmergencyClose:
		return "Scholarship closed and remaining funds refunded."
	}
	return "Operation completed."
}
