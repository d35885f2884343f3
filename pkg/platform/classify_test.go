package platform

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aptedu/scholarx/pkg/aptos"
	"github.com/aptedu/scholarx/pkg/wallet"
	"github.com/stretchr/testify/assert"
)

// TestClassify_Totality verifies every error lands in exactly one kind and
// the mapping is a pure function of the error value.
func TestClassify_Totality(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, Success},
		{"wallet rejection", &wallet.RejectedError{Code: wallet.UserRejectionCode}, UserDeclined},
		{"wallet rejection, other code", &wallet.RejectedError{Code: 1234}, UserDeclined},
		{"wrapped wallet rejection", fmt.Errorf("sign: %w", &wallet.RejectedError{Code: 4001}), UserDeclined},
		{"move abort", &aptos.AbortError{Hash: "0x1", VMStatus: "Move abort: E_GPA_TOO_LOW"}, LedgerRejected},
		{"node rejection", &aptos.RejectedError{StatusCode: 400, Message: "invalid input"}, LedgerRejected},
		{"not connected", ErrNotConnected, NotConnected},
		{"argument schema", fmt.Errorf("%w: bad arity", ErrArgumentSchema), ValidationFailed},
		{"in flight", fmt.Errorf("%w: create_scholarship", ErrSubmissionInFlight), ValidationFailed},
		{"validation", fmt.Errorf("%w: empty name", ErrValidation), ValidationFailed},
		{"transport", &aptos.TransportError{Op: "submit", Err: errors.New("refused")}, TransportFailure},
		{"finality timeout", &aptos.TransportError{Op: "wait", Err: aptos.ErrFinalityTimeout}, TransportFailure},
		{"context cancelled", context.Canceled, TransportFailure},
		{"unknown", errors.New("mystery"), TransportFailure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

// TestClassified_AlreadyDone verifies an "already initialized" abort reads as
// informational, not as a failure.
func TestClassified_AlreadyDone(t *testing.T) {
	err := &aptos.AbortError{Hash: "0x1", VMStatus: "Move abort: E_ALREADY_INITIALIZED(0x1)"}
	out := classified(OpInitializeBalance, err)

	assert.Equal(t, LedgerRejected, out.Kind)
	assert.True(t, out.AlreadyDone)
	assert.Equal(t, "Balance was already initialized for this account.", out.Notice)
	assert.False(t, out.Retryable)
}

// TestClassified_AbortCarriesReason verifies a non-already abort surfaces the
// ledger's stated reason.
func TestClassified_AbortCarriesReason(t *testing.T) {
	err := &aptos.AbortError{Hash: "0x1", VMStatus: "Move abort: E_GPA_TOO_LOW"}
	out := classified(OpApplyForScholarship, err)

	assert.Equal(t, LedgerRejected, out.Kind)
	assert.False(t, out.AlreadyDone)
	assert.Contains(t, out.Notice, "E_GPA_TOO_LOW")
	assert.Equal(t, "Move abort: E_GPA_TOO_LOW", out.VMStatus)
}

// TestClassified_TransportIsRetryable verifies only undetermined outcomes are
// flagged retryable.
func TestClassified_TransportIsRetryable(t *testing.T) {
	out := classified(OpIssueTokens, &aptos.TransportError{Op: "submit", Err: errors.New("refused")})
	assert.Equal(t, TransportFailure, out.Kind)
	assert.True(t, out.Retryable)

	timeout := classified(OpIssueTokens, &aptos.TransportError{Op: "wait", Err: aptos.ErrFinalityTimeout})
	assert.True(t, timeout.Retryable)
	assert.Contains(t, timeout.Notice, "may still land")

	declined := classified(OpIssueTokens, &wallet.RejectedError{Code: 4001})
	assert.False(t, declined.Retryable)
}

// TestKindString covers the wire labels handlers key status codes off.
func TestKindString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "user_declined", UserDeclined.String())
	assert.Equal(t, "ledger_rejected", LedgerRejected.String())
	assert.Equal(t, "transport_failure", TransportFailure.String())
	assert.Equal(t, "not_connected", NotConnected.String())
	assert.Equal(t, "validation_failed", ValidationFailed.String())
}
