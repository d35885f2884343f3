package platform

import (
	"context"
	"fmt"

	"github.com/aptedu/scholarx/pkg/aptos"
	"github.com/aptedu/scholarx/pkg/wallet"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// Submitter builds mutating requests, delegates signing to the wallet, and
// awaits finality through the gateway. Failures never leave as raw errors:
// every path returns a classified Outcome.
type Submitter struct {
	gateway *aptos.Client
	module  Module
	logger  *zap.Logger

	// inflight latches one pending submission per (signer, operation); a
	// re-entrant duplicate fails fast instead of racing the first.
	inflight *xsync.Map[string, struct{}]
}

// NewSubmitter creates a Submitter against the given gateway and module.
func NewSubmitter(gateway *aptos.Client, module Module, logger *zap.Logger) *Submitter {
	return &Submitter{
		gateway:  gateway,
		module:   module,
		logger:   logger,
		inflight: xsync.NewMap[string, struct{}](),
	}
}

// Module returns the Move module the submitter targets.
func (s *Submitter) Module() Module { return s.module }

// Submit runs one mutating operation end to end: fail-fast checks, payload
// build, wallet signature, gateway submission, finality wait, classification.
// On failure the ledger state is unchanged (or, past submission, determined
// solely by the ledger); on Success the caller must trigger a refresh.
func (s *Submitter) Submit(ctx context.Context, signer wallet.Signer, op Operation, args ...any) *Outcome {
	if signer == nil {
		return s.fail(op, ErrNotConnected)
	}

	key := signer.Address() + "|" + string(op)
	if _, loaded := s.inflight.LoadOrStore(key, struct{}{}); loaded {
		return s.fail(op, fmt.Errorf("%w: %s", ErrSubmissionInFlight, op))
	}
	defer s.inflight.Delete(key)

	payload, err := BuildPayload(s.module, op, args...)
	if err != nil {
		return s.fail(op, err)
	}

	raw := &aptos.RawTransaction{Sender: signer.Address(), Payload: payload}
	signed, err := signer.Sign(ctx, raw)
	if err != nil {
		return s.fail(op, err)
	}

	pending, err := s.gateway.SubmitTransaction(ctx, signed)
	if err != nil {
		return s.fail(op, err)
	}

	tx, err := s.gateway.WaitForTransaction(ctx, pending.Hash)
	if err != nil {
		out := s.fail(op, err)
		out.TxHash = pending.Hash
		return out
	}

	s.logger.Info("submission finalized",
		zap.String("operation", string(op)),
		zap.String("sender", signer.Address()),
		zap.String("txHash", tx.Hash))

	return &Outcome{
		Kind:     Success,
		Notice:   successNotice(op),
		TxHash:   tx.Hash,
		VMStatus: tx.VMStatus,
	}
}

func (s *Submitter) fail(op Operation, err error) *Outcome {
	out := classified(op, err)
	s.logger.Warn("submission failed",
		zap.String("operation", string(op)),
		zap.String("kind", out.Kind.String()),
		zap.Bool("retryable", out.Retryable),
		zap.Error(err))
	return out
}
