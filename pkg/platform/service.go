package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/aptedu/scholarx/pkg/aptos"
	"github.com/aptedu/scholarx/pkg/scholarship"
	"github.com/aptedu/scholarx/pkg/wallet"
	"go.uber.org/zap"
)

// StateSync is the slice of the synchronizer the service drives: a fresh
// count read before each creation, and a refresh after every success.
type StateSync interface {
	ScholarshipCount(ctx context.Context) (int, error)
	RefreshAll(ctx context.Context, address string) error
}

// Service exposes the platform's operations end to end: validate, submit,
// await finality, then republish state. The finality wait is strictly
// ordered before the refresh it triggers.
type Service struct {
	submitter *Submitter
	sync      StateSync
	signer    wallet.Signer
	logger    *zap.Logger
}

// NewService wires a Service. signer may be nil: the service then serves
// reads only and every mutating operation fails fast as NotConnected.
func NewService(submitter *Submitter, sync StateSync, signer wallet.Signer, logger *zap.Logger) *Service {
	return &Service{submitter: submitter, sync: sync, signer: signer, logger: logger}
}

// SignerAddress returns the connected account address, or "" when read-only.
func (s *Service) SignerAddress() string {
	if s.signer == nil {
		return ""
	}
	return s.signer.Address()
}

// InitializeBalance creates the account's balance resource. Running it twice
// classifies as an informational already-done rejection, not a new failure.
func (s *Service) InitializeBalance(ctx context.Context) *Outcome {
	return s.run(ctx, OpInitializeBalance)
}

// IssueTokens mints amount into the connected account's balance.
func (s *Service) IssueTokens(ctx context.Context, amount uint64) *Outcome {
	if amount == 0 {
		return classified(OpIssueTokens, fmt.Errorf("%w: amount must be positive", ErrValidation))
	}
	return s.run(ctx, OpIssueTokens, amount)
}

// InitializeScholarships creates the account's scholarship storage.
func (s *Service) InitializeScholarships(ctx context.Context) *Outcome {
	return s.run(ctx, OpInitializeScholarships)
}

// CreateScholarship validates the draft, re-fetches the authoritative count,
// proposes id = 1000 + count, and submits. The id is client-proposed: the
// ledger still validates it, and a collision between racing creators aborts
// the loser's submission as LedgerRejected.
func (s *Service) CreateScholarship(ctx context.Context, draft scholarship.Draft) (*Outcome, aptos.U64) {
	if err := draft.Validate(time.Now()); err != nil {
		return classified(OpCreateScholarship, fmt.Errorf("%w: %v", ErrValidation, err)), 0
	}
	if s.signer == nil {
		return classified(OpCreateScholarship, ErrNotConnected), 0
	}

	count, err := s.sync.ScholarshipCount(ctx)
	if err != nil {
		return classified(OpCreateScholarship, err), 0
	}
	id := scholarship.DeriveID(count)

	out := s.run(ctx, OpCreateScholarship,
		id,
		draft.Name,
		draft.AmountPerApplicant,
		draft.TotalApplicants,
		draft.CriteriaGPA,
		draft.FieldOfStudy,
		draft.EndTime,
	)
	return out, id
}

// ApplyForScholarship submits an application with the applicant's GPA and
// field of study; the ledger enforces the criteria.
func (s *Service) ApplyForScholarship(ctx context.Context, id uint64, gpa uint64, field string) *Outcome {
	if _, err := scholarship.ParseFieldOfStudy(field); err != nil {
		return classified(OpApplyForScholarship, fmt.Errorf("%w: %v", ErrValidation, err))
	}
	return s.run(ctx, OpApplyForScholarship, id, gpa, field)
}

// DistributeScholarship pays out an ended scholarship. On success the record
// transitions is_open true -> false, irreversibly.
func (s *Service) DistributeScholarship(ctx context.Context, id uint64) *Outcome {
	return s.run(ctx, OpDistributeScholarship, id)
}

// EmergencyCloseScholarship closes a scholarship early and refunds the donor.
// The same irreversible true -> false transition as distribution.
func (s *Service) EmergencyCloseScholarship(ctx context.Context, id uint64) *Outcome {
	return s.run(ctx, OpEmergencyClose, id)
}

// run submits and, only after finality confirms success, refreshes. A refresh
// failure never demotes a successful submission: the ledger has changed, the
// local view is just stale until the next refresh lands.
func (s *Service) run(ctx context.Context, op Operation, args ...any) *Outcome {
	out := s.submitter.Submit(ctx, s.signer, op, args...)
	if out.Kind != Success {
		return out
	}
	if err := s.sync.RefreshAll(ctx, s.SignerAddress()); err != nil {
		s.logger.Warn("refresh after success failed",
			zap.String("operation", string(op)),
			zap.Error(err))
	}
	return out
}
