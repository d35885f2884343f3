package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/aptedu/scholarx/pkg/aptos"
	"github.com/aptedu/scholarx/pkg/platform"
	"github.com/aptedu/scholarx/pkg/retry"
	"github.com/aptedu/scholarx/pkg/scholarship"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// Syncer re-reads ledger view state and republishes it as the new source of
// truth. Each fetch is idempotent and side-effect-free on the ledger; each
// cache slot is replaced wholesale by its own fetch, so concurrent fetches
// cannot corrupt one another. Consistency with the ledger is eventual.
type Syncer struct {
	gateway  *aptos.Client
	module   platform.Module
	logger   *zap.Logger
	pool     pond.Pool
	retryCfg retry.Config

	current   atomic.Pointer[Snapshot]
	createdBy *xsync.Map[string, []scholarship.Scholarship]
	applied   *xsync.Map[string, []aptos.U64]
	balances  *xsync.Map[string, uint64]

	events    *eventHub
	publisher *Publisher
}

// NewSyncer creates a Syncer against the given gateway and module.
func NewSyncer(gateway *aptos.Client, module platform.Module, logger *zap.Logger) *Syncer {
	return &Syncer{
		gateway:   gateway,
		module:    module,
		logger:    logger,
		pool:      pond.NewPool(4),
		retryCfg:  retry.DefaultConfig(),
		createdBy: xsync.NewMap[string, []scholarship.Scholarship](),
		applied:   xsync.NewMap[string, []aptos.U64](),
		balances:  xsync.NewMap[string, uint64](),
		events:    newEventHub(),
	}
}

// SetPublisher attaches an optional out-of-process event publisher.
func (s *Syncer) SetPublisher(p *Publisher) { s.publisher = p }

// Current returns the latest published snapshot; before the first fetch it is
// an empty snapshot, never nil.
func (s *Syncer) Current() *Snapshot {
	if snap := s.current.Load(); snap != nil {
		return snap
	}
	return &Snapshot{Scholarships: []scholarship.Scholarship{}}
}

// FetchAllScholarships reads the full collection and replaces the snapshot.
func (s *Syncer) FetchAllScholarships(ctx context.Context) ([]scholarship.Scholarship, error) {
	req, err := platform.BuildViewRequest(s.module, platform.ViewAllScholarships)
	if err != nil {
		return nil, err
	}
	out, err := s.gateway.View(ctx, req)
	if err != nil {
		return nil, err
	}
	list := []scholarship.Scholarship{}
	if len(out) > 0 {
		if err := json.Unmarshal(out[0], &list); err != nil {
			return nil, fmt.Errorf("decode scholarships: %w", err)
		}
	}
	s.current.Store(&Snapshot{
		FetchedAt:    time.Now(),
		Scholarships: list,
		Count:        len(list),
	})
	return list, nil
}

// ScholarshipCount re-reads the authoritative collection and returns its
// length. Used to derive the client-proposed id immediately before each
// creation, shrinking (not closing) the concurrent-creation window.
func (s *Syncer) ScholarshipCount(ctx context.Context) (int, error) {
	list, err := s.FetchAllScholarships(ctx)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// FetchCreatedBy reads the scholarships created by addr, filtered server-side.
func (s *Syncer) FetchCreatedBy(ctx context.Context, addr string) ([]scholarship.Scholarship, error) {
	req, err := platform.BuildViewRequest(s.module, platform.ViewScholarshipsByDonor, addr)
	if err != nil {
		return nil, err
	}
	out, err := s.gateway.View(ctx, req)
	if err != nil {
		return nil, err
	}
	list := []scholarship.Scholarship{}
	if len(out) > 0 {
		if err := json.Unmarshal(out[0], &list); err != nil {
			return nil, fmt.Errorf("decode created scholarships: %w", err)
		}
	}
	s.createdBy.Store(addr, list)
	return list, nil
}

// FetchApplied reads the scholarship-id markers addr has applied to. The
// client caches exactly what the view returns and never computes the set
// locally.
func (s *Syncer) FetchApplied(ctx context.Context, addr string) ([]aptos.U64, error) {
	req, err := platform.BuildViewRequest(s.module, platform.ViewAppliedScholarships, addr)
	if err != nil {
		return nil, err
	}
	out, err := s.gateway.View(ctx, req)
	if err != nil {
		return nil, err
	}
	ids := []aptos.U64{}
	if len(out) == 1 {
		// The usual shape: one result value holding the id vector.
		if err := json.Unmarshal(out[0], &ids); err == nil {
			s.applied.Store(addr, ids)
			return ids, nil
		}
	}
	for _, raw := range out {
		var id aptos.U64
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("decode applied ids: %w", err)
		}
		ids = append(ids, id)
	}
	s.applied.Store(addr, ids)
	return ids, nil
}

// FetchBalance reads the account balance. An account that never ran
// initialize_balance yields an empty view result, which is zero, not an
// error.
func (s *Syncer) FetchBalance(ctx context.Context, addr string) (uint64, error) {
	req, err := platform.BuildViewRequest(s.module, platform.ViewAccountBalance, addr)
	if err != nil {
		return 0, err
	}
	out, err := s.gateway.View(ctx, req)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		s.balances.Store(addr, 0)
		return 0, nil
	}
	var bal aptos.U64
	if err := json.Unmarshal(out[0], &bal); err != nil {
		return 0, fmt.Errorf("decode balance: %w", err)
	}
	s.balances.Store(addr, uint64(bal))
	return uint64(bal), nil
}

// View assembles the cached per-address view from the latest fetches.
func (s *Syncer) View(addr string) AccountView {
	view := AccountView{
		Address: addr,
		Created: []scholarship.Scholarship{},
		Applied: []aptos.U64{},
	}
	if created, ok := s.createdBy.Load(addr); ok {
		view.Created = created
	}
	if applied, ok := s.applied.Load(addr); ok {
		view.Applied = applied
	}
	if bal, ok := s.balances.Load(addr); ok {
		view.Balance = bal
	}
	return view
}

// RefreshAll re-reads every cache slot, racing the independent fetches on the
// worker pool the way the initial page load does. The address-scoped fetches
// run only when a viewer address is known. Fetches retry briefly (they are
// idempotent reads); a slot that still fails keeps its previous value.
func (s *Syncer) RefreshAll(ctx context.Context, addr string) error {
	var allErr, createdErr, appliedErr, balanceErr error

	group := s.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	group.Submit(func() {
		allErr = retry.WithBackoff(groupCtx, s.retryCfg, s.logger, "fetch_all_scholarships", func() error {
			_, err := s.FetchAllScholarships(groupCtx)
			return err
		})
	})

	if addr != "" {
		group.Submit(func() {
			createdErr = retry.WithBackoff(groupCtx, s.retryCfg, s.logger, "fetch_created_by", func() error {
				_, err := s.FetchCreatedBy(groupCtx, addr)
				return err
			})
		})
		group.Submit(func() {
			appliedErr = retry.WithBackoff(groupCtx, s.retryCfg, s.logger, "fetch_applied", func() error {
				_, err := s.FetchApplied(groupCtx, addr)
				return err
			})
		})
		group.Submit(func() {
			balanceErr = retry.WithBackoff(groupCtx, s.retryCfg, s.logger, "fetch_balance", func() error {
				_, err := s.FetchBalance(groupCtx, addr)
				return err
			})
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		s.logger.Warn("parallel refresh encountered error", zap.Error(err))
	}

	err := errors.Join(allErr, createdErr, appliedErr, balanceErr)
	if err == nil {
		s.republish(ctx)
	}
	return err
}

// republish notifies in-process subscribers and, best-effort, the redis
// channel that a new snapshot is available. Consumers re-read Current().
func (s *Syncer) republish(ctx context.Context) {
	snap := s.Current()
	ev := Event{Type: EventSnapshotRefreshed, At: snap.FetchedAt, Count: snap.Count}
	s.events.notify(ev)
	if s.publisher != nil {
		s.publisher.PublishRefresh(ctx, ev)
	}
}

// Subscribe registers an in-process listener for refresh events. The returned
// cancel func must be called when done.
func (s *Syncer) Subscribe() (<-chan Event, func()) {
	return s.events.subscribe()
}
