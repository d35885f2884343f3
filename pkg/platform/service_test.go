package platform_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aptedu/scholarx/pkg/aptos"
	"github.com/aptedu/scholarx/pkg/platform"
	"github.com/aptedu/scholarx/pkg/scholarship"
	"github.com/aptedu/scholarx/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeNode is an in-memory stand-in for a fullnode running the
// ScholarshipPlatform module. It executes submitted entry functions against
// local state and answers the view functions from it.
type fakeNode struct {
	mu           sync.Mutex
	balanceInit  map[string]bool
	balances     map[string]uint64
	storageInit  map[string]bool
	scholarships []scholarship.Scholarship
	applied      map[string][]aptos.U64
	txs          map[string]aptos.Transaction
	seq          int
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		balanceInit: map[string]bool{},
		balances:    map[string]uint64{},
		storageInit: map[string]bool{},
		applied:     map[string][]aptos.U64{},
		txs:         map[string]aptos.Transaction{},
	}
}

func (n *fakeNode) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/transactions", n.handleSubmit)
	mux.HandleFunc("/v1/transactions/by_hash/", n.handleByHash)
	mux.HandleFunc("/v1/view", n.handleView)
	return mux
}

func u64arg(v any) uint64 {
	s, _ := v.(string)
	out, _ := strconv.ParseUint(s, 10, 64)
	return out
}

func opName(function string) string {
	parts := strings.Split(function, "::")
	return parts[len(parts)-1]
}

func (n *fakeNode) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var tx aptos.SignedTransaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	vmStatus := n.execute(tx.Sender, opName(tx.Payload.Function), tx.Payload.Arguments)
	n.seq++
	hash := fmt.Sprintf("0xfake%d", n.seq)
	n.txs[hash] = aptos.Transaction{
		Type:     "user_transaction",
		Hash:     hash,
		Success:  vmStatus == "",
		VMStatus: vmStatus,
	}
	n.mu.Unlock()

	json.NewEncoder(w).Encode(aptos.PendingTransaction{Hash: hash})
}

// execute applies one entry function; a non-empty return is the abort status.
func (n *fakeNode) execute(sender, op string, args []any) string {
	switch op {
	case "initialize_balance":
		if n.balanceInit[sender] {
			return "Move abort: E_ALREADY_INITIALIZED(0x1)"
		}
		n.balanceInit[sender] = true
		n.balances[sender] = 0
	case "issue_tokens":
		if !n.balanceInit[sender] {
			return "Move abort: E_NOT_INITIALIZED(0x2)"
		}
		n.balances[sender] += u64arg(args[0])
	case "initialize_scholarships":
		if n.storageInit[sender] {
			return "Move abort: RESOURCE_ALREADY_EXISTS(0x3)"
		}
		n.storageInit[sender] = true
	case "create_scholarship":
		id := u64arg(args[0])
		if id != uint64(scholarship.DeriveID(len(n.scholarships))) {
			return "Move abort: E_ID_MISMATCH(0x4)"
		}
		amount, total := u64arg(args[2]), u64arg(args[3])
		cost := amount * total
		if n.balances[sender] < cost {
			return "Move abort: E_INSUFFICIENT_BALANCE(0x5)"
		}
		n.balances[sender] -= cost
		n.scholarships = append(n.scholarships, scholarship.Scholarship{
			ScholarshipID:      aptos.U64(id),
			Name:               args[1].(string),
			Donor:              sender,
			AmountPerApplicant: aptos.U64(amount),
			TotalApplicants:    aptos.U64(total),
			CriteriaGPA:        aptos.U64(u64arg(args[4])),
			FieldOfStudy:       args[5].(string),
			EndTime:            aptos.U64(u64arg(args[6])),
			IsOpen:             true,
			Recipients:         []string{},
		})
	case "apply_for_scholarship":
		id, gpa := u64arg(args[0]), u64arg(args[1])
		sch := n.find(id)
		if sch == nil {
			return "Move abort: E_NO_SUCH_SCHOLARSHIP(0x6)"
		}
		if !sch.IsOpen {
			return "Move abort: E_SCHOLARSHIP_CLOSED(0x7)"
		}
		if gpa < uint64(sch.CriteriaGPA) {
			return "Move abort: E_GPA_TOO_LOW(0x8)"
		}
		n.applied[sender] = append(n.applied[sender], aptos.U64(id))
		sch.Recipients = append(sch.Recipients, sender)
	case "distribute_scholarship", "emergency_close_scholarship":
		sch := n.find(u64arg(args[0]))
		if sch == nil {
			return "Move abort: E_NO_SUCH_SCHOLARSHIP(0x6)"
		}
		if !sch.IsOpen {
			return "Move abort: E_ALREADY_CLOSED(0x9)"
		}
		sch.IsOpen = false
	default:
		return "Move abort: E_UNKNOWN_FUNCTION"
	}
	return ""
}

func (n *fakeNode) find(id uint64) *scholarship.Scholarship {
	for i := range n.scholarships {
		if uint64(n.scholarships[i].ScholarshipID) == id {
			return &n.scholarships[i]
		}
	}
	return nil
}

func (n *fakeNode) handleByHash(w http.ResponseWriter, r *http.Request) {
	hash := strings.TrimPrefix(r.URL.Path, "/v1/transactions/by_hash/")
	n.mu.Lock()
	tx, ok := n.txs[hash]
	n.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "transaction not found"})
		return
	}
	json.NewEncoder(w).Encode(tx)
}

func (n *fakeNode) handleView(w http.ResponseWriter, r *http.Request) {
	var req aptos.ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	switch opName(req.Function) {
	case "view_all_scholarships":
		json.NewEncoder(w).Encode([]any{n.scholarships})
	case "view_all_scholarships_created_by_address":
		addr := req.Arguments[0].(string)
		created := []scholarship.Scholarship{}
		for _, sch := range n.scholarships {
			if sch.Donor == addr {
				created = append(created, sch)
			}
		}
		json.NewEncoder(w).Encode([]any{created})
	case "view_all_scholarships_applied_by_address":
		addr := req.Arguments[0].(string)
		ids := n.applied[addr]
		if ids == nil {
			ids = []aptos.U64{}
		}
		json.NewEncoder(w).Encode([]any{ids})
	case "view_account_balance":
		addr := req.Arguments[0].(string)
		if !n.balanceInit[addr] {
			json.NewEncoder(w).Encode([]any{})
			return
		}
		json.NewEncoder(w).Encode([]any{aptos.U64(n.balances[addr])})
	default:
		http.Error(w, "unknown view", http.StatusBadRequest)
	}
}

func newTestService(t *testing.T, signerAddr string) (*platform.Service, *state.Syncer, *fakeNode) {
	t.Helper()
	node := newFakeNode()
	server := httptest.NewServer(node.handler())
	t.Cleanup(server.Close)

	gateway := testGateway(server.URL)
	logger := zap.NewNop()
	syncer := state.NewSyncer(gateway, testModule, logger)
	submitter := platform.NewSubmitter(gateway, testModule, logger)

	var signer *fakeSigner
	if signerAddr != "" {
		signer = &fakeSigner{addr: signerAddr}
	}
	if signer == nil {
		return platform.NewService(submitter, syncer, nil, logger), syncer, node
	}
	return platform.NewService(submitter, syncer, signer, logger), syncer, node
}

func futureDraft() scholarship.Draft {
	return scholarship.Draft{
		Name:               "STEM Excellence",
		AmountPerApplicant: 10,
		TotalApplicants:    5,
		CriteriaGPA:        3,
		FieldOfStudy:       string(scholarship.FieldScience),
		EndTime:            uint64(time.Now().Add(24 * time.Hour).Unix()),
	}
}

// TestService_EndToEnd walks the platform lifecycle against the fake node:
// initialize, re-initialize, fund, create, apply, distribute, verifying the
// synchronized view after each step.
func TestService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	addr := "0xdonor"
	svc, syncer, _ := newTestService(t, addr)

	out := svc.InitializeBalance(ctx)
	require.Equal(t, platform.Success, out.Kind)
	assert.EqualValues(t, 0, syncer.View(addr).Balance)

	// Running initialization twice is informational, not a new failure.
	out = svc.InitializeBalance(ctx)
	require.Equal(t, platform.LedgerRejected, out.Kind)
	assert.True(t, out.AlreadyDone)

	out = svc.IssueTokens(ctx, 100)
	require.Equal(t, platform.Success, out.Kind)
	assert.EqualValues(t, 100, syncer.View(addr).Balance)

	out = svc.InitializeScholarships(ctx)
	require.Equal(t, platform.Success, out.Kind)

	out, id := svc.CreateScholarship(ctx, futureDraft())
	require.Equal(t, platform.Success, out.Kind)
	assert.EqualValues(t, 1000, id)

	snap := syncer.Current()
	require.Len(t, snap.Scholarships, 1)
	assert.True(t, snap.Scholarships[0].IsOpen)
	assert.Equal(t, addr, snap.Scholarships[0].Donor)
	// The escrow (10 per applicant x 5 applicants) left the donor's balance.
	assert.EqualValues(t, 50, syncer.View(addr).Balance)

	// The next creation derives its id from the refreshed count.
	out, id = svc.CreateScholarship(ctx, futureDraft())
	require.Equal(t, platform.Success, out.Kind)
	assert.EqualValues(t, 1001, id)

	out = svc.ApplyForScholarship(ctx, 1000, 3, string(scholarship.FieldScience))
	require.Equal(t, platform.Success, out.Kind)
	assert.Equal(t, []aptos.U64{1000}, syncer.View(addr).Applied)

	out = svc.DistributeScholarship(ctx, 1000)
	require.Equal(t, platform.Success, out.Kind)
	snap = syncer.Current()
	assert.False(t, snap.Scholarships[0].IsOpen)
	assert.True(t, snap.Scholarships[1].IsOpen)

	// Distribution is irreversible; a repeat reads as already done.
	out = svc.DistributeScholarship(ctx, 1000)
	require.Equal(t, platform.LedgerRejected, out.Kind)
	assert.True(t, out.AlreadyDone)
}

// TestService_ApplyRejectedByCriteria verifies the ledger's GPA check comes
// back as a rejection carrying the abort reason.
func TestService_ApplyRejectedByCriteria(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, "0xdonor")

	require.Equal(t, platform.Success, svc.InitializeBalance(ctx).Kind)
	require.Equal(t, platform.Success, svc.IssueTokens(ctx, 100).Kind)
	_, id := svc.CreateScholarship(ctx, futureDraft())
	require.EqualValues(t, 1000, id)

	out := svc.ApplyForScholarship(ctx, 1000, 2, string(scholarship.FieldScience))
	assert.Equal(t, platform.LedgerRejected, out.Kind)
	assert.Contains(t, out.VMStatus, "E_GPA_TOO_LOW")
	assert.False(t, out.AlreadyDone)
}

// TestService_ReadOnly verifies a service without a signer serves reads and
// fails every mutation fast.
func TestService_ReadOnly(t *testing.T) {
	ctx := context.Background()
	svc, syncer, node := newTestService(t, "")

	node.scholarships = append(node.scholarships, scholarship.Scholarship{
		ScholarshipID: 1000, Name: "Seeded", Donor: "0xother", IsOpen: true, Recipients: []string{},
	})

	require.NoError(t, syncer.RefreshAll(ctx, ""))
	assert.Len(t, syncer.Current().Scholarships, 1)

	assert.Equal(t, platform.NotConnected, svc.InitializeBalance(ctx).Kind)
	assert.Equal(t, platform.NotConnected, svc.DistributeScholarship(ctx, 1000).Kind)

	out, _ := svc.CreateScholarship(ctx, futureDraft())
	assert.Equal(t, platform.NotConnected, out.Kind)
	assert.Empty(t, svc.SignerAddress())
}

// TestService_LocalValidation verifies client-side checks fire before any
// signing or submission.
func TestService_LocalValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, node := newTestService(t, "0xdonor")

	out := svc.IssueTokens(ctx, 0)
	assert.Equal(t, platform.ValidationFailed, out.Kind)

	bad := futureDraft()
	bad.Name = ""
	out, _ = svc.CreateScholarship(ctx, bad)
	assert.Equal(t, platform.ValidationFailed, out.Kind)

	out = svc.ApplyForScholarship(ctx, 1000, 3, "Alchemy")
	assert.Equal(t, platform.ValidationFailed, out.Kind)

	node.mu.Lock()
	defer node.mu.Unlock()
	assert.Zero(t, node.seq, "no transaction reached the node")
}

// TestService_CreateDerivesIDFromFreshCount verifies the count is re-read
// immediately before each creation, not taken from a stale snapshot.
func TestService_CreateDerivesIDFromFreshCount(t *testing.T) {
	ctx := context.Background()
	svc, syncer, node := newTestService(t, "0xdonor")

	require.Equal(t, platform.Success, svc.InitializeBalance(ctx).Kind)
	require.Equal(t, platform.Success, svc.IssueTokens(ctx, 1000).Kind)

	// Another creator lands three scholarships behind this client's back.
	node.mu.Lock()
	for i := 0; i < 3; i++ {
		node.scholarships = append(node.scholarships, scholarship.Scholarship{
			ScholarshipID: scholarship.DeriveID(i), Donor: "0xother", IsOpen: true, Recipients: []string{},
		})
	}
	node.mu.Unlock()

	out, id := svc.CreateScholarship(ctx, futureDraft())
	require.Equal(t, platform.Success, out.Kind)
	assert.EqualValues(t, 1003, id)
	assert.Len(t, syncer.Current().Scholarships, 4)
}
