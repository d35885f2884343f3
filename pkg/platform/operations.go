// Package platform drives the ScholarshipPlatform Move module: it builds
// entry-function requests, delegates signing to the wallet collaborator,
// submits through the ledger gateway, waits for finality, and classifies the
// outcome. Nothing here renders UI; callers consume classified outcomes and
// the synchronizer's snapshots.
package platform

import (
	"fmt"

	"github.com/aptedu/scholarx/pkg/aptos"
)

// Operation names the fixed set of functions the client consumes.
type Operation string

// Mutating entry functions.
const (
	OpInitializeBalance      Operation = "initialize_balance"
	OpIssueTokens            Operation = "issue_tokens"
	OpInitializeScholarships Operation = "initialize_scholarships"
	OpCreateScholarship      Operation = "create_scholarship"
	OpApplyForScholarship    Operation = "apply_for_scholarship"
	OpDistributeScholarship  Operation = "distribute_scholarship"
	OpEmergencyClose         Operation = "emergency_close_scholarship"
)

// Read-only view functions.
const (
	ViewAllScholarships      Operation = "view_all_scholarships"
	ViewScholarshipsByDonor  Operation = "view_all_scholarships_created_by_address"
	ViewAppliedScholarships  Operation = "view_all_scholarships_applied_by_address"
	ViewAccountBalance       Operation = "view_account_balance"
)

// ArgKind is the positional argument type an operation expects.
type ArgKind int

const (
	ArgU64 ArgKind = iota
	ArgString
	ArgAddress
)

// argSchemas fixes the positional argument schema per operation. A mismatch
// against these is a caller programming error, not a runtime condition.
var argSchemas = map[Operation][]ArgKind{
	OpInitializeBalance:      {},
	OpIssueTokens:            {ArgU64},
	OpInitializeScholarships: {},
	OpCreateScholarship:      {ArgU64, ArgString, ArgU64, ArgU64, ArgU64, ArgString, ArgU64},
	OpApplyForScholarship:    {ArgU64, ArgU64, ArgString},
	OpDistributeScholarship:  {ArgU64},
	OpEmergencyClose:         {ArgU64},

	ViewAllScholarships:     {},
	ViewScholarshipsByDonor: {ArgAddress},
	ViewAppliedScholarships: {ArgAddress},
	ViewAccountBalance:      {ArgAddress},
}

const entryFunctionPayloadType = "entry_function_payload"

// Module locates the deployed Move module the operations live in.
type Module struct {
	Address string
	Name    string
}

// FunctionID renders the fully qualified function identifier.
func (m Module) FunctionID(op Operation) string {
	return fmt.Sprintf("%s::%s::%s", m.Address, m.Name, op)
}

// BuildPayload constructs the entry-function payload for op, enforcing the
// fixed positional schema. u64 arguments marshal as decimal strings per the
// fullnode convention.
func BuildPayload(m Module, op Operation, args ...any) (*aptos.EntryFunctionPayload, error) {
	encoded, err := encodeArgs(op, args)
	if err != nil {
		return nil, err
	}
	return &aptos.EntryFunctionPayload{
		Type:          entryFunctionPayloadType,
		Function:      m.FunctionID(op),
		TypeArguments: []string{},
		Arguments:     encoded,
	}, nil
}

// BuildViewRequest constructs the request for a read-only view function.
func BuildViewRequest(m Module, op Operation, args ...any) (aptos.ViewRequest, error) {
	encoded, err := encodeArgs(op, args)
	if err != nil {
		return aptos.ViewRequest{}, err
	}
	return aptos.ViewRequest{
		Function:      m.FunctionID(op),
		TypeArguments: []string{},
		Arguments:     encoded,
	}, nil
}

func encodeArgs(op Operation, args []any) ([]any, error) {
	schema, ok := argSchemas[op]
	if !ok {
		return nil, fmt.Errorf("%w: unknown operation %q", ErrArgumentSchema, op)
	}
	if len(args) != len(schema) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrArgumentSchema, op, len(schema), len(args))
	}
	encoded := make([]any, len(args))
	for i, arg := range args {
		v, err := encodeArg(schema[i], arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s argument %d: %v", ErrArgumentSchema, op, i, err)
		}
		encoded[i] = v
	}
	return encoded, nil
}

func encodeArg(kind ArgKind, arg any) (any, error) {
	switch kind {
	case ArgU64:
		switch v := arg.(type) {
		case aptos.U64:
			return v, nil
		case uint64:
			return aptos.U64(v), nil
		case int:
			if v < 0 {
				return nil, fmt.Errorf("negative value %d for u64", v)
			}
			return aptos.U64(v), nil
		default:
			return nil, fmt.Errorf("want u64, got %T", arg)
		}
	case ArgString, ArgAddress:
		s, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", arg)
		}
		if kind == ArgAddress && s == "" {
			return nil, fmt.Errorf("empty address")
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown argument kind %d", kind)
}
