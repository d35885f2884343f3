package aptos

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// U64 marshals as a decimal string, the way the fullnode API encodes u64
// values, and accepts both string and number forms on decode.
type U64 uint64

func (u U64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

func (u *U64) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("u64 %q: %w", s, err)
		}
		*u = U64(n)
		return nil
	}
	var n uint64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*u = U64(n)
	return nil
}

// EntryFunctionPayload identifies a mutating Move entry function and its
// ordered arguments: `<address>::<module>::<name>`.
type EntryFunctionPayload struct {
	Type          string   `json:"type"`
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

// RawTransaction is the unsigned request handed to the wallet collaborator.
// Signing covers its canonical JSON encoding.
type RawTransaction struct {
	Sender  string                `json:"sender"`
	Payload *EntryFunctionPayload `json:"payload"`
}

// SigningMessage returns the canonical bytes the wallet signs.
func (t *RawTransaction) SigningMessage() ([]byte, error) {
	return json.Marshal(t)
}

// Signature is an ed25519 account signature over the raw transaction.
type Signature struct {
	Type      string `json:"type"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

// SignedTransaction is what gets submitted to the ledger.
type SignedTransaction struct {
	Sender    string                `json:"sender"`
	Payload   *EntryFunctionPayload `json:"payload"`
	Signature *Signature            `json:"signature"`
}

// PendingTransaction is the submission acknowledgement: the hash to poll.
type PendingTransaction struct {
	Hash string `json:"hash"`
}

// Transaction is a transaction as reported by the fullnode. Type stays
// "pending_transaction" until the outcome is finalized; after that Success
// and VMStatus carry the irrevocable result.
type Transaction struct {
	Type     string `json:"type"`
	Hash     string `json:"hash"`
	Success  bool   `json:"success"`
	VMStatus string `json:"vm_status"`
	Version  U64    `json:"version"`
}

const pendingTransactionType = "pending_transaction"

// Finalized reports whether the outcome is determined.
func (t *Transaction) Finalized() bool {
	return t.Type != "" && t.Type != pendingTransactionType
}

// ViewRequest is a read-only function call; no signature, no finality.
type ViewRequest struct {
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

// nodeError is the JSON error body the fullnode returns on 4xx.
type nodeError struct {
	Message     string `json:"message"`
	ErrorCode   string `json:"error_code"`
	VMErrorCode int    `json:"vm_error_code"`
}
