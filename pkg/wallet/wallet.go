// Package wallet is the signer collaborator boundary. The submitter hands it
// a raw transaction and gets back a signed one; interactive wallets may also
// hand back a user rejection, which classification treats as UserDeclined.
package wallet

import (
	"context"
	"encoding/hex"

	"github.com/aptedu/scholarx/pkg/aptos"
)

const ed25519SignatureType = "ed25519_signature"

// Signer signs raw transactions on behalf of a connected account.
type Signer interface {
	// Address is the 0x-prefixed account address of the connected signer.
	Address() string
	// Sign produces a signed transaction, or *RejectedError if the user
	// declined the signing prompt.
	Sign(ctx context.Context, tx *aptos.RawTransaction) (*aptos.SignedTransaction, error)
}

// LocalSigner signs with an in-process keypair. It never declines.
type LocalSigner struct {
	account *Account
}

// NewLocalSigner wraps an account as a Signer.
func NewLocalSigner(account *Account) *LocalSigner {
	return &LocalSigner{account: account}
}

func (s *LocalSigner) Address() string { return s.account.Address() }

func (s *LocalSigner) Sign(_ context.Context, tx *aptos.RawTransaction) (*aptos.SignedTransaction, error) {
	msg, err := tx.SigningMessage()
	if err != nil {
		return nil, err
	}
	sig := s.account.sign(msg)
	return &aptos.SignedTransaction{
		Sender:  tx.Sender,
		Payload: tx.Payload,
		Signature: &aptos.Signature{
			Type:      ed25519SignatureType,
			PublicKey: s.account.PublicKeyHex(),
			Signature: "0x" + hex.EncodeToString(sig),
		},
	}, nil
}
