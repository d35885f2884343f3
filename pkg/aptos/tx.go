package aptos

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// SubmitTransaction submits a signed transaction and returns the hash to poll.
// A 4xx answer surfaces as *RejectedError; connectivity problems across all
// endpoints surface as *TransportError.
func (c *Client) SubmitTransaction(ctx context.Context, tx *SignedTransaction) (*PendingTransaction, error) {
	var pending PendingTransaction
	if err := c.doJSON(ctx, http.MethodPost, transactionsPath, tx, &pending); err != nil {
		return nil, err
	}
	return &pending, nil
}

// TransactionByHash fetches a transaction by hash. ErrNotFound means the hash
// has not propagated to the queried node yet.
func (c *Client) TransactionByHash(ctx context.Context, hash string) (*Transaction, error) {
	var tx Transaction
	if err := c.doJSON(ctx, http.MethodGet, txByHashPath+hash, nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// WaitForTransaction polls the transaction until its outcome is finalized,
// bounded by the configured finality timeout. A transaction that finalized
// unsuccessfully returns *AbortError with the vm_status; giving up before the
// outcome is determined returns *TransportError since the submission may
// still land either way, wrapping ErrFinalityTimeout when the budget elapsed
// or the caller's context error when the wait was cancelled.
func (c *Client) WaitForTransaction(parent context.Context, hash string) (*Transaction, error) {
	ctx, cancel := context.WithTimeout(parent, c.finalityTimeout)
	defer cancel()

	// A caller cancel is reported as such; only an elapsed finality budget is
	// a timeout.
	giveUp := func() error {
		cause := error(ErrFinalityTimeout)
		if parent.Err() != nil {
			cause = parent.Err()
		}
		return &TransportError{Op: "wait " + hash, Err: cause}
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		tx, err := c.TransactionByHash(ctx, hash)
		switch {
		case errors.Is(err, ErrNotFound):
			// Not propagated yet, keep polling.
		case err != nil:
			var te *TransportError
			if errors.As(err, &te) && ctx.Err() != nil {
				return nil, giveUp()
			}
			return nil, err
		case tx.Finalized():
			if !tx.Success {
				return tx, &AbortError{Hash: hash, VMStatus: tx.VMStatus}
			}
			return tx, nil
		}

		select {
		case <-ctx.Done():
			return nil, giveUp()
		case <-ticker.C:
		}
	}
}
