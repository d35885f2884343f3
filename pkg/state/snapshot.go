// Package state keeps the client's view of ledger-owned state: one immutable
// snapshot per concern, wholesale-replaced on every successful fetch. There
// is no incremental merge — the only legal update is "replace the cache slot
// with the latest ledger read."
package state

import (
	"time"

	"github.com/aptedu/scholarx/pkg/aptos"
	"github.com/aptedu/scholarx/pkg/scholarship"
)

// Snapshot is the point-in-time view of the full scholarship collection.
// Consumers read whole snapshots through Syncer.Current; a snapshot is never
// mutated after publication.
type Snapshot struct {
	FetchedAt    time.Time                 `json:"fetched_at"`
	Scholarships []scholarship.Scholarship `json:"scholarships"`
	Count        int                       `json:"count"`
}

// AccountView is the per-address slice of the cache: what this viewer
// created, applied to, and holds.
type AccountView struct {
	Address string                    `json:"address"`
	Created []scholarship.Scholarship `json:"created"`
	Applied []aptos.U64               `json:"applied"`
	Balance uint64                    `json:"balance"`
}
