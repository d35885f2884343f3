package controller

import (
	"net/http"

	"github.com/aptedu/scholarx/pkg/scholarship"
	"github.com/aptedu/scholarx/pkg/utils"
	"go.uber.org/zap"
)

// viewerAddress resolves the address a read is scoped to: explicit query
// parameter first, connected signer otherwise.
func (c *Controller) viewerAddress(r *http.Request) string {
	if addr := r.URL.Query().Get("address"); addr != "" {
		return addr
	}
	return c.App.Service.SignerAddress()
}

// HandleListScholarships re-reads the full collection and serves the freshly
// published snapshot. Stale-but-published beats fresh-but-partial: on fetch
// failure the previous snapshot is served with a warning log.
func (c *Controller) HandleListScholarships(w http.ResponseWriter, r *http.Request) {
	if _, err := c.App.Syncer.FetchAllScholarships(r.Context()); err != nil {
		c.App.Logger.Warn("scholarship refresh failed, serving last snapshot", zap.Error(err))
	}
	snap := c.App.Syncer.Current()
	rows := make([]scholarshipRow, 0, len(snap.Scholarships))
	for _, sch := range snap.Scholarships {
		rows = append(rows, newScholarshipRow(sch))
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"fetched_at":   snap.FetchedAt,
		"count":        snap.Count,
		"scholarships": rows,
	})
}

func (c *Controller) HandleCreatedScholarships(w http.ResponseWriter, r *http.Request) {
	addr := c.viewerAddress(r)
	if addr == "" {
		utils.WriteError(w, http.StatusBadRequest, "address required")
		return
	}
	list, err := c.App.Syncer.FetchCreatedBy(r.Context(), addr)
	if err != nil {
		utils.WriteError(w, http.StatusBadGateway, "failed to fetch created scholarships")
		c.App.Logger.Warn("created-by fetch failed", zap.String("address", addr), zap.Error(err))
		return
	}
	rows := make([]scholarshipRow, 0, len(list))
	for _, sch := range list {
		rows = append(rows, newScholarshipRow(sch))
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"address":      addr,
		"scholarships": rows,
	})
}

func (c *Controller) HandleAppliedScholarships(w http.ResponseWriter, r *http.Request) {
	addr := c.viewerAddress(r)
	if addr == "" {
		utils.WriteError(w, http.StatusBadRequest, "address required")
		return
	}
	ids, err := c.App.Syncer.FetchApplied(r.Context(), addr)
	if err != nil {
		utils.WriteError(w, http.StatusBadGateway, "failed to fetch applied scholarships")
		c.App.Logger.Warn("applied fetch failed", zap.String("address", addr), zap.Error(err))
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"address":         addr,
		"scholarship_ids": ids,
	})
}

func (c *Controller) HandleBalance(w http.ResponseWriter, r *http.Request) {
	addr := c.viewerAddress(r)
	if addr == "" {
		utils.WriteError(w, http.StatusBadRequest, "address required")
		return
	}
	bal, err := c.App.Syncer.FetchBalance(r.Context(), addr)
	if err != nil {
		utils.WriteError(w, http.StatusBadGateway, "failed to fetch balance")
		c.App.Logger.Warn("balance fetch failed", zap.String("address", addr), zap.Error(err))
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"address": addr,
		"balance": bal,
	})
}

// scholarshipRow is a listing entry: the raw record plus the presentation
// fields every listing renders identically.
type scholarshipRow struct {
	scholarship.Scholarship
	Status       string `json:"status"`
	EndTimeLabel string `json:"end_time_label"`
}

func newScholarshipRow(sch scholarship.Scholarship) scholarshipRow {
	return scholarshipRow{
		Scholarship:  sch,
		Status:       scholarship.StatusLabel(sch.IsOpen),
		EndTimeLabel: scholarship.FormatEndTime(uint64(sch.EndTime)),
	}
}
