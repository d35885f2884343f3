package controller

import (
	"net/http"

	"github.com/aptedu/scholarx/pkg/utils"
)

func (c *Controller) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReady reports ready once at least one snapshot was fetched, so a UI
// never renders from a cache that was never populated.
func (c *Controller) HandleReady(w http.ResponseWriter, _ *http.Request) {
	snap := c.App.Syncer.Current()
	if snap.FetchedAt.IsZero() {
		utils.WriteError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
