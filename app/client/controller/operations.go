package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aptedu/scholarx/pkg/scholarship"
	"github.com/aptedu/scholarx/pkg/utils"
	"github.com/gorilla/mux"
)

func (c *Controller) HandleInitializeBalance(w http.ResponseWriter, r *http.Request) {
	writeOutcome(w, c.App.Service.InitializeBalance(r.Context()))
}

func (c *Controller) HandleIssueTokens(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount uint64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeOutcome(w, c.App.Service.IssueTokens(r.Context(), body.Amount))
}

func (c *Controller) HandleInitializeScholarships(w http.ResponseWriter, r *http.Request) {
	writeOutcome(w, c.App.Service.InitializeScholarships(r.Context()))
}

func (c *Controller) HandleCreateScholarship(w http.ResponseWriter, r *http.Request) {
	var draft scholarship.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, id := c.App.Service.CreateScholarship(r.Context(), draft)
	utils.WriteJSON(w, statusFor(out.Kind), map[string]any{
		"outcome":        out,
		"scholarship_id": id,
	})
}

func (c *Controller) HandleApply(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		GPA          uint64 `json:"gpa"`
		FieldOfStudy string `json:"field_of_study"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeOutcome(w, c.App.Service.ApplyForScholarship(r.Context(), id, body.GPA, body.FieldOfStudy))
}

func (c *Controller) HandleDistribute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	writeOutcome(w, c.App.Service.DistributeScholarship(r.Context(), id))
}

func (c *Controller) HandleEmergencyClose(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	writeOutcome(w, c.App.Service.EmergencyCloseScholarship(r.Context(), id))
}

func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid scholarship id")
		return 0, false
	}
	return id, true
}
