package controller

import (
	"net/http"

	"github.com/aptedu/scholarx/app/client/types"
	"github.com/aptedu/scholarx/pkg/platform"
	"github.com/aptedu/scholarx/pkg/utils"
	"github.com/gorilla/mux"
)

type Controller struct {
	App *types.App
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{App: app}
}

// NewRouter registers the API surface.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", c.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", c.HandleReady).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/scholarships", c.HandleListScholarships).Methods(http.MethodGet)
	v1.HandleFunc("/scholarships/created", c.HandleCreatedScholarships).Methods(http.MethodGet)
	v1.HandleFunc("/scholarships/applied", c.HandleAppliedScholarships).Methods(http.MethodGet)
	v1.HandleFunc("/balance", c.HandleBalance).Methods(http.MethodGet)

	v1.HandleFunc("/balance/initialize", c.HandleInitializeBalance).Methods(http.MethodPost)
	v1.HandleFunc("/tokens/issue", c.HandleIssueTokens).Methods(http.MethodPost)
	v1.HandleFunc("/scholarships/initialize", c.HandleInitializeScholarships).Methods(http.MethodPost)
	v1.HandleFunc("/scholarships", c.HandleCreateScholarship).Methods(http.MethodPost)
	v1.HandleFunc("/scholarships/{id:[0-9]+}/apply", c.HandleApply).Methods(http.MethodPost)
	v1.HandleFunc("/scholarships/{id:[0-9]+}/distribute", c.HandleDistribute).Methods(http.MethodPost)
	v1.HandleFunc("/scholarships/{id:[0-9]+}/close", c.HandleEmergencyClose).Methods(http.MethodPost)

	v1.HandleFunc("/events", c.HandleWebSocket).Methods(http.MethodGet)

	return r, nil
}

// WithCORS is a middleware that adds CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusFor maps a classification kind to the HTTP status the API answers
// with. The body always carries the classified outcome.
func statusFor(kind platform.Kind) int {
	switch kind {
	case platform.Success:
		return http.StatusOK
	case platform.ValidationFailed:
		return http.StatusBadRequest
	case platform.NotConnected, platform.UserDeclined:
		return http.StatusConflict
	case platform.LedgerRejected:
		return http.StatusUnprocessableEntity
	case platform.TransportFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeOutcome(w http.ResponseWriter, out *platform.Outcome) {
	utils.WriteJSON(w, statusFor(out.Kind), out)
}
