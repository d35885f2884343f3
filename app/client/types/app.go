package types

import (
	"net/http"

	"github.com/aptedu/scholarx/pkg/aptos"
	"github.com/aptedu/scholarx/pkg/platform"
	"github.com/aptedu/scholarx/pkg/state"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// App holds the wired client service: the gateway to the ledger, the
// submitter/service pair that drives it, the synchronizer that republishes
// its state, and the HTTP surface the UI consumes.
type App struct {
	Logger *zap.Logger

	Gateway *aptos.Client
	Module  platform.Module
	Syncer  *state.Syncer
	Service *platform.Service

	// Publisher is optional: nil disables out-of-process republication.
	Publisher *state.Publisher

	// Cron triggers the periodic snapshot refresh, according to CronSpec.
	Cron     *cron.Cron
	CronSpec string

	// Server is the HTTP server that serves the API.
	Server *http.Server
}
