// Package client wires the scholarship-platform ledger client: gateway,
// wallet, submitter, synchronizer, and the HTTP/WebSocket surface.
package client

import (
	"context"
	"net/http"
	"time"

	"github.com/aptedu/scholarx/app/client/types"
	"github.com/aptedu/scholarx/pkg/aptos"
	"github.com/aptedu/scholarx/pkg/logging"
	"github.com/aptedu/scholarx/pkg/platform"
	"github.com/aptedu/scholarx/pkg/state"
	"github.com/aptedu/scholarx/pkg/utils"
	"github.com/aptedu/scholarx/pkg/wallet"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// defaultModuleAddress is the testnet deployment of the ScholarshipPlatform
// Move module.
const defaultModuleAddress = "0x25c8f2d9f9f8da2e858ce241b17fc32b9a157977dd1c8089b39115a5c459b4e7"

// Initialize builds the application from the environment.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	module := platform.Module{
		Address: utils.Env("MODULE_ADDRESS", defaultModuleAddress),
		Name:    utils.Env("MODULE_NAME", "ScholarshipPlatform"),
	}
	network := utils.Env("NETWORK", "testnet")

	gateway := aptos.NewWithOpts(aptos.Opts{
		Endpoints:       utils.EnvList("NODE_URLS", []string{"https://fullnode." + network + ".aptoslabs.com"}),
		RPS:             utils.EnvInt("GATEWAY_RPS", 20),
		Burst:           utils.EnvInt("GATEWAY_BURST", 40),
		PollInterval:    utils.EnvDuration("FINALITY_POLL_INTERVAL", 500*time.Millisecond),
		FinalityTimeout: utils.EnvDuration("FINALITY_TIMEOUT", 30*time.Second),
	})

	var signer wallet.Signer
	if seed := utils.Env("WALLET_PRIVATE_KEY", ""); seed != "" {
		account, accErr := wallet.NewAccountFromSeed(seed)
		if accErr != nil {
			logger.Fatal("Invalid WALLET_PRIVATE_KEY", zap.Error(accErr))
		}
		signer = wallet.NewLocalSigner(account)
		logger.Info("Wallet connected", zap.String("address", account.Address()))
	} else {
		logger.Warn("No wallet configured; mutating operations will fail as not_connected")
	}

	syncer := state.NewSyncer(gateway, module, logger)

	var publisher *state.Publisher
	if utils.Env("REDIS_ENABLED", "false") == "true" {
		publisher, err = state.NewPublisher(ctx, logger)
		if err != nil {
			logger.Fatal("Unable to connect to Redis", zap.Error(err))
		}
		syncer.SetPublisher(publisher)
	}

	submitter := platform.NewSubmitter(gateway, module, logger)
	service := platform.NewService(submitter, syncer, signer, logger)

	app := &types.App{
		Logger:    logger,
		Gateway:   gateway,
		Module:    module,
		Syncer:    syncer,
		Service:   service,
		Publisher: publisher,
		CronSpec:  utils.Env("REFRESH_CRON", "*/30 * * * * *"),
	}

	if err := NewServer(app); err != nil {
		logger.Fatal("Unable to set up server", zap.Error(err))
	}
	if err := SetupScheduler(ctx, app); err != nil {
		logger.Fatal("Unable to set up scheduler", zap.Error(err))
	}

	logger.Info("Initialized",
		zap.String("module", module.Address+"::"+module.Name),
		zap.String("network", network))

	return app
}

// SetupScheduler sets up the periodic snapshot refresh.
func SetupScheduler(ctx context.Context, app *types.App) error {
	app.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	_, err := app.Cron.AddFunc(app.CronSpec, func() {
		// keep each run bounded
		rctx, cancel := context.WithTimeout(ctx, 25*time.Second)
		defer cancel()
		if err := app.Syncer.RefreshAll(rctx, app.Service.SignerAddress()); err != nil {
			app.Logger.Warn("periodic refresh failed", zap.Error(err))
		}
	})
	return err
}

// Start runs the initial load, the scheduler, and the HTTP server, then
// blocks until the context is cancelled.
func Start(ctx context.Context, app *types.App) {
	// Initial load mirrors a page open: all four fetches race, each filling
	// its own cache slot.
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := app.Syncer.RefreshAll(loadCtx, app.Service.SignerAddress()); err != nil {
		app.Logger.Warn("initial refresh incomplete", zap.Error(err))
	}
	cancel()

	app.Cron.Start()
	app.Logger.Info("Cron started", zap.String("cronSpec", app.CronSpec))

	go func() {
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Error("server stopped", zap.Error(err))
		}
	}()
	app.Logger.Info("Serving", zap.String("addr", app.Server.Addr))

	<-ctx.Done()
	Stop(app)
}

// Stop shuts everything down in reverse order.
func Stop(app *types.App) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.Server.Shutdown(shutdownCtx)

	if app.Cron != nil {
		<-app.Cron.Stop().Done()
	}
	if app.Publisher != nil {
		_ = app.Publisher.Close()
	}
	time.Sleep(200 * time.Millisecond)
	app.Logger.Info("さようなら!")
}
