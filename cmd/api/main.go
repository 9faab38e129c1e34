package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/unitledger/inventory-backend/config"
	apimw "github.com/unitledger/inventory-backend/internal/api/http/middleware"
	"github.com/unitledger/inventory-backend/internal/bootstrap"
	"github.com/unitledger/inventory-backend/internal/logging"
	cronjob "github.com/unitledger/inventory-backend/internal/uploads/cron"
	uploadservice "github.com/unitledger/inventory-backend/internal/uploads/service"
	"github.com/unitledger/inventory-backend/internal/uploads/storage"
)

const (
	shutdownTimeout  = 10 * time.Second
	limiterPruneSpec = "0 */5 * * * *"
	limiterIdle      = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Base().WithError(err).Fatal("failed to load config")
	}

	log := logging.Setup(cfg.App.LogLevel, cfg.App.Environment)
	bootstrap.SetGinMode(cfg.App.Environment)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer store.Close()
	if store.Embedded {
		log.Warn("REDIS_ADDR not set, using in-process store; data is lost on restart")
	}

	files, err := storage.NewFileManager(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		return err
	}

	limiter := apimw.NewUserRateLimiter(cfg.Upload.RatePerMinute)

	sweeper := cronjob.NewScheduler(files, cfg.Upload.TempTTL, "", log)
	if err := sweeper.AddJob(limiterPruneSpec, "prune_rate_limits", func() {
		if n := limiter.PruneIdle(limiterIdle); n > 0 {
			log.WithField("removed", n).Debug("pruned idle rate limiters")
		}
	}); err != nil {
		return err
	}
	if err := sweeper.Start(); err != nil {
		return err
	}
	defer sweeper.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:  cfg.App.ServiceName,
		Version:      cfg.App.Version,
		ClientURL:    cfg.Server.ClientURL,
		AllowAnyCORS: !cfg.IsProduction(),
		Redis:        store.Client,
		Store:        store,
		Files:        files,
		JWTSecret:    cfg.Auth.JWTSecret,
		TokenTTL:     cfg.Auth.TokenTTL,
		UploadOptions: uploadservice.Options{
			UnitWriteDelay: cfg.Upload.UnitWriteDelay,
			PricingDelay:   cfg.Upload.PricingDelay,
			NotifyDelay:    cfg.Upload.NotifyDelay,
			Timeout:        cfg.Upload.Timeout,
		},
		UploadsPerMin: cfg.Upload.RatePerMinute,
		UploadLimiter: limiter,
	})

	srv := newServer(ctx, ":"+cfg.Server.Port, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.App.Environment,
			"upload_dir":  files.Dir(),
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newServer ties every request context to ctx, so open event streams end as
// soon as shutdown starts instead of holding Shutdown until its deadline.
func newServer(ctx context.Context, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}
