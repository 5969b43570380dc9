package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spbunet/api/internal/config"
	"spbunet/api/internal/db"
	"spbunet/api/internal/httpapi"
	"spbunet/api/internal/jobs"
	"spbunet/api/internal/logging"
	"spbunet/api/internal/store"
	"spbunet/api/internal/supabase"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer pool.Close()

	version, err := db.Migrate(cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.WithError(err).Fatal("db migrate")
	}
	log.WithField("version", version).Info("schema up to date")

	if cfg.Seed {
		if err := db.Seed(ctx, pool); err != nil {
			log.WithError(err).Fatal("db seed")
		}
	}

	st := store.New(pool)

	deps := httpapi.Deps{Store: st, Config: cfg, Log: log}
	if auth, err := supabase.New(supabase.Config{
		URL:            cfg.SupabaseURL,
		AnonKey:        cfg.SupabaseAnonKey,
		ServiceRoleKey: cfg.SupabaseServiceRoleKey,
	}); err != nil {
		log.WithError(err).Warn("supabase auth disabled; admin login unavailable")
	} else {
		deps.Auth = auth
	}
	if len(cfg.AdminSecretHash) == 0 {
		log.Warn("ADMIN_SECRET not set; shared-secret admin access disabled")
	}

	scheduler := jobs.New(st, log)
	if err := scheduler.Start(); err != nil {
		log.WithError(err).Fatal("start jobs")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("SPBU network site listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	scheduler.Stop(shutdownCtx)
}
