package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"coinvest/config"
	"coinvest/internal/cache"
	"coinvest/internal/database"
	"coinvest/internal/logging"
	"coinvest/internal/repository"
	"coinvest/internal/router"
	"coinvest/internal/scheduler"
	"coinvest/internal/service"
	"coinvest/internal/ws"
	"coinvest/pkg/market"
	"coinvest/pkg/media"
	"coinvest/pkg/payment"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log, err := logging.Init(cfg.Server.Env == "production")
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	if envErr != nil {
		log.Debug("no .env file loaded", zap.Error(envErr))
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	if err := database.Seed(db, cfg, repository.GenerateReferralCode); err != nil {
		log.Fatal("seed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var marketCache cache.Cache = cache.NewMemory(cfg.Cache.Size, cfg.Cache.TTL)
	if cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			log.Fatal("redis", zap.Error(err))
		}
		defer rc.Close()
		marketCache = rc
		log.Info("market cache: redis")
	}

	uploader, err := media.New(ctx, &cfg.Media)
	if err != nil {
		log.Fatal("media", zap.Error(err))
	}

	var gateway payment.Gateway
	switch {
	case cfg.Swapuzi.Email != "":
		gateway = payment.NewSwapuziProvider(cfg.Swapuzi.BaseURL, cfg.Swapuzi.Email, cfg.Swapuzi.Password, logging.Named("swapuzi"))
	case cfg.Server.Env != "production":
		gateway = &payment.StubProvider{}
	}

	fcm := service.NewFCMService(ctx, cfg.Firebase.ServiceAccountPath)
	if fcm != nil {
		log.Info("push notifications enabled")
	} else if cfg.Firebase.ServiceAccountPath != "" {
		log.Warn("push notifications disabled: failed to init (check service account file)")
	}

	hub := ws.NewHub()
	app := router.Setup(cfg, db, router.Infra{
		Cache:      marketCache,
		Uploader:   uploader,
		Exchange:   market.NewBinance(cfg.Market.BinanceAPIKey, cfg.Market.BinanceSecretKey),
		Aggregator: market.NewCoinGecko(cfg.Market.CoinGeckoBaseURL),
		Gateway:    gateway,
		FCM:        fcm,
		Hub:        hub,
	})

	jobs := scheduler.New()
	for _, j := range []struct {
		name, spec string
		job        scheduler.Job
	}{
		{"market-ticker", cfg.Market.TickerInterval, scheduler.MarketTicker(app.Markets, hub)},
		{"purge-reset-tokens", "@hourly", scheduler.PurgeResetTokens(app.Resets)},
		{"matured-investments", "@every 5m", scheduler.MaturedInvestments(app.Investments)},
	} {
		if err := jobs.Add(j.name, j.spec, j.job); err != nil {
			log.Fatal("schedule "+j.name, zap.Error(err))
		}
	}
	jobs.Start()
	go app.Limiter.Cleanup(ctx.Done())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	jobs.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
