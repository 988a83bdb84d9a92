package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ipsacon/registration-service/internal/api"
	"github.com/ipsacon/registration-service/internal/api/handlers"
	"github.com/ipsacon/registration-service/internal/api/middleware"
	"github.com/ipsacon/registration-service/internal/cache"
	"github.com/ipsacon/registration-service/internal/config"
	"github.com/ipsacon/registration-service/internal/gateway"
	"github.com/ipsacon/registration-service/internal/notifier"
	"github.com/ipsacon/registration-service/internal/pricing"
	"github.com/ipsacon/registration-service/internal/repository"
	"github.com/ipsacon/registration-service/internal/service"
	"github.com/ipsacon/registration-service/pkg/db"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	conn, err := db.NewPostgresConnection(db.LoadPostgresConfig())
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer conn.Close()

	rdb, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	regRepo := repository.NewRegistrationRepo(conn)
	quota := cache.NewFreeQuota(rdb, cfg.FreeQuotaKey, cfg.Codes.FreeCapacity,
		func(ctx context.Context) (int, error) {
			return regRepo.CountByCoupon(ctx, pricing.Normalize(cfg.Codes.Free))
		})

	svc := service.NewRegistrationService(service.Params{
		Gateway:       gateway.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpaySecret),
		Store:         regRepo,
		Quota:         quota,
		Mail:          notifier.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, logger),
		Log:           logger,
		Tiers:         cfg.Tiers,
		Codes:         cfg.Codes,
		Group:         cfg.Group,
		EventLocation: cfg.EventLocation,
		EventDate:     cfg.EventDate,
	})

	handler := api.NewRouter(handlers.NewPaymentHandler(svc, logger), cfg.AllowedOrigins)

	r := chi.NewRouter()
	r.Use(middleware.Logger(logger))
	r.Mount("/", handler)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		<-c
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("http server shutdown", zap.Error(err))
		}
		close(idleConnsClosed)
	}()

	logger.Info("starting registration-service", zap.String("addr", cfg.HTTPAddr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("listen", zap.Error(err))
	}

	<-idleConnsClosed
	logger.Info("server stopped")
}
