package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/catalog"
	"github.com/apper-canvas/market-mosaic-media/internal/checkout"
	"github.com/apper-canvas/market-mosaic-media/internal/config"
	"github.com/apper-canvas/market-mosaic-media/internal/events"
	storegrpc "github.com/apper-canvas/market-mosaic-media/internal/grpc"
	h "github.com/apper-canvas/market-mosaic-media/internal/http"
	"github.com/apper-canvas/market-mosaic-media/internal/logger"
	"github.com/apper-canvas/market-mosaic-media/internal/notify"
	"github.com/apper-canvas/market-mosaic-media/internal/session"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	zap.ReplaceGlobals(zlog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("storefront stopped with error", zap.Error(err))
	}
	zlog.Info("storefront stopped")
}

func run(ctx context.Context, cfg *config.Config, zlog *zap.Logger) error {
	shutdownTracing := initTracing()
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			zlog.Warn("tracer provider shutdown failed", zap.Error(err))
		}
	}()

	st, err := openStores(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer st.close()

	catalogService := catalog.NewService(st.products, st.cache, zlog)

	sinks := notify.Multi{notify.NewLogSink(zlog)}
	var publisher session.OrderPublisher
	if len(cfg.KafkaBrokers) > 0 {
		notificationWriter := notify.NewKafkaWriter(cfg.NotificationsTopic, cfg.KafkaBrokers...)
		st.onClose(notificationWriter.Close)
		sinks = append(sinks, notify.NewKafkaSink(notificationWriter))

		orderPublisher := events.NewOrderPublisher(events.NewOrderWriter(cfg.OrdersTopic, cfg.KafkaBrokers...))
		st.onClose(orderPublisher.Close)
		publisher = orderPublisher

		consumer := events.NewCatalogConsumer(
			events.NewCatalogReader(cfg.CatalogTopic, cfg.KafkaGroupID, cfg.KafkaBrokers...),
			catalogService,
			zlog.Named("catalog-consumer"))
		defer consumer.Close()
		go consumer.Run(ctx)
		zlog.Info("kafka enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	sessions := session.NewManager(session.Options{
		Persistence:            st.persistence,
		Rollback:               cfg.CartSyncRollback,
		Validator:              checkout.NewStaticValidator(cfg.PromoLatency),
		Orders:                 st.orders,
		FreeshipWaivesDelivery: cfg.FreeshipWaivesDelivery,
		Sink:                   sinks,
		Publisher:              publisher,
		IdleTTL:                cfg.SessionIdleTTL,
		SweepInterval:          cfg.SessionSweepInterval,
	}, zlog)
	defer sessions.Stop()

	var limiter *h.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = h.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		defer limiter.Stop()
	}

	handler := h.NewHandler(catalogService, sessions, st.orders, cfg.RequestTimeout, zlog)
	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: h.NewRouter(handler, h.RouterConfig{
			RequestTimeout:     cfg.RequestTimeout,
			MaxRequestBodySize: cfg.MaxRequestBodySize,
			Health:             st.ping,
			RateLimiter:        limiter,
		}, zlog),
		ReadTimeout: 10 * time.Second,
		// promo validation keeps a request open for the configured latency
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port: %w", err)
	}
	healthServer := storegrpc.NewServer(st.ping, zlog)
	go healthServer.Watch(ctx, 15*time.Second)

	serveErr := make(chan error, 2)
	go func() {
		zlog.Info("storefront starting",
			zap.String("http_port", cfg.HTTPPort),
			zap.String("cart_mode", string(cfg.CartMode)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := healthServer.Serve(lis); err != nil {
			serveErr <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}

	zlog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	healthServer.GracefulStop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("server forced to shutdown: %w", err))
	}
	return runErr
}
