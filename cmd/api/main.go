package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-store-engine/internal/config"
	"github.com/ariefcatur/go-store-engine/internal/engine"
	"github.com/ariefcatur/go-store-engine/internal/httpx"
	"github.com/ariefcatur/go-store-engine/internal/idempotency"
	kafkax "github.com/ariefcatur/go-store-engine/internal/kafka"
	"github.com/ariefcatur/go-store-engine/internal/orders"
	"github.com/ariefcatur/go-store-engine/internal/redisx"
	"github.com/ariefcatur/go-store-engine/internal/store"
	"github.com/ariefcatur/go-store-engine/internal/telemetry"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry (no-op kalau endpoint kosong)
	shutdownTel, err := telemetry.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}

	// Idempotency cache
	var cache idempotency.Cache
	switch cfg.IdempotencyBackend {
	case config.BackendRedis:
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		cache = idempotency.NewRedis(rdb, cfg.IdempotencyTTL)
	case config.BackendMemory:
		cache = idempotency.NewMemory(cfg.IdempotencyMaxEntries, cfg.IdempotencyTTL)
	default:
		log.Fatalf("unknown IDEMPOTENCY_BACKEND %q", cfg.IdempotencyBackend)
	}

	opts := engine.Options{Cache: cache}

	// Kafka producer (opsional)
	var prod *kafkax.Producer
	if cfg.EventsEnabled {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
		prod.Start(ctx)
		opts.Notifier = &kafkax.OrderPublisher{P: prod, Service: cfg.ServiceName}
	}

	eng := engine.New(store.New(), opts)
	router := httpx.NewRouter()
	httpx.NewStoreHandler(eng).Register(router)

	srv := httpx.NewServer(cfg.HTTPAddr, router)

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s (idempotency=%s events=%v)", cfg.HTTPAddr, cfg.IdempotencyBackend, cfg.EventsEnabled)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close()      // tutup inbox -> flush & close writer
		prod.WaitClosed() // drain
	}
	if err := shutdownTel(ctx2); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
}
