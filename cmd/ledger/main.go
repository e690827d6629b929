package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-store-engine/internal/config"
	kafkax "github.com/ariefcatur/go-store-engine/internal/kafka"
	"github.com/ariefcatur/go-store-engine/internal/ledger"
	"github.com/ariefcatur/go-store-engine/internal/orders"
	"github.com/ariefcatur/go-store-engine/internal/postgres"
	"github.com/ariefcatur/go-store-engine/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, 30)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	repo := &ledger.Repo{DB: db}
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	name := cfg.ServiceName + "-ledger"
	svc := &ledger.Service{
		Repo:        repo,
		Dedup:       &redisx.Dedup{RDB: rdb, Service: name, TTL: redisx.TTLDedup},
		ServiceName: name,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.LedgerGroup, orders.TopicOrderPlaced, cfg.LedgerWorkers)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Printf("ledger consumer started: group=%s topic=%s workers=%d", cfg.LedgerGroup, orders.TopicOrderPlaced, cfg.LedgerWorkers)
		if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down consumer...")
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Println("consumer did not stop in time")
	}
}
