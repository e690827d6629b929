// Package ledger records placed orders into Postgres from the order.placed
// topic. It is a reporting copy; the engine never reads it back.
package ledger

import (
	"context"
	"fmt"
	"log"

	kafkax "github.com/ariefcatur/go-store-engine/internal/kafka"
	"github.com/ariefcatur/go-store-engine/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
)

type Recorder interface {
	Record(ctx context.Context, eventID, source string, o orders.Order) (bool, error)
}

// Deduper remembers event ids that were already handled.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type Service struct {
	Repo        Recorder
	Dedup       Deduper
	ServiceName string
}

// HandleOrderPlaced: dipasang sebagai handler consumer.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	env, err := kafkax.DecodeEnvelope(m.Value)
	if err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	} // ignore

	// 2) dedup via Redis (pakai event_id). Redis down bukan alasan untuk
	// berhenti: insert di bawah tetap idempotent.
	if s.Dedup != nil {
		seen, err := s.Dedup.Seen(ctx, env.EventID)
		if err != nil {
			log.Printf("%s: dedup lookup %s: %v", s.ServiceName, env.EventID, err)
		} else if seen {
			return nil
		}
	}

	// 3) decode payload
	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}
	if p.Order.ID == "" {
		return fmt.Errorf("event %s: order without id", env.EventID)
	}

	// 4) simpan; mark dedup hanya setelah sukses supaya retry tetap jalan
	inserted, err := s.Repo.Record(ctx, env.EventID, p.Source, p.Order)
	if err != nil {
		return fmt.Errorf("record order %s: %w", p.Order.ID, err)
	}
	if !inserted {
		log.Printf("%s: order %s already recorded", s.ServiceName, p.Order.ID)
	}
	if s.Dedup != nil {
		if err := s.Dedup.Mark(ctx, env.EventID); err != nil {
			log.Printf("%s: dedup mark %s: %v", s.ServiceName, env.EventID, err)
		}
	}
	return nil
}
