// Command storedemo drives a running store API with concurrent buyers racing
// for a small stock, then prints who won.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/ariefcatur/go-store-engine/pkg/storeclient"
	"golang.org/x/sync/errgroup"
)

func main() {
	base := flag.String("url", "http://localhost:8085", "store API base URL")
	buyers := flag.Int("buyers", 10, "concurrent buyers")
	stock := flag.Int("stock", 3, "units on sale")
	flag.Parse()

	ctx := context.Background()
	c := storeclient.New(*base)

	if err := c.Reset(ctx); err != nil {
		log.Fatalf("reset: %v", err)
	}
	p, err := c.RegisterProduct(ctx, "Limited Edition", 1000, *stock, "demo")
	if err != nil {
		log.Fatalf("register: %v", err)
	}

	var sold, outOfStock atomic.Int32
	var g errgroup.Group
	for i := 0; i < *buyers; i++ {
		user := fmt.Sprintf("buyer%02d@example.com", i)
		g.Go(func() error {
			if _, err := c.TopUp(ctx, user, 5000); err != nil {
				return err
			}
			r, err := c.Buy(ctx, user, p.ID, 1, "")
			switch {
			case err == nil:
				sold.Add(1)
				log.Printf("%s bought order %s", user, r.Order.ID)
			case storeclient.IsKind(err, storeclient.KindInsufficientStock):
				outOfStock.Add(1)
			default:
				return err
			}
			// Same key again: served from cache, no second charge.
			if err == nil {
				again, err := c.Buy(ctx, user, p.ID, 1, r.Key)
				if err != nil {
					return err
				}
				if !again.Replayed || again.Order.ID != r.Order.ID {
					return fmt.Errorf("%s: retry was not replayed", user)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("demo: %v", err)
	}

	left, err := c.GetProduct(ctx, p.ID)
	if err != nil {
		log.Fatalf("product: %v", err)
	}
	log.Printf("sold=%d out_of_stock=%d remaining=%d", sold.Load(), outOfStock.Load(), left.Quantity)
	if int(sold.Load())+left.Quantity != *stock {
		log.Fatalf("stock not conserved")
	}
}
