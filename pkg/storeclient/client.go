// Package storeclient is a Go client for the store HTTP API.
//
// Buy and Checkout always send an Idempotency-Key. Transport failures and
// 5xx answers are retried with the same key, so a retry never charges twice.
// Reads are retried too. Other writes (top-ups, cart edits, registration,
// reset) carry no key and are sent exactly once.
package storeclient

import (
	"context"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

type Client struct {
	r    *resty.Client // reads and keyed writes
	once *resty.Client // writes without a key: never retried
}

type Option func(*resty.Client)

func WithRetries(n int, wait time.Duration) Option {
	return func(c *resty.Client) {
		c.SetRetryCount(n).SetRetryWaitTime(wait)
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

func New(baseURL string, opts ...Option) *Client {
	build := func() *resty.Client {
		r := resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10*time.Second).
			SetRetryCount(3).
			SetRetryWaitTime(100 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second)
		for _, o := range opts {
			o(r)
		}
		return r
	}
	r := build()
	r.AddRetryCondition(func(resp *resty.Response, err error) bool {
		return err != nil || resp.StatusCode() >= http.StatusInternalServerError
	})
	return &Client{r: r, once: build().SetRetryCount(0)}
}

// NewIdempotencyKey returns a fresh random key.
func NewIdempotencyKey() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

func (c *Client) req(ctx context.Context) *resty.Request {
	return c.r.R().SetContext(ctx).SetError(&APIError{})
}

// reqOnce is for writes that would be applied twice if resent.
func (c *Client) reqOnce(ctx context.Context) *resty.Request {
	return c.once.R().SetContext(ctx).SetError(&APIError{})
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	ae, ok := resp.Error().(*APIError)
	if !ok || ae == nil {
		ae = &APIError{Message: resp.Status()}
	}
	ae.Status = resp.StatusCode()
	if ae.Kind == "" {
		ae.Kind = KindInternal
	}
	return ae
}

func (c *Client) RegisterProduct(ctx context.Context, name string, priceCents int64, quantity int, category string) (Product, error) {
	var out struct {
		ProductID string  `json:"product_id"`
		Product   Product `json:"product"`
	}
	resp, err := c.reqOnce(ctx).
		SetBody(map[string]any{"name": name, "price_cents": priceCents, "quantity": quantity, "category": category}).
		SetResult(&out).
		Post("/seller/register")
	return out.Product, check(resp, err)
}

func (c *Client) ListProducts(ctx context.Context, category string, availableOnly bool) ([]Product, error) {
	var out []Product
	r := c.req(ctx).SetResult(&out)
	if category != "" {
		r.SetQueryParam("category", category)
	}
	if availableOnly {
		r.SetQueryParam("available_only", "true")
	}
	resp, err := r.Get("/products")
	return out, check(resp, err)
}

func (c *Client) SearchProducts(ctx context.Context, name string) ([]Product, error) {
	var out []Product
	resp, err := c.req(ctx).SetQueryParam("name", name).SetResult(&out).Get("/products/search")
	return out, check(resp, err)
}

func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	var out Product
	resp, err := c.req(ctx).SetPathParam("id", id).SetResult(&out).Get("/products/{id}")
	return out, check(resp, err)
}

func (c *Client) TopUp(ctx context.Context, user string, amountCents int64) (Wallet, error) {
	var out Wallet
	resp, err := c.reqOnce(ctx).
		SetBody(map[string]any{"user_email": user, "amount_cents": amountCents}).
		SetResult(&out).
		Post("/wallet/topup")
	return out, check(resp, err)
}

func (c *Client) Wallet(ctx context.Context, user string) (Wallet, error) {
	var out Wallet
	resp, err := c.req(ctx).SetPathParam("email", user).SetResult(&out).Get("/wallet/{email}")
	return out, check(resp, err)
}

func (c *Client) AddToCart(ctx context.Context, user, productID string, quantity int) (Cart, error) {
	var out Cart
	resp, err := c.reqOnce(ctx).
		SetBody(map[string]any{"user_email": user, "product_id": productID, "quantity": quantity}).
		SetResult(&out).
		Post("/cart/add")
	return out, check(resp, err)
}

// RemoveFromCart drops quantity units; nil drops the whole line.
func (c *Client) RemoveFromCart(ctx context.Context, user, productID string, quantity *int) (Cart, error) {
	body := map[string]any{"user_email": user, "product_id": productID}
	if quantity != nil {
		body["quantity"] = *quantity
	}
	var out Cart
	resp, err := c.reqOnce(ctx).SetBody(body).SetResult(&out).Post("/cart/remove")
	return out, check(resp, err)
}

func (c *Client) ViewCart(ctx context.Context, user string) (CartView, error) {
	var out CartView
	resp, err := c.req(ctx).SetPathParam("email", user).SetResult(&out).Get("/cart/{email}")
	return out, check(resp, err)
}

// Buy purchases one product. An empty key is replaced with a fresh one,
// reported back in the Receipt.
func (c *Client) Buy(ctx context.Context, user, productID string, quantity int, key string) (Receipt, error) {
	if key == "" {
		key = NewIdempotencyKey()
	}
	var out Order
	resp, err := c.req(ctx).
		SetHeader(headerIdempotencyKey, key).
		SetBody(map[string]any{"user_email": user, "product_id": productID, "quantity": quantity}).
		SetResult(&out).
		Post("/buy")
	return receipt(resp, err, out, key)
}

func (c *Client) Checkout(ctx context.Context, user, key string) (Receipt, error) {
	if key == "" {
		key = NewIdempotencyKey()
	}
	var out Order
	resp, err := c.req(ctx).
		SetHeader(headerIdempotencyKey, key).
		SetQueryParam("user_email", user).
		SetResult(&out).
		Post("/cart/checkout")
	return receipt(resp, err, out, key)
}

func receipt(resp *resty.Response, err error, o Order, key string) (Receipt, error) {
	if err := check(resp, err); err != nil {
		return Receipt{Key: key}, err
	}
	replayed, _ := strconv.ParseBool(resp.Header().Get(headerReplayed))
	return Receipt{Order: o, Replayed: replayed, Key: key}, nil
}

func (c *Client) Orders(ctx context.Context, user string) ([]Order, error) {
	var out []Order
	resp, err := c.req(ctx).SetPathParam("email", user).SetResult(&out).Get("/orders/{email}")
	return out, check(resp, err)
}

func (c *Client) Reset(ctx context.Context) error {
	resp, err := c.reqOnce(ctx).Post("/reset")
	return check(resp, err)
}
