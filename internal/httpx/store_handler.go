package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-store-engine/internal/engine"
	"github.com/ariefcatur/go-store-engine/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type RegisterProductReq struct {
	Name       string `json:"name" validate:"required"`
	PriceCents int64  `json:"price_cents" validate:"gte=0"`
	Quantity   int    `json:"quantity" validate:"gte=0"`
	Category   string `json:"category"`
}

type RegisterProductResp struct {
	ProductID string         `json:"product_id"`
	Product   orders.Product `json:"product"`
}

type TopUpReq struct {
	UserEmail   string `json:"user_email" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
}

type CartAddReq struct {
	UserEmail string `json:"user_email" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
	// Defaults to 1 when omitted.
	Quantity *int `json:"quantity" validate:"omitempty,gt=0"`
}

type CartRemoveReq struct {
	UserEmail string `json:"user_email" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
	// Nil removes the whole line.
	Quantity *int `json:"quantity" validate:"omitempty,gt=0"`
}

type BuyReq struct {
	UserEmail string `json:"user_email" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type StoreHandler struct {
	Engine   *engine.Engine
	validate *validator.Validate
}

func NewStoreHandler(e *engine.Engine) *StoreHandler {
	return &StoreHandler{Engine: e, validate: validator.New()}
}

func (h *StoreHandler) Register(r chi.Router) {
	r.Post("/seller/register", h.registerProduct)

	r.Get("/products", h.listProducts)
	r.Get("/products/search", h.searchProducts)
	r.Get("/products/{id}", h.getProduct)

	r.Post("/wallet/topup", h.topUp)
	r.Get("/wallet/{email}", h.getWallet)

	r.Post("/cart/add", h.cartAdd)
	r.Post("/cart/remove", h.cartRemove)
	r.Post("/cart/checkout", h.checkout)
	r.Get("/cart/{email}", h.viewCart)

	r.Post("/buy", h.buy)
	r.Get("/orders/{email}", h.listOrders)

	r.Post("/reset", h.reset)
	r.Get("/debug/orders", h.debugOrders)
}

// decode parses the body into v and runs struct validation.
func (h *StoreHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid json")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

func (h *StoreHandler) registerProduct(w http.ResponseWriter, r *http.Request) {
	var req RegisterProductReq
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.Engine.RegisterProduct(r.Context(), engine.ProductInput{
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Quantity:   req.Quantity,
		Category:   req.Category,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterProductResp{ProductID: p.ID, Product: p})
}

func (h *StoreHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := engine.ProductFilter{Category: q.Get("category")}
	if v := q.Get("available_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(w, "available_only must be a bool")
			return
		}
		f.AvailableOnly = b
	}
	writeJSON(w, http.StatusOK, h.Engine.ListProducts(r.Context(), f))
}

func (h *StoreHandler) searchProducts(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		badRequest(w, "name required")
		return
	}
	writeJSON(w, http.StatusOK, h.Engine.SearchProducts(r.Context(), name))
}

func (h *StoreHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Engine.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *StoreHandler) topUp(w http.ResponseWriter, r *http.Request) {
	var req TopUpReq
	if !h.decode(w, r, &req) {
		return
	}
	wal, err := h.Engine.TopUpWallet(r.Context(), req.UserEmail, req.AmountCents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wal)
}

func (h *StoreHandler) getWallet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.GetWallet(r.Context(), chi.URLParam(r, "email")))
}

func (h *StoreHandler) cartAdd(w http.ResponseWriter, r *http.Request) {
	var req CartAddReq
	if !h.decode(w, r, &req) {
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	c, err := h.Engine.AddToCart(r.Context(), req.UserEmail, req.ProductID, qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *StoreHandler) cartRemove(w http.ResponseWriter, r *http.Request) {
	var req CartRemoveReq
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.Engine.RemoveFromCart(r.Context(), req.UserEmail, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *StoreHandler) viewCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.ViewCart(r.Context(), chi.URLParam(r, "email")))
}

func (h *StoreHandler) buy(w http.ResponseWriter, r *http.Request) {
	var req BuyReq
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rc, err := h.Engine.Buy(ctx, engine.BuyRequest{
		UserEmail:      req.UserEmail,
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	writeReceipt(w, rc, err)
}

func (h *StoreHandler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rc, err := h.Engine.Checkout(ctx, r.URL.Query().Get("user_email"), r.Header.Get("Idempotency-Key"))
	writeReceipt(w, rc, err)
}

func writeReceipt(w http.ResponseWriter, rc engine.Receipt, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	if rc.Replayed {
		w.Header().Set(HeaderReplayed, "true")
	}
	writeJSON(w, http.StatusOK, rc.Order)
}

func (h *StoreHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.ListOrders(r.Context(), chi.URLParam(r, "email")))
}

func (h *StoreHandler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *StoreHandler) debugOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"orders": h.Engine.AllOrders(r.Context())})
}
