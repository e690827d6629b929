package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ariefcatur/go-store-engine/internal/engine"
	"github.com/go-playground/validator/v10"
)

// HeaderReplayed is set on buy/checkout responses served from the
// idempotency cache.
const HeaderReplayed = "Idempotent-Replayed"

type errorResp struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	ProductID string `json:"product_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(k engine.Kind) int {
	switch k {
	case engine.KindValidation, engine.KindCartEmpty:
		return http.StatusBadRequest
	case engine.KindNotFound:
		return http.StatusNotFound
	case engine.KindInsufficientStock:
		return http.StatusConflict
	case engine.KindInsufficientFunds:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: verrs.Error(), Kind: string(engine.KindValidation)})
		return
	}
	kind := engine.KindOf(err)
	code := statusFor(kind)
	resp := errorResp{Error: err.Error(), Kind: string(kind)}
	var se *engine.StockError
	if errors.As(err, &se) {
		resp.ProductID = se.ProductID
	}
	if code == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		resp.Error = "internal error"
	}
	writeJSON(w, code, resp)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResp{Error: msg, Kind: string(engine.KindValidation)})
}
