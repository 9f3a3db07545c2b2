// Package handler exposes the JSON API: order placement and the menu read
// endpoint. It converts wire requests to domain requests and maps domain
// errors onto HTTP statuses.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/slicelab/pizzeria/internal/domain/catalog"
	"github.com/slicelab/pizzeria/internal/domain/order"
)

// Handler holds the domain dependencies for the HTTP endpoints.
type Handler struct {
	orders  *order.Service
	catalog catalog.Repository
}

// NewHandler constructs a Handler.
func NewHandler(orders *order.Service, cat catalog.Repository) *Handler {
	return &Handler{orders: orders, catalog: cat}
}

// Register attaches all routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/menu", h.GetMenu)
}

// errorBody is the JSON shape for non-validation errors.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Code: status, Message: msg})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("internal error",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
