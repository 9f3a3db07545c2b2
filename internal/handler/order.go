package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/slicelab/pizzeria/internal/domain/order"
)

type cartItemReq struct {
	ItemID   int64 `json:"itemId"`
	Quantity int   `json:"quantity"`
}

type placeOrderReq struct {
	CustomerID   int64         `json:"customerId"`
	Pizzas       []cartItemReq `json:"pizzas"`
	Drinks       []cartItemReq `json:"drinks"`
	Desserts     []cartItemReq `json:"desserts"`
	DiscountCode string        `json:"discountCode"`
	Notes        string        `json:"notes"`
}

type orderItemResp struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Discount    float64 `json:"discount"`
	LineTotal   float64 `json:"lineTotal"`
}

type driverResp struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	UnavailableUntil time.Time `json:"unavailableUntil"`
}

type orderResp struct {
	ID                     int64           `json:"id"`
	Status                 string          `json:"status"`
	PlacedAt               time.Time       `json:"placedAt"`
	TotalBeforeDiscounts   float64         `json:"totalBeforeDiscounts"`
	DiscountTotal          float64         `json:"discountTotal"`
	TotalDue               float64         `json:"totalDue"`
	LoyaltyDiscountApplied bool            `json:"loyaltyDiscountApplied"`
	BirthdayPizzaApplied   bool            `json:"birthdayPizzaApplied"`
	BirthdayDrinkApplied   bool            `json:"birthdayDrinkApplied"`
	DiscountCode           string          `json:"discountCode,omitempty"`
	Driver                 *driverResp     `json:"driver,omitempty"`
	Items                  []orderItemResp `json:"items"`
}

type validationResp struct {
	Errors map[string]string `json:"errors"`
}

// PlaceOrder handles POST /api/orders.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		CustomerID:   req.CustomerID,
		Pizzas:       toCartItems(req.Pizzas),
		Drinks:       toCartItems(req.Drinks),
		Desserts:     toCartItems(req.Desserts),
		DiscountCode: req.DiscountCode,
		Notes:        req.Notes,
	})
	if err != nil {
		var verr *order.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, validationStatus(verr), validationResp{Errors: verr.Fields})
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResp(result))
}

// validationStatus picks the HTTP status for a validation error map: input
// problems are 422, a missing driver is 409, persistence faults are 500.
func validationStatus(verr *order.ValidationError) int {
	if _, ok := verr.Fields[order.FieldDatabase]; ok {
		return http.StatusInternalServerError
	}
	if _, ok := verr.Fields[order.FieldDelivery]; ok {
		return http.StatusConflict
	}
	return http.StatusUnprocessableEntity
}

func toCartItems(reqs []cartItemReq) []order.CartItem {
	items := make([]order.CartItem, len(reqs))
	for i, req := range reqs {
		items[i] = order.CartItem{ItemID: req.ItemID, Quantity: req.Quantity}
	}
	return items
}

func toOrderResp(result *order.PlaceOrderResult) orderResp {
	o := result.Order
	resp := orderResp{
		ID:                     o.ID,
		Status:                 string(o.Status),
		PlacedAt:               o.PlacedAt,
		TotalBeforeDiscounts:   o.TotalBeforeDiscounts.InexactFloat64(),
		DiscountTotal:          o.DiscountTotal.InexactFloat64(),
		TotalDue:               o.TotalDue.InexactFloat64(),
		LoyaltyDiscountApplied: o.LoyaltyDiscountApplied,
		BirthdayPizzaApplied:   o.BirthdayPizzaApplied,
		BirthdayDrinkApplied:   o.BirthdayDrinkApplied,
		Items:                  make([]orderItemResp, 0, len(o.Items)),
	}
	if result.Code != nil {
		resp.DiscountCode = result.Code.Code
	}
	if result.Driver != nil {
		d := driverResp{ID: result.Driver.ID, Name: result.Driver.Name}
		if result.Driver.UnavailableUntil != nil {
			d.UnavailableUntil = *result.Driver.UnavailableUntil
		}
		resp.Driver = &d
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResp{
			Category:    string(it.Category),
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.InexactFloat64(),
			Discount:    it.DiscountAmount.InexactFloat64(),
			LineTotal:   it.LineTotal().Sub(it.DiscountAmount).InexactFloat64(),
		})
	}
	return resp
}
