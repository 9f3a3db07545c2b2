package handler

import (
	"net/http"
)

type menuPizzaResp struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	IsVegan      bool    `json:"isVegan"`
	IsVegetarian bool    `json:"isVegetarian"`
}

type menuItemResp struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	IsVegan      bool    `json:"isVegan"`
	IsVegetarian bool    `json:"isVegetarian"`
}

type menuResp struct {
	Pizzas []menuPizzaResp `json:"pizzas"`
	Items  []menuItemResp  `json:"items"`
}

// GetMenu handles GET /api/menu: priced pizzas plus active drinks and
// desserts.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	pizzas, err := h.catalog.ListPizzas(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	items, err := h.catalog.ListMenuItems(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}

	resp := menuResp{
		Pizzas: make([]menuPizzaResp, 0, len(pizzas)),
		Items:  make([]menuItemResp, 0, len(items)),
	}
	for _, p := range pizzas {
		resp.Pizzas = append(resp.Pizzas, menuPizzaResp{
			ID:           p.ID,
			Name:         p.Name,
			Price:        p.Price.InexactFloat64(),
			IsVegan:      p.IsVegan,
			IsVegetarian: p.IsVegetarian,
		})
	}
	for _, m := range items {
		resp.Items = append(resp.Items, menuItemResp{
			ID:           m.ID,
			Name:         m.Name,
			Category:     string(m.Category),
			Price:        m.Price.InexactFloat64(),
			IsVegan:      m.IsVegan,
			IsVegetarian: m.IsVegetarian,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
