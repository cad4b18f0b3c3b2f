package handlers

import (
	"math"
	"net/http"
	"strings"

	"finance-tracker/internal/session"
)

// CategoryStyle is the badge color of a category.
type CategoryStyle struct {
	Color string
}

var categoryColors = map[string]string{
	"food":          "#60a5fa",
	"groceries":     "#60a5fa",
	"transport":     "#a78bfa",
	"entertainment": "#f472b6",
	"utilities":     "#fbbf24",
	"housing":       "#818cf8",
	"rent":          "#818cf8",
	"gifts":         "#fb7185",
	"income":        "#34d399",
	"salary":        "#34d399",
}

func getCategoryStyle(category string) CategoryStyle {
	if c, ok := categoryColors[strings.ToLower(strings.TrimSpace(category))]; ok {
		return CategoryStyle{Color: c}
	}
	return CategoryStyle{Color: "#94a3b8"}
}

// SummaryItem is one category row on the dashboard.
type SummaryItem struct {
	Category      string
	Total         float64
	Percentage    float64
	HasBudget     bool
	Budget        float64
	Remaining     float64
	OverBudget    bool
	CategoryStyle CategoryStyle
}

// DashboardViewModel is the data passed to the dashboard template.
type DashboardViewModel struct {
	Layout
	Balance    float64
	Categories []SummaryItem
}

// Dashboard renders category totals with their budgets.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	id := session.AccountFromContext(r.Context()).ID

	totals, err := h.ledger.Summarize(r.Context(), id)
	if err != nil {
		h.log(r).ErrorContext(r.Context(), "summarize failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	budgets, err := h.ledger.ListBudgets(r.Context(), id)
	if err != nil {
		h.log(r).ErrorContext(r.Context(), "list budgets failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	limits := make(map[string]float64, len(budgets))
	for _, b := range budgets {
		limits[b.Category] = b.Amount
	}

	// Percentage is the share of the summed absolute totals.
	var balance, volume float64
	for _, t := range totals {
		balance += t.Total
		volume += math.Abs(t.Total)
	}

	items := make([]SummaryItem, 0, len(totals))
	for _, t := range totals {
		item := SummaryItem{Category: "Uncategorized", Total: t.Total}
		if t.Category != nil {
			item.Category = *t.Category
			if limit, ok := limits[*t.Category]; ok {
				item.HasBudget = true
				item.Budget = limit
				item.Remaining = limit - t.Total
				item.OverBudget = t.Total > limit
			}
		}
		if volume > 0 {
			item.Percentage = math.Abs(t.Total) / volume * 100
		}
		item.CategoryStyle = getCategoryStyle(item.Category)
		items = append(items, item)
	}

	h.render(w, r, "dashboard.html", DashboardViewModel{
		Layout:     h.layout(w, r),
		Balance:    balance,
		Categories: items,
	})
}
