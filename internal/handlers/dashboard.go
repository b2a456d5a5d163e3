package handlers

import (
	"net/http"

	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CategoryItem represents a category with its spending statistics.
type CategoryItem struct {
	Category   string
	Total      decimal.Decimal
	Count      int
	Percentage float64
}

// chartScale is the share of the chart width left for bars; labels take the rest.
const chartScale = 70.0

const chartRowHeight = 24

// ChartBar is one row of the category bar chart.
type ChartBar struct {
	Label    string
	Amount   decimal.Decimal
	Width    float64 // percent of the chart, largest absolute total = chartScale
	Y        int
	Negative bool
}

// DashboardViewModel is the data passed to the dashboard template.
type DashboardViewModel struct {
	User         *models.User
	Transactions []models.Transaction
	Total        decimal.Decimal
	Categories   []CategoryItem
	// Labels and Amounts are parallel sequences for the category chart.
	Labels      []string
	Amounts     []decimal.Decimal
	Chart       []ChartBar
	ChartHeight int
}

// newChart lays out one horizontal bar per label, scaled to the largest absolute amount.
func newChart(labels []string, amounts []decimal.Decimal) []ChartBar {
	largest := decimal.Zero
	for _, a := range amounts {
		if a.Abs().GreaterThan(largest) {
			largest = a.Abs()
		}
	}

	bars := make([]ChartBar, 0, len(labels))
	for i, label := range labels {
		width := 0.0
		if largest.IsPositive() {
			width = amounts[i].Abs().Div(largest).InexactFloat64() * chartScale
		}
		bars = append(bars, ChartBar{
			Label:    label,
			Amount:   amounts[i],
			Width:    width,
			Y:        i * chartRowHeight,
			Negative: amounts[i].IsNegative(),
		})
	}
	return bars
}

// NewDashboardViewModel derives the view model from a summary.
func NewDashboardViewModel(user *models.User, s *models.Summary) DashboardViewModel {
	items := make([]CategoryItem, 0, len(s.Categories))
	for _, ct := range s.Categories {
		percentage := 0.0
		if s.Total.IsPositive() {
			percentage = ct.Total.Div(s.Total).Mul(hundred).InexactFloat64()
		}
		items = append(items, CategoryItem{
			Category:   ct.Category,
			Total:      ct.Total,
			Count:      ct.Count,
			Percentage: percentage,
		})
	}

	labels, amounts := s.Labels(), s.Amounts()
	return DashboardViewModel{
		User:         user,
		Transactions: s.Transactions,
		Total:        s.Total,
		Categories:   items,
		Labels:       labels,
		Amounts:      amounts,
		Chart:        newChart(labels, amounts),
		ChartHeight:  len(labels) * chartRowHeight,
	}
}

// Dashboard lists the user's transactions with overall and per-category totals.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	summary, err := h.db.Summarize(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, "failed to summarize transactions", err)
		return
	}

	h.render(w, r, "dashboard.html", NewDashboardViewModel(user, summary))
}
