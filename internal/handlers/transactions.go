package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"expense-ledger/internal/models"
	"expense-ledger/internal/storage"

	"github.com/shopspring/decimal"
)

// EditViewModel is the data passed to the edit form template.
type EditViewModel struct {
	Transaction *models.Transaction
}

// AddExpense records a new transaction for the signed-in user.
func (h *Handlers) AddExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	amount, category, err := parseTransactionForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.db.CreateTransaction(r.Context(), user.ID, amount, category); err != nil {
		h.serverError(w, r, "failed to create transaction", err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// EditExpenseForm renders the edit form for one of the user's transactions.
func (h *Handlers) EditExpenseForm(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	t, err := h.db.GetTransaction(r.Context(), user.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Expense not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, r, "failed to load transaction", err)
		return
	}

	h.render(w, r, "edit.html", EditViewModel{Transaction: t})
}

// UpdateExpense applies a new amount and category to one of the user's transactions.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	amount, category, err := parseTransactionForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = h.db.UpdateTransaction(r.Context(), user.ID, id, amount, category)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Expense not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, r, "failed to update transaction", err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// DeleteExpense removes one of the user's transactions. Unknown ids are ignored.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := h.db.DeleteTransaction(r.Context(), user.ID, id); err != nil {
		h.serverError(w, r, "failed to delete transaction", err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func parseTransactionForm(r *http.Request) (decimal.Decimal, string, error) {
	if err := r.ParseForm(); err != nil {
		return decimal.Zero, "", err
	}
	raw := strings.TrimSpace(r.FormValue("amount"))
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("invalid amount %q", raw)
	}
	if f := amount.InexactFloat64(); math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero, "", fmt.Errorf("amount %q out of range", raw)
	}
	return amount, r.FormValue("category"), nil
}
