package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const transactionColumns = "id, user_id, amount, category, created_at"

type scanner interface {
	Scan(dest ...any) error
}

// ErrAmountOutOfRange is returned for amounts that cannot be stored as a finite REAL.
var ErrAmountOutOfRange = errors.New("amount out of range")

// amountFromFloat converts a stored REAL into a decimal. Scanning straight into
// decimal.Decimal panics on infinities, so they are rejected here instead.
func amountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero, ErrAmountOutOfRange
	}
	return decimal.NewFromFloat(f), nil
}

func checkAmount(amount decimal.Decimal) error {
	f := amount.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return ErrAmountOutOfRange
	}
	return nil
}

func scanTransaction(s scanner) (models.Transaction, error) {
	var (
		t      models.Transaction
		amount float64
	)
	if err := s.Scan(&t.ID, &t.UserID, &amount, &t.Category, &t.CreatedAt); err != nil {
		return t, err
	}
	var err error
	t.Amount, err = amountFromFloat(amount)
	return t, err
}

// CreateTransaction inserts a transaction for userID. The timestamp is assigned by the store.
func (db *DB) CreateTransaction(ctx context.Context, userID int64, amount decimal.Decimal, category string) (*models.Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO transactions (user_id, amount, category) VALUES (?, ?, ?)",
		userID, amount, category,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetTransaction(ctx, userID, id)
}

// GetTransaction retrieves a single transaction by ID, scoped to its owner.
func (db *DB) GetTransaction(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND user_id = ?",
		id, userID,
	)

	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// UpdateTransaction sets amount and category on a transaction owned by userID.
// It returns ErrNotFound when no such transaction belongs to the user.
func (db *DB) UpdateTransaction(ctx context.Context, userID, id int64, amount decimal.Decimal, category string) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	result, err := db.conn.ExecContext(ctx,
		"UPDATE transactions SET amount = ?, category = ? WHERE id = ? AND user_id = ?",
		amount, category, id, userID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a transaction owned by userID. Unknown ids are a no-op.
func (db *DB) DeleteTransaction(ctx context.Context, userID, id int64) error {
	_, err := db.conn.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND user_id = ?",
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// ListTransactions returns all transactions for userID in insertion order.
func (db *DB) ListTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE user_id = ? ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// TotalAmount returns the sum of all amounts for userID, zero when there are none.
func (db *DB) TotalAmount(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var total float64
	err := db.conn.QueryRowContext(ctx,
		"SELECT TOTAL(amount) FROM transactions WHERE user_id = ?",
		userID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if d, err := amountFromFloat(total); err == nil {
		return d, nil
	}

	// The float sum overflowed; add the rows up exactly instead.
	_, exact, err := db.exactTotals(ctx, userID)
	return exact, err
}

// CategoryTotals returns per-category sums for userID ordered by category label.
func (db *DB) CategoryTotals(ctx context.Context, userID int64) ([]models.CategoryTotal, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT category, TOTAL(amount) AS total, COUNT(*) AS count
		FROM transactions
		WHERE user_id = ?
		GROUP BY category
		ORDER BY category
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := []models.CategoryTotal{}
	overflow := false
	for rows.Next() {
		var (
			ct  models.CategoryTotal
			sum float64
		)
		if err := rows.Scan(&ct.Category, &sum, &ct.Count); err != nil {
			return nil, err
		}
		if ct.Total, err = amountFromFloat(sum); err != nil {
			overflow = true
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !overflow {
		return totals, nil
	}

	exact, _, err := db.exactTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range totals {
		totals[i].Total = exact[totals[i].Category]
	}
	return totals, nil
}

// exactTotals sums every amount for userID in decimal arithmetic, per category and overall.
func (db *DB) exactTotals(ctx context.Context, userID int64) (map[string]decimal.Decimal, decimal.Decimal, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT category, amount FROM transactions WHERE user_id = ?",
		userID,
	)
	if err != nil {
		return nil, decimal.Zero, err
	}
	defer rows.Close()

	byCategory := map[string]decimal.Decimal{}
	total := decimal.Zero
	for rows.Next() {
		var (
			category string
			amount   float64
		)
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, decimal.Zero, err
		}
		d, err := amountFromFloat(amount)
		if err != nil {
			return nil, decimal.Zero, err
		}
		byCategory[category] = byCategory[category].Add(d)
		total = total.Add(d)
	}
	return byCategory, total, rows.Err()
}

// Summarize runs the dashboard reads for userID concurrently.
func (db *DB) Summarize(ctx context.Context, userID int64) (*models.Summary, error) {
	var s models.Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		transactions, err := db.ListTransactions(ctx, userID)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		s.Transactions = transactions
		return nil
	})
	g.Go(func() error {
		total, err := db.TotalAmount(ctx, userID)
		if err != nil {
			return fmt.Errorf("total amount: %w", err)
		}
		s.Total = total
		return nil
	})
	g.Go(func() error {
		categories, err := db.CategoryTotals(ctx, userID)
		if err != nil {
			return fmt.Errorf("category totals: %w", err)
		}
		s.Categories = categories
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}
