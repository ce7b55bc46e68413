package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Dan9191/quotation-service/internal/models"
)

// ListQuotations returns all quotations, newest first
func (r *Repository) ListQuotations(ctx context.Context) ([]models.Quotation, error) {
	query := `
		SELECT id, customer_name, items, total_amount, status, created_at, updated_at
		FROM quotations
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}
	defer rows.Close()

	quotations := []models.Quotation{}
	for rows.Next() {
		var (
			q     models.Quotation
			items []byte
		)
		if err := rows.Scan(&q.ID, &q.CustomerName, &items, &q.TotalAmount, &q.Status, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quotation: %w", err)
		}
		q.Items = items
		quotations = append(quotations, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotations: %w", err)
	}
	return quotations, nil
}

// CreateQuotation inserts q and returns the assigned id
func (r *Repository) CreateQuotation(ctx context.Context, q *models.Quotation) (int64, error) {
	query := `
		INSERT INTO quotations (customer_name, items, total_amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	var id int64
	// lib/pq sends []byte as bytea; jsonb needs the text form.
	err := r.db.QueryRowContext(ctx, query, q.CustomerName, string(q.Items), q.TotalAmount, q.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create quotation: %w", err)
	}
	return id, nil
}

// UpdateQuotation applies the fields present in patch. It returns ErrNotFound
// when no quotation has the given id.
func (r *Repository) UpdateQuotation(ctx context.Context, id int64, patch models.QuotationPatch) error {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.CustomerName != nil {
		add("customer_name", *patch.CustomerName)
	}
	if models.HasJSON(patch.Items) {
		add("items", string(patch.Items))
	}
	if patch.TotalAmount != nil {
		add("total_amount", *patch.TotalAmount)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if len(sets) == 0 {
		return fmt.Errorf("no fields to update")
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE quotations SET %s, updated_at = CURRENT_TIMESTAMP WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update quotation: %w", err)
	}
	return affectedOne(res)
}

// UpdateQuotationStatus sets the status of a quotation
func (r *Repository) UpdateQuotationStatus(ctx context.Context, id int64, status string) error {
	return r.UpdateQuotation(ctx, id, models.QuotationPatch{Status: &status})
}

// DeleteQuotation removes a quotation
func (r *Repository) DeleteQuotation(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quotations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quotation: %w", err)
	}
	return affectedOne(res)
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
