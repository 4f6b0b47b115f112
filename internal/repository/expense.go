package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/EnkrateiaLucca/expense-report-automation/constants"
	"github.com/EnkrateiaLucca/expense-report-automation/internal/common"
	"github.com/EnkrateiaLucca/expense-report-automation/internal/entity"
)

// ExpenseRepository persists finished expense records.
type ExpenseRepository interface {
	// Save stores the record and its line items, assigning and returning a
	// fresh ID. The record itself is not mutated.
	Save(ctx context.Context, rec *entity.ExpenseRecord, reviewStatus constants.ReviewStatus) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ExpenseRecord, error)
	// ListBetween returns records whose document date falls in [from, to],
	// ordered by document date. Nil bounds are open.
	ListBetween(ctx context.Context, from, to *time.Time) ([]*entity.ExpenseRecord, error)
}

type expenseRepository struct {
	db     *sql.DB
	driver string
}

func NewExpenseRepository(db *sql.DB, driver string) ExpenseRepository {
	return &expenseRepository{db: db, driver: driver}
}

// rebind rewrites "?" placeholders to "$N" for postgres. Queries are written
// once in the sqlite dialect and adapted at the edge.
func (r *expenseRepository) rebind(query string) string {
	if r.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *expenseRepository) Save(ctx context.Context, rec *entity.ExpenseRecord, reviewStatus constants.ReviewStatus) (uuid.UUID, error) {
	id := uuid.New()

	warnings, err := json.Marshal(rec.Warnings)
	if err != nil {
		return uuid.Nil, common.WrapError(err, "marshal warnings")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, r.rebind(
		`INSERT INTO expense_records
		 (id, vendor_name, document_date, currency_code, subtotal, tax, total, confidence, review_status, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id.String(),
		rec.VendorName,
		formatDate(rec.DocumentDate),
		rec.CurrencyCode,
		rec.Subtotal.String(),
		rec.Tax.String(),
		rec.Total.String(),
		rec.OverallConfidence,
		string(reviewStatus),
		string(warnings),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return uuid.Nil, common.WrapError(err, "insert record")
	}

	for i, li := range rec.LineItems {
		_, err = tx.ExecContext(ctx, r.rebind(
			`INSERT INTO expense_line_items
			 (record_id, position, description, quantity, unit_price, line_total, confidence)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`),
			id.String(), i, li.Description,
			li.Quantity.String(), li.UnitPrice.String(), li.LineTotal.String(),
			li.Confidence,
		)
		if err != nil {
			return uuid.Nil, common.WrapError(err, fmt.Sprintf("insert line item %d", i))
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, common.WrapError(err, "commit")
	}
	return id, nil
}

func (r *expenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ExpenseRecord, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(
		`SELECT id, vendor_name, document_date, currency_code, subtotal, tax, total, confidence, warnings
		 FROM expense_records WHERE id = ?`), id.String())

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadLineItems(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *expenseRepository) ListBetween(ctx context.Context, from, to *time.Time) ([]*entity.ExpenseRecord, error) {
	query := `SELECT id, vendor_name, document_date, currency_code, subtotal, tax, total, confidence, warnings
	 FROM expense_records WHERE 1=1`
	args := make([]any, 0, 2)
	if from != nil {
		query += ` AND document_date >= ?`
		args = append(args, formatDate(*from))
	}
	if to != nil {
		query += ` AND document_date <= ?`
		args = append(args, formatDate(*to))
	}
	query += ` ORDER BY document_date, id`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, common.WrapError(err, "query records")
	}
	defer rows.Close()

	var recs []*entity.ExpenseRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate records")
	}
	for _, rec := range recs {
		if err := r.loadLineItems(ctx, rec); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (r *expenseRepository) loadLineItems(ctx context.Context, rec *entity.ExpenseRecord) error {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT description, quantity, unit_price, line_total, confidence
		 FROM expense_line_items WHERE record_id = ? ORDER BY position`), rec.ID.String())
	if err != nil {
		return common.WrapError(err, "query line items")
	}
	defer rows.Close()

	rec.LineItems = []entity.LineItem{}
	for rows.Next() {
		var li entity.LineItem
		var qty, unit, total string
		if err := rows.Scan(&li.Description, &qty, &unit, &total, &li.Confidence); err != nil {
			return common.WrapError(err, "scan line item")
		}
		if li.Quantity, err = decimal.NewFromString(qty); err != nil {
			return common.WrapError(err, "decode quantity")
		}
		if li.UnitPrice, err = decimal.NewFromString(unit); err != nil {
			return common.WrapError(err, "decode unit price")
		}
		if li.LineTotal, err = decimal.NewFromString(total); err != nil {
			return common.WrapError(err, "decode line total")
		}
		rec.LineItems = append(rec.LineItems, li)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*entity.ExpenseRecord, error) {
	var rec entity.ExpenseRecord
	var idText, dateText, subtotal, tax, total, warnings string
	err := row.Scan(&idText, &rec.VendorName, &dateText, &rec.CurrencyCode,
		&subtotal, &tax, &total, &rec.OverallConfidence, &warnings)
	if err != nil {
		return nil, err
	}

	if rec.ID, err = uuid.Parse(idText); err != nil {
		return nil, common.WrapError(err, "decode id")
	}
	if dateText != "" {
		if rec.DocumentDate, err = time.Parse("2006-01-02", dateText); err != nil {
			return nil, common.WrapError(err, "decode document date")
		}
	}
	if rec.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, common.WrapError(err, "decode subtotal")
	}
	if rec.Tax, err = decimal.NewFromString(tax); err != nil {
		return nil, common.WrapError(err, "decode tax")
	}
	if rec.Total, err = decimal.NewFromString(total); err != nil {
		return nil, common.WrapError(err, "decode total")
	}
	if err = json.Unmarshal([]byte(warnings), &rec.Warnings); err != nil {
		return nil, common.WrapError(err, "decode warnings")
	}
	return &rec, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
