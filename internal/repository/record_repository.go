package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"ledgerlens/internal/models"
)

var recordColumns = []string{
	"doc_id", "document_id", "invoice_number", "check_number", "po_number",
	"vendor", "vendor_address", "customer_name", "customer_address",
	"issue_date", "due_date", "payment_date",
	"amount", "subtotal", "tax", "discount", "total",
	"currency", "payment_method", "account_number", "routing_number",
	"bank_name", "document_type", "notes", "raw_text", "created_at",
}

// RecordRepository persists canonical records and their line items. Records
// are written once at ingestion and only ever read afterwards; reports take
// a full-scan snapshot, which is acceptable at the thousands-of-documents
// scale this service targets.
type RecordRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRecordRepository(db *pgxpool.Pool, logger *zap.Logger) *RecordRepository {
	return &RecordRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the record tables when they do not exist yet.
func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS records (
			doc_id          TEXT PRIMARY KEY,
			document_id     UUID,
			invoice_number  TEXT NOT NULL DEFAULT '',
			check_number    TEXT NOT NULL DEFAULT '',
			po_number       TEXT NOT NULL DEFAULT '',
			vendor          TEXT NOT NULL DEFAULT '',
			vendor_address  TEXT NOT NULL DEFAULT '',
			customer_name   TEXT NOT NULL DEFAULT '',
			customer_address TEXT NOT NULL DEFAULT '',
			issue_date      TEXT NOT NULL DEFAULT '',
			due_date        TEXT NOT NULL DEFAULT '',
			payment_date    TEXT NOT NULL DEFAULT '',
			amount          DOUBLE PRECISION,
			subtotal        DOUBLE PRECISION,
			tax             DOUBLE PRECISION,
			discount        DOUBLE PRECISION,
			total           DOUBLE PRECISION,
			currency        TEXT NOT NULL DEFAULT '',
			payment_method  TEXT NOT NULL DEFAULT '',
			account_number  TEXT NOT NULL DEFAULT '',
			routing_number  TEXT NOT NULL DEFAULT '',
			bank_name       TEXT NOT NULL DEFAULT '',
			document_type   TEXT NOT NULL DEFAULT 'unknown',
			notes           TEXT NOT NULL DEFAULT '',
			raw_text        TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS record_items (
			id        UUID PRIMARY KEY,
			doc_id    TEXT NOT NULL REFERENCES records(doc_id) ON DELETE CASCADE,
			position  INT NOT NULL,
			item      TEXT NOT NULL,
			qty       DOUBLE PRECISION,
			price     DOUBLE PRECISION,
			total     DOUBLE PRECISION
		)`,
	}
	for _, stmt := range ddl {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure record schema: %w", err)
		}
	}
	return nil
}

// Create stores one canonical record with its line items. documentID links
// back to the uploaded source file and may be uuid.Nil for seeded records.
func (r *RecordRepository) Create(ctx context.Context, rec models.CanonicalRecord, documentID uuid.UUID) error {
	var docRef any
	if documentID != uuid.Nil {
		docRef = documentID
	}

	query := squirrel.Insert("records").
		Columns(recordColumns...).
		Values(
			rec.DocID, docRef, rec.InvoiceNumber, rec.CheckNumber, rec.PONumber,
			rec.Vendor, rec.VendorAddress, rec.CustomerName, rec.CustomerAddress,
			rec.Date, rec.DueDate, rec.PaymentDate,
			numericValue(rec.Amount), numericValue(rec.Subtotal), numericValue(rec.Tax),
			numericValue(rec.Discount), numericValue(rec.Total),
			rec.Currency, rec.PaymentMethod, rec.AccountNumber, rec.RoutingNumber,
			rec.BankName, string(rec.DocumentType), rec.Notes, rec.RawText, time.Now(),
		).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return err
	}

	if len(rec.Items) == 0 {
		return nil
	}
	items := squirrel.Insert("record_items").
		Columns("id", "doc_id", "position", "item", "qty", "price", "total").
		PlaceholderFormat(squirrel.Dollar)
	for i, item := range rec.Items {
		items = items.Values(
			uuid.New(), rec.DocID, i, item.Name,
			numericValue(item.Qty), numericValue(item.Price), numericValue(item.Total),
		)
	}
	sql, args, err = items.ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// ListAll returns a snapshot of every canonical record with line items
// attached, in ingestion order.
func (r *RecordRepository) ListAll(ctx context.Context) ([]models.CanonicalRecord, error) {
	records, order, err := r.scanRecords(ctx, squirrel.Select(recordColumns...).
		From("records").
		OrderBy("created_at ASC, doc_id ASC"))
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, records); err != nil {
		return nil, err
	}
	out := make([]models.CanonicalRecord, 0, len(order))
	for _, id := range order {
		out = append(out, *records[id])
	}
	return out, nil
}

// GetByID fetches one record with its items.
func (r *RecordRepository) GetByID(ctx context.Context, docID string) (*models.CanonicalRecord, error) {
	records, order, err := r.scanRecords(ctx, squirrel.Select(recordColumns...).
		From("records").
		Where(squirrel.Eq{"doc_id": docID}))
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("record %s not found", docID)
	}
	if err := r.attachItems(ctx, records); err != nil {
		return nil, err
	}
	return records[order[0]], nil
}

// SearchText is a plain-text lookup over the raw fallback text and the main
// header fields. It stands in for the out-of-scope semantic retrieval.
func (r *RecordRepository) SearchText(ctx context.Context, queryText string, limit int) ([]models.CanonicalRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + queryText + "%"
	records, order, err := r.scanRecords(ctx, squirrel.Select(recordColumns...).
		From("records").
		Where(squirrel.Or{
			squirrel.ILike{"raw_text": pattern},
			squirrel.ILike{"vendor": pattern},
			squirrel.ILike{"notes": pattern},
			squirrel.ILike{"invoice_number": pattern},
		}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)))
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, records); err != nil {
		return nil, err
	}
	out := make([]models.CanonicalRecord, 0, len(order))
	for _, id := range order {
		out = append(out, *records[id])
	}
	return out, nil
}

// Count returns the record population size.
func (r *RecordRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}

func (r *RecordRepository) scanRecords(ctx context.Context, query squirrel.SelectBuilder) (map[string]*models.CanonicalRecord, []string, error) {
	sql, args, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	records := make(map[string]*models.CanonicalRecord)
	var order []string
	for rows.Next() {
		var rec models.CanonicalRecord
		var documentID *uuid.UUID
		var amount, subtotal, tax, discount, total *float64
		var docType string
		var createdAt time.Time
		if err := rows.Scan(
			&rec.DocID, &documentID, &rec.InvoiceNumber, &rec.CheckNumber, &rec.PONumber,
			&rec.Vendor, &rec.VendorAddress, &rec.CustomerName, &rec.CustomerAddress,
			&rec.Date, &rec.DueDate, &rec.PaymentDate,
			&amount, &subtotal, &tax, &discount, &total,
			&rec.Currency, &rec.PaymentMethod, &rec.AccountNumber, &rec.RoutingNumber,
			&rec.BankName, &docType, &rec.Notes, &rec.RawText, &createdAt,
		); err != nil {
			return nil, nil, err
		}
		rec.Amount = numericFrom(amount)
		rec.Subtotal = numericFrom(subtotal)
		rec.Tax = numericFrom(tax)
		rec.Discount = numericFrom(discount)
		rec.Total = numericFrom(total)
		rec.DocumentType = models.DocumentType(docType)
		rec.Items = []models.LineItem{}
		records[rec.DocID] = &rec
		order = append(order, rec.DocID)
	}
	return records, order, rows.Err()
}

func (r *RecordRepository) attachItems(ctx context.Context, records map[string]*models.CanonicalRecord) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sql, args, err := squirrel.Select("doc_id", "item", "qty", "price", "total").
		From("record_items").
		Where(squirrel.Eq{"doc_id": ids}).
		OrderBy("doc_id ASC, position ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var docID, name string
		var qty, price, total *float64
		if err := rows.Scan(&docID, &name, &qty, &price, &total); err != nil {
			return err
		}
		rec, ok := records[docID]
		if !ok {
			continue
		}
		rec.Items = append(rec.Items, models.LineItem{
			Name:  name,
			Qty:   numericFrom(qty),
			Price: numericFrom(price),
			Total: numericFrom(total),
		})
	}
	return rows.Err()
}

// numericValue renders the unknown marker as SQL NULL so it stays distinct
// from zero in storage.
func numericValue(n models.Numeric) any {
	if !n.Known {
		return nil
	}
	return n.Value
}

func numericFrom(p *float64) models.Numeric {
	if p == nil {
		return models.Unknown()
	}
	return models.Num(*p)
}
