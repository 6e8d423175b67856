package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"ledgerlens/internal/models"
)

type DocumentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the documents table when it does not exist yet.
func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS documents (
		id           UUID PRIMARY KEY,
		user_id      UUID NOT NULL,
		file_name    TEXT NOT NULL,
		file_size    BIGINT NOT NULL DEFAULT 0,
		file_url     TEXT NOT NULL DEFAULT '',
		raw_response TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("ensure document schema: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := squirrel.Insert("documents").
		Columns("id", "user_id", "file_name", "file_size", "file_url", "raw_response", "created_at", "updated_at").
		Values(doc.ID, doc.UserID, doc.FileName, doc.FileSize, doc.FileURL, doc.RawResponse, doc.CreatedAt, doc.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := squirrel.Select("id", "user_id", "file_name", "file_size", "file_url", "raw_response", "created_at", "updated_at").
		From("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var doc models.Document
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&doc.ID, &doc.UserID, &doc.FileName, &doc.FileSize, &doc.FileURL, &doc.RawResponse, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateRawResponse stores the extractor's raw text on the document after
// processing.
func (r *DocumentRepository) UpdateRawResponse(ctx context.Context, id uuid.UUID, raw string) error {
	query := squirrel.Update("documents").
		Set("raw_response", raw).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Document, error) {
	query := squirrel.Select("id", "user_id", "file_name", "file_size", "file_url", "raw_response", "created_at", "updated_at").
		From("documents").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.ID, &doc.UserID, &doc.FileName, &doc.FileSize, &doc.FileURL, &doc.RawResponse, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		documents = append(documents, &doc)
	}
	return documents, rows.Err()
}
