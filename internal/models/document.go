package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is one uploaded source file awaiting or past extraction. The
// raw extractor response is kept verbatim on the document; the structured
// result lives in the canonical record keyed by the same document.
type Document struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	FileName    string    `db:"file_name"`
	FileSize    int64     `db:"file_size"`
	FileURL     string    `db:"file_url"`
	RawResponse string    `db:"raw_response"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
