package dto

import (
	"time"

	"ledgerlens/internal/models"
)

type DocumentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	FileSize  int64  `json:"file_size"`
	FileURL   string `json:"file_url"`
	CreatedAt string `json:"created_at"`
}

func NewDocumentResponse(doc *models.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:        doc.ID.String(),
		FileName:  doc.FileName,
		FileSize:  doc.FileSize,
		FileURL:   doc.FileURL,
		CreatedAt: doc.CreatedAt.Format(time.RFC3339),
	}
}

type ProcessDocumentResponse struct {
	Document DocumentResponse       `json:"document"`
	Record   models.CanonicalRecord `json:"record"`
	// ExtractionFailed marks records that came out fully defaulted because
	// the extractor response contained no parseable JSON object.
	ExtractionFailed bool `json:"extraction_failed"`
}
