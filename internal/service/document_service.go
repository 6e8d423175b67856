package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ledgerlens/internal/dto"
	"ledgerlens/internal/extract"
	"ledgerlens/internal/models"
	"ledgerlens/internal/repository"
)

// DocumentService drives the ingestion pipeline: store the uploaded file,
// ask the vision extractor for raw text, normalize it into a canonical
// record, persist. Extraction and decode failures degrade to a fully
// defaulted record; ingestion itself never fails on bad model output.
type DocumentService struct {
	docRepo    *repository.DocumentRepository
	recordRepo *repository.RecordRepository
	vision     *VisionService
	opts       extract.Options
	uploadDir  string
	logger     *zap.Logger
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	recordRepo *repository.RecordRepository,
	vision *VisionService,
	opts extract.Options,
	uploadDir string,
	logger *zap.Logger,
) *DocumentService {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		logger.Warn("Failed to create upload directory", zap.Error(err))
	}
	return &DocumentService{
		docRepo:    docRepo,
		recordRepo: recordRepo,
		vision:     vision,
		opts:       opts,
		uploadDir:  uploadDir,
		logger:     logger,
	}
}

// UploadDocument saves the file and creates the document row.
func (s *DocumentService) UploadDocument(ctx context.Context, userID uuid.UUID, file io.Reader, fileName string) (*dto.DocumentResponse, error) {
	fileID := uuid.New()
	ext := filepath.Ext(fileName)
	filePath := filepath.Join(s.uploadDir, fileID.String()+ext)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	fileSize, err := io.Copy(dst, file)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	now := time.Now()
	doc := &models.Document{
		ID:        fileID,
		UserID:    userID,
		FileName:  fileName,
		FileSize:  fileSize,
		FileURL:   "/uploads/" + fileID.String() + ext,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	return dto.NewDocumentResponse(doc), nil
}

// ProcessDocument runs extraction and normalization for one uploaded
// document and stores the resulting canonical record.
func (s *DocumentService) ProcessDocument(ctx context.Context, userID uuid.UUID, documentID uuid.UUID) (*dto.ProcessDocumentResponse, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("document not found: %w", err)
	}
	if doc.UserID != userID {
		return nil, fmt.Errorf("unauthorized")
	}

	filePath := filepath.Join(s.uploadDir, filepath.Base(doc.FileURL))
	raw, err := s.vision.ExtractDocument(ctx, filePath)
	if err != nil {
		// The extractor being down or confused still produces a stored,
		// fully-defaulted record.
		s.logger.Warn("Vision extraction failed", zap.Error(err), zap.String("document_id", documentID.String()))
		raw = ""
	}
	raw = sanitizeUTF8(raw)

	if raw != "" {
		if err := s.docRepo.UpdateRawResponse(ctx, documentID, raw); err != nil {
			s.logger.Warn("Failed to store raw response", zap.Error(err))
		}
	}

	rec, extractErr := s.ingestRaw(ctx, raw, documentID)
	if extractErr != nil && !errors.Is(extractErr, extract.ErrExtractionFailed) {
		return nil, extractErr
	}

	doc.RawResponse = raw
	return &dto.ProcessDocumentResponse{
		Document:         *dto.NewDocumentResponse(doc),
		Record:           rec,
		ExtractionFailed: errors.Is(extractErr, extract.ErrExtractionFailed),
	}, nil
}

// IngestRaw normalizes and stores one raw extractor response that did not
// come from an uploaded file (batch seeding, replays).
func (s *DocumentService) IngestRaw(ctx context.Context, raw string) (models.CanonicalRecord, error) {
	rec, err := s.ingestRaw(ctx, sanitizeUTF8(raw), uuid.Nil)
	if err != nil && !errors.Is(err, extract.ErrExtractionFailed) {
		return models.CanonicalRecord{}, err
	}
	return rec, nil
}

func (s *DocumentService) ingestRaw(ctx context.Context, raw string, documentID uuid.UUID) (models.CanonicalRecord, error) {
	rec, decodeErr := extract.NormalizeResponse(raw, s.opts)
	if decodeErr != nil {
		s.logger.Warn("Extraction failed, storing defaulted record",
			zap.String("doc_id", rec.DocID),
			zap.Error(decodeErr),
		)
	}
	if err := s.recordRepo.Create(ctx, rec, documentID); err != nil {
		return rec, fmt.Errorf("failed to store record: %w", err)
	}
	s.logger.Info("Canonical record stored",
		zap.String("doc_id", rec.DocID),
		zap.String("vendor", rec.Vendor),
		zap.Int("items", len(rec.Items)),
	)
	return rec, decodeErr
}

// ListDocuments returns the user's uploaded documents.
func (s *DocumentService) ListDocuments(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*dto.DocumentResponse, error) {
	docs, err := s.docRepo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, dto.NewDocumentResponse(doc))
	}
	return out, nil
}
