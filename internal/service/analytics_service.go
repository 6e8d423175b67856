package service

import (
	"context"

	"go.uber.org/zap"

	"ledgerlens/internal/analytics"
	"ledgerlens/internal/models"
	"ledgerlens/internal/repository"
)

// AnalyticsService computes catalog reports over the current record
// population. Each call takes a fresh full-scan snapshot; reports
// themselves are stateless pure functions, so concurrent report requests
// need no coordination.
type AnalyticsService struct {
	recordRepo *repository.RecordRepository
	catalog    *analytics.Catalog
	logger     *zap.Logger
}

func NewAnalyticsService(recordRepo *repository.RecordRepository, catalog *analytics.Catalog, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		recordRepo: recordRepo,
		catalog:    catalog,
		logger:     logger,
	}
}

// Names lists the report catalog.
func (s *AnalyticsService) Names() []string {
	return s.catalog.Names()
}

// Run computes one named report over a snapshot of all records.
func (s *AnalyticsService) Run(ctx context.Context, name string) (*analytics.Table, error) {
	snapshot, err := s.recordRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	table, err := s.catalog.Run(name, snapshot)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Report computed",
		zap.String("report", name),
		zap.Int("records", len(snapshot)),
		zap.Int("rows", len(table.Rows)),
	)
	return table, nil
}

// ListRecords returns the full record snapshot.
func (s *AnalyticsService) ListRecords(ctx context.Context) ([]models.CanonicalRecord, error) {
	return s.recordRepo.ListAll(ctx)
}

// SearchRecords is the plain-text lookup over raw document text.
func (s *AnalyticsService) SearchRecords(ctx context.Context, query string, limit int) ([]models.CanonicalRecord, error) {
	return s.recordRepo.SearchText(ctx, query, limit)
}
