package dto

import "ledgerlens/internal/models"

type ReportListResponse struct {
	Reports []string `json:"reports"`
}

type RecordListResponse struct {
	Records []models.CanonicalRecord `json:"records"`
	Total   int                      `json:"total"`
}
