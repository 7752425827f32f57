package api

import (
	"github.com/starford/grampsxml/internal/archive"
	"github.com/starford/grampsxml/internal/catalog"
	"github.com/starford/grampsxml/internal/models"
	"github.com/starford/grampsxml/internal/validator"
)

// ParseResponse is returned by POST /parse.
type ParseResponse struct {
	Document   *models.Document     `json:"document" validate:"required"`
	Violations validator.Violations `json:"violations" validate:"required"`
}

// ValidateResponse is returned by POST /validate.
type ValidateResponse struct {
	Valid      bool                 `json:"valid" example:"false"`
	Strict     bool                 `json:"strict" example:"false"`
	Violations validator.Violations `json:"violations" validate:"required"`
}

// ArchiveDetail is the full archive response type (aliased from the domain layer).
type ArchiveDetail = archive.Detail

// ArchiveListResponse wraps paginated archive listings.
type ArchiveListResponse struct {
	Archives []catalog.ArchiveRow `json:"archives" validate:"required"`
	Total    int                  `json:"total" example:"42" validate:"required"`
}

// ViolationsResponse is the stored validation report of one archive.
type ViolationsResponse struct {
	Path       string                 `json:"path" example:"family/smith.gramps" validate:"required"`
	Violations []catalog.ViolationRow `json:"violations" validate:"required"`
}

// BatchResponse wraps the reports of POST /batch/validate.
type BatchResponse struct {
	Reports []archive.Report `json:"reports" validate:"required"`
	Valid   int              `json:"valid" example:"3"`
	Invalid int              `json:"invalid" example:"1"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []catalog.SearchResult `json:"results" validate:"required"`
}
