// FILE: internal/dto/document_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type DocumentResponse struct {
	Id       uuid.UUID `json:"id"`
	FileName string    `json:"file_name"`
	Summary  string    `json:"summary,omitempty"`
	Selected bool      `json:"selected"`
}

type DocumentListResponse struct {
	Documents    []DocumentResponse `json:"documents"`
	SelectedIds  []uuid.UUID        `json:"selected_ids"`
	CatalogError bool               `json:"catalog_error"`
}

type ToggleDocumentRequest struct {
	DocumentId uuid.UUID `json:"document_id" validate:"required"`
}

// AdminDocumentResponse is the admin catalog view: every document of the
// company regardless of ingestion status.
type AdminDocumentResponse struct {
	Id        uuid.UUID  `json:"id"`
	FileName  string     `json:"file_name"`
	Status    string     `json:"status"`
	Summary   string     `json:"summary,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
