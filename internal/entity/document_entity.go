package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusUploaded   DocumentStatus = "uploaded"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
)

// Document is a tenant file in the external catalog. The upload/ingestion
// pipeline owns writes; the chat core only ever reads ready documents.
type Document struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyId   uuid.UUID `gorm:"type:uuid;index"`
	FileName    string
	Status      DocumentStatus
	AutoSummary *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
