package specification

import (
	"ai-docchat-be/internal/entity"

	"gorm.io/gorm"
)

// WithStatus filters documents by ingestion status.
type WithStatus struct {
	Status entity.DocumentStatus
}

func (s WithStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ReadyOnly is the catalog's visibility rule: only fully ingested documents
// are ever offered for selection.
func ReadyOnly() Specification {
	return WithStatus{Status: entity.DocumentStatusReady}
}
