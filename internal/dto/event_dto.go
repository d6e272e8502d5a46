// FILE: internal/dto/event_dto.go
package dto

import (
	"github.com/google/uuid"
)

// CatalogChangedMessage is the internal bus payload telling live sessions of
// a company that the ready-document catalog moved underneath them.
type CatalogChangedMessage struct {
	CompanyId uuid.UUID `json:"company_id"`
}
