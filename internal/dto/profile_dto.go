// FILE: internal/dto/profile_dto.go
package dto

import (
	"github.com/google/uuid"
)

type ProfileResponse struct {
	UserId       uuid.UUID `json:"user_id"`
	CompanyId    uuid.UUID `json:"company_id"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	IsSuperAdmin bool      `json:"is_super_admin"`
}

// ResolutionResponse tags the identity state so the client can distinguish a
// signed-out user from a signed-in one whose profile row is still being
// provisioned.
type ResolutionResponse struct {
	State   string           `json:"state"` // "unauthenticated" | "provisioning" | "authenticated"
	Profile *ProfileResponse `json:"profile,omitempty"`
}
