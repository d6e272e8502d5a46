package entity

import (
	"time"

	"github.com/google/uuid"
)

type ProfileRole string

const (
	ProfileRoleUser  ProfileRole = "user"
	ProfileRoleAdmin ProfileRole = "admin"
)

// Profile is the directory record the identity provider's user id maps to.
// This service only reads it; provisioning is owned by the admin CRUD surface.
type Profile struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyId    uuid.UUID `gorm:"type:uuid;index"`
	FullName     string
	Role         ProfileRole
	IsSuperAdmin bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
