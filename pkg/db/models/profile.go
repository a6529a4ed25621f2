package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// Profile is the identity record for a farmer, distributor, or retailer.
// It mirrors the external identity provider's subject and owns every
// mutable row in the system through its id.
type Profile struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Role         enums.ProfileRole `gorm:"column:role;type:profile_role;not null"`
	CompanyName  *string           `gorm:"column:company_name"`
	FullName     string            `gorm:"column:full_name;not null"`
	ContactEmail string            `gorm:"column:contact_email;not null;uniqueIndex:idx_profiles_contact_email"`
	PasswordHash string            `gorm:"column:password_hash;not null"`
	PhoneNumber  *string           `gorm:"column:phone_number"`
	Address      *string           `gorm:"column:address"`
	LocationCode string            `gorm:"column:location_code;not null;uniqueIndex:idx_profiles_location_code"`
	IsVerified   bool              `gorm:"column:is_verified;not null;default:false"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
