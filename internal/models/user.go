package models

import (
	"time"
)

// User roles mirror the Active Directory group mapping. LDAP users are not
// persisted; this table only backs the local fallback login used when no LDAP
// server is configured (development mode).
const (
	RoleAdmin       = "ADMIN"
	RoleDesembarque = "DESEMBARQUE"
	RoleConferente  = "CONFERENTE"
	RoleEmbarque    = "EMBARQUE"
	RoleNoAccess    = "NO_ACCESS"
)

// UserAuth represents a locally authenticated user.
type UserAuth struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:100;not null" json:"username"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Email        string     `gorm:"size:255" json:"email"`
	Role         string     `gorm:"size:50;default:'NO_ACCESS'" json:"role"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserAuth) TableName() string {
	return "user_auths"
}
