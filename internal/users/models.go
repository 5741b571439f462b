package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RolePartner  Role = "PARTNER"
	RoleAdmin    Role = "ADMIN"
)

type User struct {
	ID                uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	Name              string     `json:"name" gorm:"not null"`
	Email             string     `json:"email" gorm:"uniqueIndex;not null"`
	Password          string     `json:"-" gorm:"not null"`
	Role              Role       `json:"role" gorm:"type:varchar(20);not null;index"`
	Active            bool       `json:"active" gorm:"not null;index"`
	Photo             string     `json:"photo,omitempty"`
	Description       string     `json:"description,omitempty"`
	PasswordChangedAt *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`

	// EmailConfirmed is separate from Active, which admins use for bans
	EmailConfirmed       bool       `json:"emailConfirmed" gorm:"not null;default:false"`
	ConfirmPinHash       *string    `json:"-" gorm:"size:64"`
	ConfirmPinExpires    *time.Time `json:"-"`
	PasswordResetHash    *string    `json:"-" gorm:"size:64;index"`
	PasswordResetExpires *time.Time `json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns the id and normalises the email
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = NormalizeEmail(u.Email)
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleCustomer, RolePartner, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// Actor is the authenticated caller of an operation
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
