package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStartupOwner = "startup-owner"
	RoleInvestor     = "investor"
	RoleOrganization = "organization"
	RoleCitizen      = "citizen"
)

// ValidRoles lists every role a user may hold.
var ValidRoles = []string{RoleStartupOwner, RoleInvestor, RoleOrganization, RoleCitizen}

// User is a registered platform member. Rows are never hard deleted.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FullName  string    `gorm:"size:255;not null" json:"fullName"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Role      string    `gorm:"size:32;not null" json:"role"` // startup-owner, investor, organization, citizen
	Password  string    `gorm:"size:255;not null" json:"-"`  // bcrypt hash
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
