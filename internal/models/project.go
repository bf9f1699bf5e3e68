package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	InvestmentSelfSponsored   = "self-sponsored"
	InvestmentLookingForFirst = "looking-for-first-sponsor"
	InvestmentLookingForMore  = "looking-for-more-sponsors"
	DefaultInvestmentStatus   = InvestmentSelfSponsored
)

var ValidInvestmentStatuses = []string{
	InvestmentSelfSponsored,
	InvestmentLookingForFirst,
	InvestmentLookingForMore,
}

// ProjectLinks holds the external links shown on a project page.
type ProjectLinks struct {
	GitHub   string   `json:"github,omitempty"`
	LinkedIn string   `json:"linkedin,omitempty"`
	Website  string   `json:"website,omitempty"`
	Demo     string   `json:"demo,omitempty"`
	Other    []string `json:"other,omitempty"`
}

// Project is owned by exactly one user. Deleted projects keep their row with
// DeletedAt set and are hidden from every default-scoped query.
type Project struct {
	ID               string                           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title            string                           `gorm:"size:500;not null" json:"title"`
	Description      string                           `gorm:"type:text;not null" json:"description"`
	Readme           *string                          `gorm:"type:text" json:"readme"`
	DemoLink         *string                          `gorm:"size:1000" json:"demoLink"`
	Links            datatypes.JSONType[ProjectLinks] `json:"links"`
	InvestmentStatus string                           `gorm:"size:50;not null;default:self-sponsored;index" json:"investmentStatus"`
	IsRegistered     bool                             `gorm:"not null;default:false;index" json:"isRegistered"`
	OwnerID          string                           `gorm:"type:varchar(36);not null;index" json:"ownerId"`
	Files            []ProjectFile                    `gorm:"foreignKey:ProjectID" json:"files"`
	CreatedAt        time.Time                        `json:"createdAt"`
	UpdatedAt        time.Time                        `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt                   `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
