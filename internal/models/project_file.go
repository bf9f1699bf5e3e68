package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FileTypeProposal   = "proposal"
	FileTypeWhitepaper = "whitepaper"
	FileTypeOther      = "other"
)

// ProjectFile is the metadata of an attachment. The bytes live in storage
// under FileName.
type ProjectFile struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProjectID    string         `gorm:"type:varchar(36);not null;index:idx_project_files_project_type" json:"projectId"`
	OriginalName string         `gorm:"size:255;not null" json:"originalName"`
	FileName     string         `gorm:"size:255;not null" json:"fileName"`
	FilePath     string         `gorm:"size:500;not null" json:"filePath"`
	MimeType     string         `gorm:"size:255;not null" json:"mimeType"`
	FileSize     int64          `gorm:"not null" json:"fileSize"`
	FileType     string         `gorm:"size:20;not null;default:other;index:idx_project_files_project_type" json:"fileType"` // proposal, whitepaper, other
	Description  *string        `gorm:"type:text" json:"description"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ProjectFile) TableName() string { return "project_files" }

func (f *ProjectFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
