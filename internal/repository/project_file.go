package repository

import (
	"context"
	"time"

	"github.com/peoplesquare/backend/internal/models"
	"gorm.io/gorm"
)

type ProjectFileRepository struct {
	db *gorm.DB
}

func NewProjectFileRepository(db *gorm.DB) *ProjectFileRepository {
	return &ProjectFileRepository{db: db}
}

func (r *ProjectFileRepository) WithTx(tx *gorm.DB) *ProjectFileRepository {
	return &ProjectFileRepository{db: tx}
}

func (r *ProjectFileRepository) Create(ctx context.Context, file *models.ProjectFile) error {
	return translate(r.db.WithContext(ctx).Create(file).Error)
}

func (r *ProjectFileRepository) FindByID(ctx context.Context, id string) (*models.ProjectFile, error) {
	var file models.ProjectFile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&file).Error; err != nil {
		return nil, translate(err)
	}
	return &file, nil
}

// FindByFileName looks up an active file by its stored name.
func (r *ProjectFileRepository) FindByFileName(ctx context.Context, fileName string) (*models.ProjectFile, error) {
	var file models.ProjectFile
	if err := r.db.WithContext(ctx).Where("file_name = ?", fileName).First(&file).Error; err != nil {
		return nil, translate(err)
	}
	return &file, nil
}

func (r *ProjectFileRepository) FindByProjectAndType(ctx context.Context, projectID, fileType string) ([]models.ProjectFile, error) {
	var files []models.ProjectFile
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND file_type = ?", projectID, fileType).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

func (r *ProjectFileRepository) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProjectFile{}).Error
}

// SoftDeleteByProject marks every active file of a project deleted.
func (r *ProjectFileRepository) SoftDeleteByProject(ctx context.Context, projectID string) error {
	return r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&models.ProjectFile{}).Error
}

// Restore clears the deletion marker of a single file.
func (r *ProjectFileRepository) Restore(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Unscoped().Model(&models.ProjectFile{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]interface{}{"deleted_at": nil, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
