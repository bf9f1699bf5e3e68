package repository

import (
	"context"
	"time"

	"github.com/peoplesquare/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectFilter narrows List. Zero values mean no restriction.
type ProjectFilter struct {
	OwnerID          string
	InvestmentStatus string
	RegisteredOnly   bool
}

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) WithTx(tx *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: tx}
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error)
}

// FindByID loads an active project together with its active files.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Preload("Files", newestFirst).
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, translate(err)
	}
	ensureFiles(&project)
	return &project, nil
}

func (r *ProjectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	query := r.db.WithContext(ctx).Model(&models.Project{}).Preload("Files", newestFirst)

	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.InvestmentStatus != "" {
		query = query.Where("investment_status = ?", filter.InvestmentStatus)
	}
	if filter.RegisteredOnly {
		query = query.Where("is_registered = ?", true)
	}

	var projects []models.Project
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	for i := range projects {
		ensureFiles(&projects[i])
	}
	return projects, nil
}

// ensureFiles makes a project without attachments serialize files as [].
func ensureFiles(p *models.Project) {
	if p.Files == nil {
		p.Files = []models.ProjectFile{}
	}
}

// Update persists every column except identity, ownership and creation time.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	err := r.db.WithContext(ctx).
		Model(project).
		Omit(clause.Associations).
		Select("title", "description", "readme", "demo_link", "links", "investment_status", "is_registered", "updated_at").
		Updates(project).Error
	return translate(err)
}

func (r *ProjectRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Project{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore clears the deletion marker. It is not reachable from the API.
func (r *ProjectRepository) Restore(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Unscoped().Model(&models.Project{}).
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
