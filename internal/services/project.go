package services

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"github.com/peoplesquare/backend/internal/metrics"
	"github.com/peoplesquare/backend/internal/models"
	"github.com/peoplesquare/backend/internal/repository"
	"github.com/peoplesquare/backend/internal/storage"
	"github.com/peoplesquare/backend/internal/upload"
	"github.com/peoplesquare/backend/internal/utils"
	"github.com/peoplesquare/backend/pkg/logger"
	"github.com/peoplesquare/backend/pkg/response"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound         = response.NewNotFound("Project not found")
	ErrNotProjectOwner         = response.NewForbidden("Forbidden: You don't own this project")
	ErrFileNotFound            = response.NewNotFound("File not found")
	ErrInvalidInvestmentStatus = response.NewBadRequest("Invalid investment status")
	ErrFilenameRequired        = response.NewBadRequest("Filename is required")
	ErrNotFileOwner            = response.NewForbidden("Forbidden: You don't own this file")
)

// ProjectFileSlots are the multipart fields accepted on create and update,
// each mapped to the file type it stores.
var ProjectFileSlots = map[string]string{
	"proposal":   models.FileTypeProposal,
	"whitepaper": models.FileTypeWhitepaper,
}

// SlotNames returns the multipart field names of ProjectFileSlots.
func SlotNames() []string {
	return []string{"proposal", "whitepaper"}
}

type ProjectService struct {
	db       *gorm.DB
	projects *repository.ProjectRepository
	files    *repository.ProjectFileRepository
	store    storage.Storage
	uploader *upload.Uploader
	metrics  *metrics.Metrics
}

func NewProjectService(db *gorm.DB, store storage.Storage, uploader *upload.Uploader, m *metrics.Metrics) *ProjectService {
	return &ProjectService{
		db:       db,
		projects: repository.NewProjectRepository(db),
		files:    repository.NewProjectFileRepository(db),
		store:    store,
		uploader: uploader,
		metrics:  m,
	}
}

// ProjectInput carries client supplied fields. Nil pointers mean the field
// was not sent.
type ProjectInput struct {
	Title            *string              `json:"title"`
	Description      *string              `json:"description"`
	Readme           *string              `json:"readme"`
	DemoLink         *string              `json:"demoLink"`
	Links            *models.ProjectLinks `json:"links"`
	InvestmentStatus *string              `json:"investmentStatus"`
	IsRegistered     *bool                `json:"isRegistered"`
}

// apply copies the sanitized input onto p.
func (in *ProjectInput) apply(p *models.Project) {
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Readme != nil {
		p.Readme = utils.TrimOptional(in.Readme)
	}
	if in.DemoLink != nil {
		p.DemoLink = utils.TrimOptional(in.DemoLink)
	}
	if in.Links != nil {
		p.Links = datatypes.NewJSONType(utils.SanitizeLinks(*in.Links))
	}
	if in.InvestmentStatus != nil {
		if status := strings.TrimSpace(*in.InvestmentStatus); status != "" {
			p.InvestmentStatus = status
		}
	}
	if in.IsRegistered != nil {
		p.IsRegistered = *in.IsRegistered
	}
}

func validateProject(p *models.Project) error {
	fields := utils.ProjectFields{
		Title:            p.Title,
		Description:      p.Description,
		InvestmentStatus: p.InvestmentStatus,
		Links:            p.Links.Data(),
	}
	if p.DemoLink != nil {
		fields.DemoLink = *p.DemoLink
	}
	if errs := utils.ValidateProject(fields); len(errs) > 0 {
		return response.NewValidation(errs)
	}
	return nil
}

// Create stores a project owned by ownerID together with any attached
// proposal or whitepaper. Files are validated before anything is written.
func (s *ProjectService) Create(ctx context.Context, ownerID string, in *ProjectInput, files map[string]*multipart.FileHeader) (*models.Project, error) {
	project := &models.Project{
		OwnerID:          ownerID,
		InvestmentStatus: models.DefaultInvestmentStatus,
		IsRegistered:     false,
	}
	in.apply(project)
	if err := validateProject(project); err != nil {
		return nil, err
	}

	stored, err := s.acceptFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.projects.WithTx(tx).Create(ctx, project); err != nil {
			return err
		}
		fileRepo := s.files.WithTx(tx)
		for slot, sf := range stored {
			if err := fileRepo.Create(ctx, newProjectFile(project.ID, ProjectFileSlots[slot], sf)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.uploader.Discard(ctx, stored)
		return nil, err
	}

	logger.Info().Str("project_id", project.ID).Str("owner_id", ownerID).Int("files", len(stored)).Msg("project created")
	return s.projects.FindByID(ctx, project.ID)
}

// Update applies a partial edit. Each attached slot replaces the active
// file of that type: old rows are soft-deleted in the same transaction and
// their bytes removed after commit.
func (s *ProjectService) Update(ctx context.Context, id, callerID string, in *ProjectInput, files map[string]*multipart.FileHeader) (*models.Project, error) {
	project, err := s.getOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	in.apply(project)
	if err := validateProject(project); err != nil {
		return nil, err
	}

	stored, err := s.acceptFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	var replaced []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.projects.WithTx(tx).Update(ctx, project); err != nil {
			return err
		}
		fileRepo := s.files.WithTx(tx)
		for slot, sf := range stored {
			fileType := ProjectFileSlots[slot]
			old, err := fileRepo.FindByProjectAndType(ctx, project.ID, fileType)
			if err != nil {
				return err
			}
			for _, f := range old {
				if err := fileRepo.SoftDelete(ctx, f.ID); err != nil {
					return err
				}
				replaced = append(replaced, f.FileName)
			}
			if err := fileRepo.Create(ctx, newProjectFile(project.ID, fileType, sf)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.uploader.Discard(ctx, stored)
		return nil, err
	}

	s.removeBytes(ctx, replaced)
	return s.projects.FindByID(ctx, project.ID)
}

// Delete soft-deletes the project and its files, then removes the bytes.
func (s *ProjectService) Delete(ctx context.Context, id, callerID string) error {
	project, err := s.getOwned(ctx, id, callerID)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(project.Files))
	for _, f := range project.Files {
		names = append(names, f.FileName)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.files.WithTx(tx).SoftDeleteByProject(ctx, project.ID); err != nil {
			return err
		}
		return s.projects.WithTx(tx).SoftDelete(ctx, project.ID)
	})
	if err != nil {
		return err
	}

	s.removeBytes(ctx, names)
	logger.Info().Str("project_id", project.ID).Int("files", len(names)).Msg("project deleted")
	return nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	return s.projects.List(ctx, repository.ProjectFilter{})
}

func (s *ProjectService) ListMine(ctx context.Context, ownerID string) ([]models.Project, error) {
	return s.projects.List(ctx, repository.ProjectFilter{OwnerID: ownerID})
}

func (s *ProjectService) ListByInvestmentStatus(ctx context.Context, status string) ([]models.Project, error) {
	if !utils.ValidateInvestmentStatus(status) {
		return nil, ErrInvalidInvestmentStatus
	}
	return s.projects.List(ctx, repository.ProjectFilter{InvestmentStatus: status})
}

func (s *ProjectService) ListRegistered(ctx context.Context) ([]models.Project, error) {
	return s.projects.List(ctx, repository.ProjectFilter{RegisteredOnly: true})
}

// UploadFile stores a standalone document that is not attached to a project.
func (s *ProjectService) UploadFile(ctx context.Context, fh *multipart.FileHeader) (*upload.StoredFile, error) {
	if fh == nil {
		return nil, upload.ErrNoFile
	}
	stored, err := s.acceptFiles(ctx, map[string]*multipart.FileHeader{"file": fh})
	if err != nil {
		return nil, err
	}
	return stored["file"], nil
}

// DeleteUploadedFile removes stored bytes by name. Bytes backing an active
// project attachment may only be removed by that project's owner.
func (s *ProjectService) DeleteUploadedFile(ctx context.Context, filename, callerID string) error {
	if strings.TrimSpace(filename) == "" {
		return ErrFilenameRequired
	}
	name, err := storage.CleanName(filename)
	if err != nil {
		return ErrFilenameRequired
	}

	attached, err := s.files.FindByFileName(ctx, name)
	switch {
	case err == nil:
		project, err := s.projects.FindByID(ctx, attached.ProjectID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if project != nil && project.OwnerID != callerID {
			return ErrNotFileOwner
		}
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	return s.uploader.Remove(ctx, name)
}

// FileDownload is an open attachment ready to stream.
type FileDownload struct {
	File   *models.ProjectFile
	Reader io.ReadCloser
}

// OpenFile opens an active attachment of an active project.
func (s *ProjectService) OpenFile(ctx context.Context, fileID string) (*FileDownload, error) {
	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	if _, err := s.Get(ctx, file.ProjectID); err != nil {
		return nil, err
	}

	rc, err := s.store.Open(ctx, file.FileName)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return &FileDownload{File: file, Reader: rc}, nil
}

func (s *ProjectService) getOwned(ctx context.Context, id, callerID string) (*models.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != callerID {
		return nil, ErrNotProjectOwner
	}
	return project, nil
}

func (s *ProjectService) acceptFiles(ctx context.Context, files map[string]*multipart.FileHeader) (map[string]*upload.StoredFile, error) {
	if len(files) == 0 {
		return nil, nil
	}
	stored, err := s.uploader.Accept(ctx, files)
	for range files {
		s.metrics.Upload(err)
	}
	return stored, err
}

func (s *ProjectService) removeBytes(ctx context.Context, names []string) {
	for _, name := range names {
		if err := s.uploader.Remove(ctx, name); err != nil {
			logger.Warn().Err(err).Str("file", name).Msg("failed to remove stored file")
		}
	}
}

func newProjectFile(projectID, fileType string, sf *upload.StoredFile) *models.ProjectFile {
	return &models.ProjectFile{
		ProjectID:    projectID,
		OriginalName: sf.OriginalName,
		FileName:     sf.FileName,
		FilePath:     sf.URL,
		MimeType:     sf.MimeType,
		FileSize:     sf.Size,
		FileType:     fileType,
	}
}
