package handlers

import (
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/peoplesquare/backend/internal/middleware"
	"github.com/peoplesquare/backend/internal/models"
	"github.com/peoplesquare/backend/internal/services"
	"github.com/peoplesquare/backend/internal/upload"
	"github.com/peoplesquare/backend/pkg/logger"
	"github.com/peoplesquare/backend/pkg/response"
)

var (
	errInvalidLinks        = response.NewBadRequest("Links must be valid JSON")
	errInvalidIsRegistered = response.NewBadRequest("isRegistered must be true or false")
)

type ProjectHandler struct {
	projectService *services.ProjectService
	uploader       *upload.Uploader
}

func NewProjectHandler(projectService *services.ProjectService, uploader *upload.Uploader) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		uploader:       uploader,
	}
}

// readProjectInput accepts either a JSON body or a multipart form carrying
// the same fields plus optional proposal and whitepaper files.
func (h *ProjectHandler) readProjectInput(c *gin.Context) (*services.ProjectInput, map[string]*multipart.FileHeader, bool) {
	slots := services.SlotNames()
	isMultipart, err := h.uploader.ParseForm(c.Writer, c.Request, len(slots))
	if err != nil {
		response.Error(c, err)
		return nil, nil, false
	}

	if !isMultipart {
		in := &services.ProjectInput{}
		if !bindJSON(c, in) {
			return nil, nil, false
		}
		return in, nil, true
	}

	form := c.Request.MultipartForm
	in, err := projectInputFromForm(form)
	if err != nil {
		response.Error(c, err)
		return nil, nil, false
	}
	return in, upload.Slots(form, slots...), true
}

func projectInputFromForm(form *multipart.Form) (*services.ProjectInput, error) {
	in := &services.ProjectInput{}
	value := func(key string) *string {
		if vs, ok := form.Value[key]; ok && len(vs) > 0 {
			v := vs[0]
			return &v
		}
		return nil
	}

	in.Title = value("title")
	in.Description = value("description")
	in.Readme = value("readme")
	in.DemoLink = value("demoLink")
	in.InvestmentStatus = value("investmentStatus")

	if raw := value("links"); raw != nil && strings.TrimSpace(*raw) != "" {
		var links models.ProjectLinks
		if err := json.Unmarshal([]byte(*raw), &links); err != nil {
			return nil, errInvalidLinks
		}
		in.Links = &links
	}

	if raw := value("isRegistered"); raw != nil && strings.TrimSpace(*raw) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(*raw))
		if err != nil {
			return nil, errInvalidIsRegistered
		}
		in.IsRegistered = &b
	}
	return in, nil
}

// Create creates a new project owned by the caller
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	in, files, ok := h.readProjectInput(c)
	if !ok {
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), middleware.GetUserID(c), in, files)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Project created successfully", project)
}

// List returns every active project
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, projects)
}

// ListMine returns the caller's projects
// GET /api/projects/my-projects
func (h *ProjectHandler) ListMine(c *gin.Context) {
	projects, err := h.projectService.ListMine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, projects)
}

// ListRegistered returns registered projects
// GET /api/projects/registered
func (h *ProjectHandler) ListRegistered(c *gin.Context) {
	projects, err := h.projectService.ListRegistered(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, projects)
}

// ListByInvestmentStatus
// GET /api/projects/investment-status/:status
func (h *ProjectHandler) ListByInvestmentStatus(c *gin.Context) {
	projects, err := h.projectService.ListByInvestmentStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, projects)
}

// GetByID returns a project with its files
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	project, err := h.projectService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", project)
}

// Update edits a project and replaces any attached files
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	in, files, ok := h.readProjectInput(c)
	if !ok {
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), in, files)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "Project updated successfully", project)
}

// Delete soft-deletes a project and its files
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projectService.Delete(c.Request.Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Project deleted successfully", nil)
}

// UploadFile stores a standalone document
// POST /api/projects/upload
func (h *ProjectHandler) UploadFile(c *gin.Context) {
	isMultipart, err := h.uploader.ParseForm(c.Writer, c.Request, 1)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !isMultipart {
		response.Error(c, upload.ErrNoFile)
		return
	}

	fh := upload.Slots(c.Request.MultipartForm, "file")["file"]
	stored, err := h.projectService.UploadFile(c.Request.Context(), fh)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "File uploaded successfully", stored)
}

// DeleteUploadedFile removes stored bytes by name
// DELETE /api/projects/upload/:filename
func (h *ProjectHandler) DeleteUploadedFile(c *gin.Context) {
	err := h.projectService.DeleteUploadedFile(c.Request.Context(), c.Param("filename"), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "File deleted successfully", nil)
}

// DownloadFile streams an attachment under its original name
// GET /api/projects/file/:fileId/download
func (h *ProjectHandler) DownloadFile(c *gin.Context) {
	dl, err := h.projectService.OpenFile(c.Request.Context(), c.Param("fileId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer dl.Reader.Close()

	contentType := dl.File.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": dl.File.OriginalName})
	if disposition == "" {
		disposition = "attachment"
	}

	c.DataFromReader(http.StatusOK, dl.File.FileSize, contentType, dl.Reader, map[string]string{
		"Content-Disposition": disposition,
	})
	if len(c.Errors) > 0 {
		logger.Warn().Str("file_id", dl.File.ID).Str("errors", c.Errors.String()).Msg("file download interrupted")
	}
}
