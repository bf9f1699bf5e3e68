package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/peoplesquare/backend/internal/config"
	"github.com/peoplesquare/backend/internal/models"
	"github.com/peoplesquare/backend/internal/storage"
	"github.com/peoplesquare/backend/internal/upload"
	"github.com/peoplesquare/backend/internal/utils"
	"github.com/peoplesquare/backend/pkg/response"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "Passw0rd!"

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

func init() {
	utils.SetJWTSecret("test-secret-for-services")
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := models.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

type sentCode struct {
	to, fullName, code string
}

type fakeMailer struct {
	mu      sync.Mutex
	enabled bool
	sent    []sentCode
}

func (m *fakeMailer) Enabled() bool { return m.enabled }

func (m *fakeMailer) SendResetCode(ctx context.Context, to, fullName, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentCode{to: to, fullName: fullName, code: code})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func requireAppError(t *testing.T, err error, status int, message string) *response.AppError {
	t.Helper()
	var appErr *response.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, status, appErr.HTTPStatus)
	if message != "" {
		require.Equal(t, message, appErr.Message)
	}
	return appErr
}

// fileHeader builds a parsed multipart file the way net/http hands it to
// handlers.
func fileHeader(t *testing.T, field, filename, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	w, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = w.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.Len(t, form.File[field], 1)
	return form.File[field][0]
}

type projectFixture struct {
	db    *gorm.DB
	svc   *ProjectService
	auth  *AuthService
	dir   string
	store *storage.Local
}

func newProjectFixture(t *testing.T) *projectFixture {
	t.Helper()
	db := newTestDB(t)
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := storage.NewLocal(dir)
	require.NoError(t, err)

	uploader := upload.New(store, 10<<20, "/uploads")
	return &projectFixture{
		db:    db,
		svc:   NewProjectService(db, store, uploader, nil),
		auth:  NewAuthService(db, config.JWTConfig{ExpireHour: 1}, config.PasswordResetConfig{CodeTTLMinutes: 15, ExposeCode: true}, nil, nil),
		dir:   dir,
		store: store,
	}
}

func (f *projectFixture) register(t *testing.T, name, email string) *models.User {
	t.Helper()
	res, err := f.auth.Register(context.Background(), &RegisterRequest{
		FullName: name,
		Email:    email,
		Role:     models.RoleStartupOwner,
		Password: testPassword,
	})
	require.NoError(t, err)
	return res.User
}

func strPtr(s string) *string { return &s }

func validInput() *ProjectInput {
	return &ProjectInput{
		Title:       strPtr("Solar Grid"),
		Description: strPtr("Community owned solar microgrid for rural schools"),
	}
}
