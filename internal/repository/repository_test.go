package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/peoplesquare/backend/internal/config"
	"github.com/peoplesquare/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

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

func seedUser(t *testing.T, repo *UserRepository, email string) *models.User {
	t.Helper()
	u := &models.User{FullName: "Test User", Email: email, Role: models.RoleStartupOwner, Password: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	u := seedUser(t, repo, "alice@x.com")
	assert.NotEmpty(t, u.ID)

	byEmail, err := repo.FindByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", byID.Email)

	_, err = repo.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_UniqueEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	seedUser(t, repo, "alice@x.com")

	err := repo.Create(context.Background(), &models.User{FullName: "Other", Email: "alice@x.com", Role: models.RoleCitizen, Password: "hash"})
	assert.Error(t, err)
}

func TestUserRepository_EmailTaken(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	alice := seedUser(t, repo, "alice@x.com")
	bob := seedUser(t, repo, "bob@x.com")

	taken, err := repo.EmailTaken(ctx, "alice@x.com", bob.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.EmailTaken(ctx, "alice@x.com", alice.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserRepository_UpdateProfileKeepsPassword(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	u := seedUser(t, repo, "alice@x.com")

	u.FullName = "Alice Renamed"
	require.NoError(t, repo.UpdateProfile(ctx, u, ""))

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Renamed", got.FullName)
	assert.Equal(t, "hash", got.Password)

	require.NoError(t, repo.UpdateProfile(ctx, got, "new-hash"))
	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.Password)
}

func TestUserRepository_UpdatePasswordUnknownUser(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), "missing", "hash"), ErrNotFound)
}

func TestProjectRepository_ListFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	projects := NewProjectRepository(db)

	alice := seedUser(t, users, "alice@x.com")
	bob := seedUser(t, users, "bob@x.com")

	base := time.Now().UTC().Add(-time.Hour)
	older := &models.Project{Title: "Older", Description: "older project", OwnerID: alice.ID,
		InvestmentStatus: models.InvestmentSelfSponsored, CreatedAt: base}
	newer := &models.Project{Title: "Newer", Description: "newer project", OwnerID: bob.ID,
		InvestmentStatus: models.InvestmentLookingForFirst, IsRegistered: true, CreatedAt: base.Add(time.Minute)}
	require.NoError(t, projects.Create(ctx, older))
	require.NoError(t, projects.Create(ctx, newer))

	all, err := projects.List(ctx, ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)

	mine, err := projects.List(ctx, ProjectFilter{OwnerID: alice.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, older.ID, mine[0].ID)

	byStatus, err := projects.List(ctx, ProjectFilter{InvestmentStatus: models.InvestmentLookingForFirst})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, newer.ID, byStatus[0].ID)

	registered, err := projects.List(ctx, ProjectFilter{RegisteredOnly: true})
	require.NoError(t, err)
	require.Len(t, registered, 1)
	assert.True(t, registered[0].IsRegistered)
}

func TestProjectRepository_SoftDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := seedUser(t, NewUserRepository(db), "alice@x.com")
	projects := NewProjectRepository(db)

	p := &models.Project{Title: "Solar", Description: "community solar", OwnerID: owner.ID,
		InvestmentStatus: models.InvestmentSelfSponsored,
		Links:            datatypes.NewJSONType(models.ProjectLinks{GitHub: "https://github.com/acme/solar"})}
	require.NoError(t, projects.Create(ctx, p))

	got, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/solar", got.Links.Data().GitHub)

	require.NoError(t, projects.SoftDelete(ctx, p.ID))

	_, err = projects.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := projects.List(ctx, ProjectFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	var raw int64
	require.NoError(t, db.Unscoped().Model(&models.Project{}).Where("id = ?", p.ID).Count(&raw).Error)
	assert.Equal(t, int64(1), raw, "row must persist after soft delete")

	require.NoError(t, projects.Restore(ctx, p.ID))
	_, err = projects.FindByID(ctx, p.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, projects.Restore(ctx, p.ID), ErrNotFound)
}

func TestProjectRepository_UpdateKeepsOwner(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := seedUser(t, NewUserRepository(db), "alice@x.com")
	projects := NewProjectRepository(db)

	p := &models.Project{Title: "Solar", Description: "community solar", OwnerID: owner.ID,
		InvestmentStatus: models.InvestmentSelfSponsored}
	require.NoError(t, projects.Create(ctx, p))

	p.Title = "Solar Grid"
	p.IsRegistered = true
	p.OwnerID = "someone-else"
	require.NoError(t, projects.Update(ctx, p))

	got, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Solar Grid", got.Title)
	assert.True(t, got.IsRegistered)
	assert.Equal(t, owner.ID, got.OwnerID)
}

func TestProjectFileRepository_PreloadSkipsDeletedFiles(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := seedUser(t, NewUserRepository(db), "alice@x.com")
	projects := NewProjectRepository(db)
	files := NewProjectFileRepository(db)

	p := &models.Project{Title: "Solar", Description: "community solar", OwnerID: owner.ID,
		InvestmentStatus: models.InvestmentSelfSponsored}
	require.NoError(t, projects.Create(ctx, p))

	oldFile := &models.ProjectFile{ProjectID: p.ID, OriginalName: "a.pdf", FileName: "a-1.pdf", FilePath: "/uploads/a-1.pdf",
		MimeType: "application/pdf", FileSize: 10, FileType: models.FileTypeProposal}
	newFile := &models.ProjectFile{ProjectID: p.ID, OriginalName: "b.pdf", FileName: "b-2.pdf", FilePath: "/uploads/b-2.pdf",
		MimeType: "application/pdf", FileSize: 20, FileType: models.FileTypeWhitepaper}
	require.NoError(t, files.Create(ctx, oldFile))
	require.NoError(t, files.Create(ctx, newFile))

	require.NoError(t, files.SoftDelete(ctx, oldFile.ID))

	got, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Files, 1)
	assert.Equal(t, newFile.ID, got.Files[0].ID)

	proposals, err := files.FindByProjectAndType(ctx, p.ID, models.FileTypeProposal)
	require.NoError(t, err)
	assert.Empty(t, proposals)

	require.NoError(t, files.Restore(ctx, oldFile.ID))
	proposals, err = files.FindByProjectAndType(ctx, p.ID, models.FileTypeProposal)
	require.NoError(t, err)
	assert.Len(t, proposals, 1)

	require.NoError(t, files.SoftDeleteByProject(ctx, p.ID))
	remaining, err := files.FindByProjectAndType(ctx, p.ID, models.FileTypeProposal)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, err = files.FindByID(ctx, newFile.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPasswordResetRepository_FindUsable(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := seedUser(t, NewUserRepository(db), "alice@x.com")
	repo := NewPasswordResetRepository(db)
	now := time.Now().UTC()

	live := &models.PasswordResetCode{UserID: user.ID, CodeHash: "live", ExpiresAt: now.Add(time.Hour)}
	expired := &models.PasswordResetCode{UserID: user.ID, CodeHash: "expired", ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, expired))

	got, err := repo.FindUsable(ctx, user.ID, "live", now)
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	_, err = repo.FindUsable(ctx, user.ID, "expired", now)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.MarkUsed(ctx, live.ID, now))
	_, err = repo.FindUsable(ctx, user.ID, "live", now)
	assert.ErrorIs(t, err, ErrNotFound)
}
