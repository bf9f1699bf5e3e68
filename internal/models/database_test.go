package models

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peoplesquare/backend/internal/config"
	"gorm.io/gorm"
)

func TestOpen_MissingRowIsNotLogged(t *testing.T) {
	var out bytes.Buffer
	db, err := open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	}, &out)
	if err != nil {
		t.Fatalf("open() error = %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var user User
	err = db.Where("email = ?", "nobody@x.com").First(&user).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("First() error = %v, expected ErrRecordNotFound", err)
	}
	if strings.Contains(out.String(), "record not found") {
		t.Errorf("missing row was logged: %s", out.String())
	}

	// Real failures still reach the log.
	db.Exec("SELECT * FROM no_such_table")
	if !strings.Contains(out.String(), "no_such_table") {
		t.Errorf("failed query was not logged: %q", out.String())
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(&config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Error("Open() with an unknown driver should fail")
	}
}
