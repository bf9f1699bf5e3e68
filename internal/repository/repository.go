// Package repository wraps gorm queries for the application's entities.
// Soft-deleted rows are excluded from every read through gorm's default scope.
package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// newestFirst orders associated files the same way as top-level lists.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}
