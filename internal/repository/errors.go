package repository

import (
	"errors"

	"gorm.io/gorm"
)

// IsNotFound reports whether err (possibly wrapped) is gorm's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique-index violation. The connection must be opened with
// gorm's TranslateError so driver codes arrive as gorm.ErrDuplicatedKey.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// offset converts a 1-based page into a row offset.
func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
