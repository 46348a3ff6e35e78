package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicate(t *testing.T) {
	assert.True(t, IsDuplicate(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicate(fmt.Errorf("create user: %w", gorm.ErrDuplicatedKey)))
	assert.False(t, IsDuplicate(gorm.ErrRecordNotFound))
	assert.False(t, IsDuplicate(nil))
}
