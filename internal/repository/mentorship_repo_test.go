package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListClassesFillsCounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMentorshipRepository(db)
	at := time.Now().Add(24 * time.Hour)

	mock.ExpectQuery("SELECT .* FROM `mentorship_classes`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "scheduled_at", "max_participants", "price"}).
			AddRow(1, "Intro", at, 10, "0").
			AddRow(2, "Advanced", at, 2, "50"))
	mock.ExpectQuery("SELECT class_id, COUNT\\(\\*\\) as count FROM `class_registrations`").
		WillReturnRows(sqlmock.NewRows([]string{"class_id", "count"}).AddRow(2, 3))

	list, err := repo.ListClasses(context.Background(), true)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(0), list[0].RegisteredCount)
	assert.Equal(t, int64(10), list[0].SpotsLeft)
	assert.Equal(t, int64(3), list[1].RegisteredCount)
	assert.Equal(t, int64(0), list[1].SpotsLeft)
	assert.NoError(t, mock.ExpectationsWereMet())
}
