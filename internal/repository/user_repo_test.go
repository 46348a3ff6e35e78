package repository

import (
	"context"
	"testing"

	"coinvest/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWithReferralInsertsBoth(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	referrer := uint(3)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO `referrals`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	u := &models.User{Email: "new@example.com", ReferralCode: "ABCD1234"}
	err := repo.CreateWithReferral(context.Background(), u, &referrer)

	require.NoError(t, err)
	assert.Equal(t, uint(7), u.ID)
	require.NotNil(t, u.ReferredBy)
	assert.Equal(t, referrer, *u.ReferredBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithReferralWithoutReferrer(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectCommit()

	u := &models.User{Email: "solo@example.com", ReferralCode: "FFFF0000"}
	err := repo.CreateWithReferral(context.Background(), u, nil)

	require.NoError(t, err)
	assert.Nil(t, u.ReferredBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT .* FROM `users` WHERE email = ?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByEmail(context.Background(), "missing@example.com")

	assert.True(t, IsNotFound(err))
}

func TestGenerateReferralCode(t *testing.T) {
	code, err := GenerateReferralCode()
	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.Regexp(t, "^[0-9A-F]{8}$", code)
}
