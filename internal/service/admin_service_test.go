package service

import (
	"context"
	"testing"

	"coinvest/internal/apperr"
	"coinvest/internal/domain"
	"coinvest/internal/models"
	"coinvest/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledgerUsers reads users from the same memDB the ledger writes to.
type ledgerUsers struct {
	*memUsers
	db *memDB
}

func (u ledgerUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if _, ok := u.db.users[id]; !ok {
		return nil, errNotFound
	}
	user := u.db.user(id)
	return &user, nil
}

type nopAdminStore struct{}

func (nopAdminStore) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return &repository.DashboardStats{}, nil
}

func (nopAdminStore) ListUsers(ctx context.Context, f repository.UserFilter) ([]models.User, int64, error) {
	return nil, 0, nil
}

func (nopAdminStore) UserCounts(ctx context.Context, userID uint) (*repository.UserCounts, error) {
	return &repository.UserCounts{}, nil
}

func (nopAdminStore) UserSignupsByDay(ctx context.Context, days int) ([]repository.TimeSeriesPoint, error) {
	return make([]repository.TimeSeriesPoint, days), nil
}

func newAdminFixture() (*memDB, *AdminService, fakeSettings, *fakeAudit) {
	db := newMemDB()
	settings := fakeSettings{}
	audit := &fakeAudit{}
	svc := NewAdminService(nopAdminStore{}, ledgerUsers{memUsers: newMemUsers(), db: db}, newMemLedger(db), settings, audit)
	return db, svc, settings, audit
}

func TestSetBalanceAuditsPreviousValue(t *testing.T) {
	db, svc, _, audit := newAdminFixture()
	u := db.addUser("120.5")

	got, err := svc.SetBalance(context.Background(), admin, u.ID, dec("300"))
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("300")))
	assert.True(t, db.user(u.ID).TotalDeposits.IsZero())

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "user.balance_set", audit.entries[0].Action)
	assert.Contains(t, audit.entries[0].Metadata, `"from":"120.5"`)

	_, err = svc.SetBalance(context.Background(), admin, u.ID, dec("-1"))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = svc.SetBalance(context.Background(), admin, 999, dec("1"))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateSettingsValidatesAll(t *testing.T) {
	_, svc, settings, audit := newAdminFixture()
	ctx := context.Background()

	_, err := svc.UpdateSettings(ctx, admin, map[string]string{
		domain.SettingDepositMinAmount: "25",
		"site_name":                    "x",
	})
	assert.Equal(t, "Unknown setting site_name", apperr.Message(err))
	assert.Empty(t, settings)

	_, err = svc.UpdateSettings(ctx, admin, map[string]string{domain.SettingWithdrawalMinAmount: "-5"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = svc.UpdateSettings(ctx, admin, map[string]string{domain.SettingReferralBaseURL: "example.com/join"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	list, err := svc.UpdateSettings(ctx, admin, map[string]string{
		domain.SettingDepositMinAmount: " 25 ",
		domain.SettingReferralBaseURL:  "https://invest.example.com",
	})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "25", settings[domain.SettingDepositMinAmount])
	assert.Equal(t, []string{"settings.update"}, audit.actions())
}

func TestUpdateUserSelfProtection(t *testing.T) {
	db, svc, _, _ := newAdminFixture()
	self := Actor{ID: db.addUser("0").ID}

	off := false
	_, err := svc.UpdateUser(context.Background(), self, self.ID, AdminUserInput{IsActive: &off})
	assert.Equal(t, "You cannot disable your own account", apperr.Message(err))

	role := "user"
	_, err = svc.UpdateUser(context.Background(), self, self.ID, AdminUserInput{Role: &role})
	assert.Equal(t, "You cannot remove your own admin role", apperr.Message(err))

	bad := "owner"
	_, err = svc.UpdateUser(context.Background(), self, 12345, AdminUserInput{Role: &bad})
	assert.Equal(t, "Role must be USER or ADMIN", apperr.Message(err))

	assert.Error(t, svc.DeleteUser(context.Background(), self, self.ID))
}

func TestSignupsClampsDays(t *testing.T) {
	_, svc, _, _ := newAdminFixture()
	points, err := svc.Signups(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, points, 30)
	points, err = svc.Signups(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, points, 7)
}
