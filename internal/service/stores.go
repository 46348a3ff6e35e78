package service

import (
	"context"
	"time"

	"coinvest/internal/models"
	"coinvest/internal/repository"
)

// Store interfaces are declared here, next to their consumers; the gorm repositories satisfy them
// and tests substitute in-memory fakes.

type userStore interface {
	CreateWithReferral(ctx context.Context, u *models.User, referrerID *uint) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, u *models.User) error
	UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

type userReader interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

type transactionStore interface {
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	GetByReference(ctx context.Context, ref string) (*models.Transaction, error)
	UpdateProvider(ctx context.Context, id uint, providerRef, paymentURL string) error
	List(ctx context.Context, f repository.TransactionFilter) ([]models.Transaction, int64, error)
	Recent(ctx context.Context, userID uint, limit int) ([]models.Transaction, error)
}

type settingStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	GetAll(ctx context.Context) ([]models.SystemSetting, error)
}

type settingReader interface {
	Get(ctx context.Context, key string) (string, error)
}

type paymentMethodStore interface {
	List(ctx context.Context, activeOnly bool) ([]models.PaymentMethod, error)
	GetByID(ctx context.Context, id uint) (*models.PaymentMethod, error)
	Create(ctx context.Context, m *models.PaymentMethod) error
	Update(ctx context.Context, m *models.PaymentMethod) error
	Delete(ctx context.Context, id uint) error
}

type paymentMethodReader interface {
	GetByID(ctx context.Context, id uint) (*models.PaymentMethod, error)
}

type investmentStore interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]models.InvestmentPlan, error)
	GetPlan(ctx context.Context, id uint) (*models.InvestmentPlan, error)
	CreatePlan(ctx context.Context, p *models.InvestmentPlan) error
	UpdatePlan(ctx context.Context, p *models.InvestmentPlan) error
	DeletePlan(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.Investment, error)
	List(ctx context.Context, f repository.InvestmentFilter) ([]models.Investment, int64, error)
	Summary(ctx context.Context, userID uint) (*repository.InvestmentSummary, error)
	CountMatured(ctx context.Context, now time.Time) (int64, error)
}

type referralStore interface {
	ListByReferrerID(ctx context.Context, referrerID uint, limit, offset int) ([]models.Referral, error)
	Stats(ctx context.Context, referrerID uint) (*repository.ReferralStats, error)
	ListAll(ctx context.Context, page, limit int) ([]models.Referral, int64, error)
}

type mentorshipStore interface {
	repository.Bookings
	ListClasses(ctx context.Context, activeOnly bool) ([]models.MentorshipClass, error)
	GetClass(ctx context.Context, id uint) (*models.MentorshipClass, error)
	CreateClass(ctx context.Context, c *models.MentorshipClass) error
	UpdateClass(ctx context.Context, c *models.MentorshipClass) error
	DeleteClass(ctx context.Context, id uint) error
	GetRegistration(ctx context.Context, id uint) (*models.ClassRegistration, error)
	UpdateRegistration(ctx context.Context, id uint, updates map[string]interface{}) error
	ListRegistrationsByUser(ctx context.Context, userID uint) ([]models.ClassRegistration, error)
	ListRegistrationsByClass(ctx context.Context, classID uint) ([]models.ClassRegistration, error)
}

type botStore interface {
	ListBots(ctx context.Context, activeOnly bool) ([]models.TradingBot, error)
	GetBot(ctx context.Context, id uint) (*models.TradingBot, error)
	CreateBot(ctx context.Context, b *models.TradingBot) error
	UpdateBot(ctx context.Context, b *models.TradingBot) error
	DeleteBot(ctx context.Context, id uint) error
	HasOpenRequest(ctx context.Context, userID, botID uint) (bool, error)
	CreateRequest(ctx context.Context, req *models.BotRequest) error
	GetRequest(ctx context.Context, id uint) (*models.BotRequest, error)
	UpdateRequestStatus(ctx context.Context, id uint, status, notes string) error
	ListRequests(ctx context.Context, userID uint, status string, page, limit int) ([]models.BotRequest, int64, error)
	CreateTrade(ctx context.Context, t *models.BotTrade) error
	ListTradesByUser(ctx context.Context, userID uint, page, limit int) ([]models.BotTrade, int64, error)
}

type watchlistStore interface {
	ListByUser(ctx context.Context, userID uint) ([]models.Watchlist, error)
	Find(ctx context.Context, userID uint, symbol string) (*models.Watchlist, error)
	GetByID(ctx context.Context, userID, id uint) (*models.Watchlist, error)
	Create(ctx context.Context, w *models.Watchlist) error
	Restore(ctx context.Context, w *models.Watchlist, note string) error
	UpdateNote(ctx context.Context, w *models.Watchlist) error
	Delete(ctx context.Context, userID, id uint) error
}

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, id, userID uint) error
}

type auditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, action string, page, limit int) ([]models.AuditLog, int64, error)
}

type passwordResetStore interface {
	Create(ctx context.Context, p *models.PasswordReset) error
	GetByToken(ctx context.Context, token string) (*models.PasswordReset, error)
	Consume(ctx context.Context, p *models.PasswordReset, passwordHash string) error
}

type adminStore interface {
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
	ListUsers(ctx context.Context, f repository.UserFilter) ([]models.User, int64, error)
	UserCounts(ctx context.Context, userID uint) (*repository.UserCounts, error)
	UserSignupsByDay(ctx context.Context, days int) ([]repository.TimeSeriesPoint, error)
}
