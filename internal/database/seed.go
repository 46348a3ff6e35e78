package database

import (
	"coinvest/config"
	"coinvest/internal/domain"
	"coinvest/internal/logging"
	"coinvest/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultSettings are inserted on first start; admins change them via PUT /api/admin/settings.
var DefaultSettings = map[string]string{
	domain.SettingDepositMinAmount:    "10",
	domain.SettingWithdrawalMinAmount: "20",
	domain.SettingReferralBaseURL:     "",
}

func defaultPlans() []models.InvestmentPlan {
	d := decimal.RequireFromString
	return []models.InvestmentPlan{
		{Name: "Starter", Description: "Entry plan for new investors", MinAmount: d("100"), MaxAmount: d("999"), DailyReturnRate: d("1.5"), DurationDays: 30, IsActive: true},
		{Name: "Growth", Description: "Balanced plan for regular investors", MinAmount: d("1000"), MaxAmount: d("9999"), DailyReturnRate: d("2"), DurationDays: 60, IsActive: true},
		{Name: "Premium", Description: "High-volume plan", MinAmount: d("10000"), MaxAmount: d("100000"), DailyReturnRate: d("2.5"), DurationDays: 90, IsActive: true},
	}
}

// Seed inserts the first admin, default plans and default settings when missing.
func Seed(db *gorm.DB, cfg *config.Config, newCode func() (string, error)) error {
	log := logging.Named("seed")

	for k, v := range DefaultSettings {
		s := models.SystemSetting{Key: k, Value: v}
		if err := db.Where(models.SystemSetting{Key: k}).FirstOrCreate(&s).Error; err != nil {
			return err
		}
	}

	var plans int64
	if err := db.Model(&models.InvestmentPlan{}).Count(&plans).Error; err != nil {
		return err
	}
	if plans == 0 {
		list := defaultPlans()
		if err := db.Create(&list).Error; err != nil {
			return err
		}
		log.Info("seeded investment plans", zap.Int("count", len(list)))
	}

	if cfg.Admin.Password == "" {
		return nil
	}
	var admins int64
	if err := db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&admins).Error; err != nil {
		return err
	}
	if admins > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	code, err := newCode()
	if err != nil {
		return err
	}
	admin := models.User{
		Email:        cfg.Admin.Email,
		PasswordHash: string(hash),
		FirstName:    "Admin",
		Role:         domain.RoleAdmin,
		IsActive:     true,
		ReferralCode: code,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Info("seeded admin account", zap.String("email", admin.Email))
	return nil
}
