package service

import (
	"context"

	"coinvest/internal/domain"
	"coinvest/internal/models"
	"coinvest/internal/repository"
)

// DashboardService assembles the signed-in user's landing page.
type DashboardService struct {
	users       *UserService
	txs         transactionStore
	investments *InvestmentService
}

func NewDashboardService(users *UserService, txs transactionStore, investments *InvestmentService) *DashboardService {
	return &DashboardService{users: users, txs: txs, investments: investments}
}

type DashboardStats struct {
	UserStats
	PendingTransactions int64 `json:"pending_transactions"`
}

func (s *DashboardService) Stats(ctx context.Context, userID uint) (*DashboardStats, error) {
	stats, err := s.users.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, pending, err := s.txs.List(ctx, repository.TransactionFilter{UserID: userID, Status: domain.TxStatusPending, Page: 1, Limit: 1})
	if err != nil {
		return nil, internal(err)
	}
	return &DashboardStats{UserStats: *stats, PendingTransactions: pending}, nil
}

func (s *DashboardService) RecentTransactions(ctx context.Context, userID uint, limit int) ([]models.Transaction, error) {
	if limit < 1 || limit > 50 {
		limit = 5
	}
	list, err := s.txs.Recent(ctx, userID, limit)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}

func (s *DashboardService) ActiveInvestments(ctx context.Context, userID uint) ([]models.Investment, error) {
	return s.investments.Active(ctx, userID)
}
