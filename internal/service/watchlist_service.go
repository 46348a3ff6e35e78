package service

import (
	"context"
	"strings"

	"coinvest/internal/apperr"
	"coinvest/internal/models"
	"coinvest/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	ErrWatchlistNotFound  = apperr.NotFound("Watchlist entry not found")
	ErrWatchlistDuplicate = apperr.Conflict("Symbol already in watchlist")
)

type WatchlistService struct {
	repo    watchlistStore
	markets *MarketService
}

func NewWatchlistService(repo watchlistStore, markets *MarketService) *WatchlistService {
	return &WatchlistService{repo: repo, markets: markets}
}

func (s *WatchlistService) List(ctx context.Context, userID uint) ([]models.Watchlist, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}

// Add stores an upper-cased symbol. A previously removed symbol is restored in place.
func (s *WatchlistService) Add(ctx context.Context, userID uint, symbol, note string) (*models.Watchlist, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apperr.Validation("Symbol is required")
	}
	existing, err := s.repo.Find(ctx, userID, symbol)
	if err == nil {
		if !existing.DeletedAt.Valid {
			return nil, ErrWatchlistDuplicate
		}
		if err := s.repo.Restore(ctx, existing, note); err != nil {
			return nil, internal(err)
		}
		return existing, nil
	}
	if !repository.IsNotFound(err) {
		return nil, internal(err)
	}
	w := &models.Watchlist{UserID: userID, Symbol: symbol, Note: note}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, internal(err)
	}
	return w, nil
}

func (s *WatchlistService) UpdateNote(ctx context.Context, userID, id uint, note string) (*models.Watchlist, error) {
	w, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, notFoundOr(err, ErrWatchlistNotFound)
	}
	w.Note = note
	if err := s.repo.UpdateNote(ctx, w); err != nil {
		return nil, internal(err)
	}
	return w, nil
}

func (s *WatchlistService) Remove(ctx context.Context, userID, id uint) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return notFoundOr(err, ErrWatchlistNotFound)
	}
	return nil
}

// WatchlistPrice is a watchlist entry joined with its cached price; Price is nil when the
// exchange does not list the symbol.
type WatchlistPrice struct {
	models.Watchlist
	Price *decimal.Decimal `json:"price"`
}

func (s *WatchlistService) Prices(ctx context.Context, userID uint) ([]WatchlistPrice, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]WatchlistPrice, len(list))
	if len(list) == 0 {
		return out, nil
	}
	symbols := make([]string, len(list))
	for i, w := range list {
		symbols[i] = w.Symbol
	}
	prices, err := s.markets.Prices(ctx, ParseSymbols(strings.Join(symbols, ",")))
	if err != nil {
		return nil, err
	}
	bySymbol := make(map[string]decimal.Decimal, len(prices))
	for _, p := range prices {
		bySymbol[p.Symbol] = p.Price
	}
	for i, w := range list {
		out[i] = WatchlistPrice{Watchlist: w}
		if p, ok := bySymbol[w.Symbol]; ok {
			price := p
			out[i].Price = &price
		}
	}
	return out, nil
}
