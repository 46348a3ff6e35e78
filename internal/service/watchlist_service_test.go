package service

import (
	"context"
	"testing"
	"time"

	"coinvest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memWatchlist struct {
	nextID uint
	rows   map[uint]*models.Watchlist
}

func newMemWatchlist() *memWatchlist {
	return &memWatchlist{rows: map[uint]*models.Watchlist{}}
}

func (m *memWatchlist) ListByUser(ctx context.Context, userID uint) ([]models.Watchlist, error) {
	var out []models.Watchlist
	for id := uint(1); id <= m.nextID; id++ {
		if w, ok := m.rows[id]; ok && w.UserID == userID && !w.DeletedAt.Valid {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (m *memWatchlist) Find(ctx context.Context, userID uint, symbol string) (*models.Watchlist, error) {
	for _, w := range m.rows {
		if w.UserID == userID && w.Symbol == symbol {
			cp := *w
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (m *memWatchlist) GetByID(ctx context.Context, userID, id uint) (*models.Watchlist, error) {
	w, ok := m.rows[id]
	if !ok || w.UserID != userID || w.DeletedAt.Valid {
		return nil, errNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *memWatchlist) Create(ctx context.Context, w *models.Watchlist) error {
	m.nextID++
	w.ID = m.nextID
	cp := *w
	m.rows[w.ID] = &cp
	return nil
}

func (m *memWatchlist) Restore(ctx context.Context, w *models.Watchlist, note string) error {
	w.DeletedAt = gorm.DeletedAt{}
	w.Note = note
	cp := *w
	m.rows[w.ID] = &cp
	return nil
}

func (m *memWatchlist) UpdateNote(ctx context.Context, w *models.Watchlist) error {
	m.rows[w.ID].Note = w.Note
	return nil
}

func (m *memWatchlist) Delete(ctx context.Context, userID, id uint) error {
	w, ok := m.rows[id]
	if !ok || w.UserID != userID || w.DeletedAt.Valid {
		return errNotFound
	}
	w.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

func TestWatchlistAddDuplicateAndRestore(t *testing.T) {
	_, markets := newMarketFixture()
	repo := newMemWatchlist()
	svc := NewWatchlistService(repo, markets)
	ctx := context.Background()

	w, err := svc.Add(ctx, 1, " btcusdt ", "long term")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", w.Symbol)

	_, err = svc.Add(ctx, 1, "BTCUSDT", "")
	assert.ErrorIs(t, err, ErrWatchlistDuplicate)

	// another user may watch the same symbol
	_, err = svc.Add(ctx, 2, "BTCUSDT", "")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, 1, w.ID))
	assert.ErrorIs(t, svc.Remove(ctx, 1, w.ID), ErrWatchlistNotFound)

	restored, err := svc.Add(ctx, 1, "BTCUSDT", "again")
	require.NoError(t, err)
	assert.Equal(t, w.ID, restored.ID)
	assert.Equal(t, "again", restored.Note)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWatchlistOwnership(t *testing.T) {
	_, markets := newMarketFixture()
	svc := NewWatchlistService(newMemWatchlist(), markets)
	ctx := context.Background()

	w, err := svc.Add(ctx, 1, "ETHUSDT", "")
	require.NoError(t, err)

	_, err = svc.UpdateNote(ctx, 2, w.ID, "mine now")
	assert.ErrorIs(t, err, ErrWatchlistNotFound)
	assert.ErrorIs(t, svc.Remove(ctx, 2, w.ID), ErrWatchlistNotFound)

	updated, err := svc.UpdateNote(ctx, 1, w.ID, "breakout")
	require.NoError(t, err)
	assert.Equal(t, "breakout", updated.Note)
}

func TestWatchlistPrices(t *testing.T) {
	ex, markets := newMarketFixture()
	svc := NewWatchlistService(newMemWatchlist(), markets)
	ctx := context.Background()

	empty, err := svc.Prices(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Zero(t, ex.calls["prices"])

	_, err = svc.Add(ctx, 1, "ETHUSDT", "")
	require.NoError(t, err)
	_, err = svc.Add(ctx, 1, "BTCUSDT", "")
	require.NoError(t, err)

	out, err := svc.Prices(ctx, 1)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, ex.lastSym)
	for _, wp := range out {
		require.NotNil(t, wp.Price, wp.Symbol)
	}
	assert.Equal(t, "ETHUSDT", out[0].Symbol)
	assert.Equal(t, "200", out[0].Price.String())
}
