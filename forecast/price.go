package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arturonaredo/homebalance-go/database"
	"github.com/arturonaredo/homebalance-go/hours"
	"github.com/arturonaredo/homebalance-go/types"
	"github.com/arturonaredo/homebalance-go/types/maybe"
)

const fetchTimeout = 10 * time.Second

// PriceService caches hourly prices from a list of providers, first
// provider that answers wins. Stale or failing fetches fall back to the
// last good data, which is also persisted so it survives a restart.
type PriceService struct {
	mu        sync.Mutex
	logger    *slog.Logger
	db        *database.Database
	providers []types.PriceProvider
	ttl       time.Duration
	fetchedAt time.Time
	cached    []types.PricePoint
}

func NewPriceService(logger *slog.Logger, db *database.Database, providers []types.PriceProvider, ttl time.Duration) *PriceService {
	return &PriceService{
		logger:    logger,
		db:        db,
		providers: providers,
		ttl:       ttl,
	}
}

// Prices returns the hourly prices from today onwards, refreshing the
// cache when older than the TTL. Never fails hard: on fetch errors the
// last good cache is returned, possibly empty.
func (s *PriceService) Prices(ctx context.Context) []types.PricePoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.fetchedAt) < s.ttl && len(s.cached) > 0 {
		return s.cached
	}

	if err := s.refreshLocked(ctx); err != nil {
		s.logger.Warn("price refresh failed, using last good data", slog.Any("error", err))
		if len(s.cached) == 0 {
			s.loadFromDbLocked(ctx)
		}
	}

	return s.cached
}

// PriceForHour returns the cached price for one hour, None when unknown.
func (s *PriceService) PriceForHour(ctx context.Context, dh hours.DateHour) maybe.Maybe[float64] {
	for _, p := range s.Prices(ctx) {
		if p.Hour == dh {
			return maybe.Some(p.Price)
		}
	}
	return maybe.None[float64]()
}

// Refresh forces a fetch regardless of cache age.
func (s *PriceService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *PriceService) refreshLocked(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	var lastErr error
	for _, provider := range s.providers {
		prices, err := provider.GetPrices(ctx)
		if err != nil {
			lastErr = err
			s.logger.Warn("price provider failed, trying next", slog.Any("error", err))
			continue
		}
		if len(prices) == 0 {
			lastErr = fmt.Errorf("price provider returned no data")
			continue
		}

		s.cached = prices
		s.fetchedAt = time.Now()

		rows := make([]database.EnergyPriceRow, 0, len(prices))
		for _, p := range prices {
			rows = append(rows, database.EnergyPriceRow{When: p.Hour, Price: p.Price})
		}
		if err := s.db.SaveEnergyPrices(ctx, rows); err != nil {
			s.logger.Warn("failed to persist energy prices", slog.Any("error", err))
		}

		s.logger.Debug("price cache refreshed", slog.Int("hours", len(prices)))
		return nil
	}

	return fmt.Errorf("all price providers failed: %w", lastErr)
}

func (s *PriceService) loadFromDbLocked(ctx context.Context) {
	from := hours.FromNow().Sub(1)
	rows, err := s.db.GetEnergyPriceFrom(ctx, from)
	if err != nil || len(rows) == 0 {
		return
	}
	s.cached = make([]types.PricePoint, 0, len(rows))
	for _, r := range rows {
		s.cached = append(s.cached, types.PricePoint{Hour: r.When, Price: r.Price})
	}
	s.logger.Info("price cache restored from database", slog.Int("hours", len(s.cached)))
}
