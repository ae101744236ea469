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
)

// SolarService caches the hourly PV production estimate with the same
// TTL and last-good semantics as PriceService.
type SolarService struct {
	mu        sync.Mutex
	logger    *slog.Logger
	db        *database.Database
	provider  types.SolarProvider
	ttl       time.Duration
	fetchedAt time.Time
	cached    []types.SolarForecastPoint
}

func NewSolarService(logger *slog.Logger, db *database.Database, provider types.SolarProvider, ttl time.Duration) *SolarService {
	return &SolarService{
		logger:   logger,
		db:       db,
		provider: provider,
		ttl:      ttl,
	}
}

func (s *SolarService) Forecast(ctx context.Context) []types.SolarForecastPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.fetchedAt) < s.ttl && len(s.cached) > 0 {
		return s.cached
	}

	if err := s.refreshLocked(ctx); err != nil {
		s.logger.Warn("solar refresh failed, using last good data", slog.Any("error", err))
		if len(s.cached) == 0 {
			s.loadFromDbLocked(ctx)
		}
	}

	return s.cached
}

func (s *SolarService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *SolarService) refreshLocked(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	points, err := s.provider.GetSolarForecast(ctx)
	if err != nil {
		return fmt.Errorf("solar provider failed: %w", err)
	}
	if len(points) == 0 {
		return fmt.Errorf("solar provider returned no data")
	}

	s.cached = points
	s.fetchedAt = time.Now()

	rows := make([]database.SolarForecastRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, database.SolarForecastRow{When: p.Hour, Watts: p.Watts, CloudCover: p.CloudCover})
	}
	if err := s.db.SaveSolarForecast(ctx, rows); err != nil {
		s.logger.Warn("failed to persist solar forecast", slog.Any("error", err))
	}

	s.logger.Debug("solar cache refreshed", slog.Int("hours", len(points)))
	return nil
}

func (s *SolarService) loadFromDbLocked(ctx context.Context) {
	from := hours.FromNow().Sub(1)
	rows, err := s.db.GetSolarForecastFrom(ctx, from)
	if err != nil || len(rows) == 0 {
		return
	}
	s.cached = make([]types.SolarForecastPoint, 0, len(rows))
	for _, r := range rows {
		s.cached = append(s.cached, types.SolarForecastPoint{Hour: r.When, Watts: r.Watts, CloudCover: r.CloudCover})
	}
	s.logger.Info("solar cache restored from database", slog.Int("hours", len(s.cached)))
}
