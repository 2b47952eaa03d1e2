package service

import (
	"context"

	"blitz-tracker/internal/domain"
	"blitz-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// TankStatService ingests WG API tank-stats payloads and persists the rows
// under their deterministic stat ids.
type TankStatService struct {
	stats  *repository.TankStatRepository
	logger zerolog.Logger
}

func NewTankStatService(stats *repository.TankStatRepository, logger zerolog.Logger) *TankStatService {
	return &TankStatService{stats: stats, logger: logger}
}

// Ingest parses a tank-stats payload and upserts every row. Returns the
// number of rows stored.
func (s *TankStatService) Ingest(ctx context.Context, payload []byte) (int, error) {
	resp, err := domain.ParseTankStats(payload)
	if err != nil {
		return 0, err
	}
	if resp.Error != nil {
		s.logger.Warn().Str("api_error", resp.Error.String()).Msg("tank stats payload carries an error block")
	}

	var rows []domain.TankStat
	for _, stats := range resp.Data {
		rows = append(rows, stats...)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := s.stats.UpsertBatch(ctx, rows); err != nil {
		return 0, err
	}
	s.logger.Info().Int("rows", len(rows)).Msg("tank stats ingested")
	return len(rows), nil
}

// ListByAccount returns an account's stored rows in stat-id order.
func (s *TankStatService) ListByAccount(ctx context.Context, accountID int64) ([]domain.TankStat, error) {
	return s.stats.ListByAccount(ctx, accountID)
}
