package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"blitz-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// TankStatRepository persists per-vehicle statistics rows keyed by their
// deterministic composite stat id, so resubmitting the same row overwrites
// rather than duplicates.
type TankStatRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewTankStatRepository(sqlDB *sql.DB, logger zerolog.Logger) *TankStatRepository {
	return &TankStatRepository{db: sqlDB, logger: logger}
}

func (r *TankStatRepository) Upsert(ctx context.Context, stat *domain.TankStat) error {
	if stat.ID.IsZero() {
		return fmt.Errorf("tank stat has no id; finalize it first")
	}

	export, err := json.Marshal(stat)
	if err != nil {
		return fmt.Errorf("export tank stat %s: %w", stat.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tank_stats (id, account_id, tank_id, last_battle_time, region, export)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			export = excluded.export,
			updated_at = CURRENT_TIMESTAMP`,
		stat.ID.String(), stat.AccountID, stat.TankID, stat.LastBattleTime, string(stat.Region), string(export))
	if err != nil {
		r.logger.Error().Err(err).Stringer("stat_id", stat.ID).Msg("failed to upsert tank stat")
		return fmt.Errorf("upsert tank stat %s: %w", stat.ID, err)
	}
	return nil
}

// UpsertBatch stores a batch of rows in one transaction.
func (r *TankStatRepository) UpsertBatch(ctx context.Context, stats []domain.TankStat) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tank stat batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tank_stats (id, account_id, tank_id, last_battle_time, region, export)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			export = excluded.export,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("prepare tank stat batch: %w", err)
	}
	defer stmt.Close()

	for i := range stats {
		stat := &stats[i]
		if stat.ID.IsZero() {
			return fmt.Errorf("tank stat %d has no id; finalize it first", i)
		}
		export, err := json.Marshal(stat)
		if err != nil {
			return fmt.Errorf("export tank stat %s: %w", stat.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			stat.ID.String(), stat.AccountID, stat.TankID, stat.LastBattleTime,
			string(stat.Region), string(export)); err != nil {
			return fmt.Errorf("upsert tank stat %s: %w", stat.ID, err)
		}
	}
	return tx.Commit()
}

// ListByAccount returns an account's rows ordered by stat id, which sorts by
// vehicle then battle time.
func (r *TankStatRepository) ListByAccount(ctx context.Context, accountID int64) ([]domain.TankStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT export FROM tank_stats WHERE account_id = ? ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list tank stats for %d: %w", accountID, err)
	}
	defer rows.Close()

	stats := []domain.TankStat{}
	for rows.Next() {
		var export string
		if err := rows.Scan(&export); err != nil {
			return nil, fmt.Errorf("scan tank stat: %w", err)
		}
		var stat domain.TankStat
		if err := json.Unmarshal([]byte(export), &stat); err != nil {
			return nil, fmt.Errorf("decode tank stat: %w", err)
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}
