package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"blitz-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// ReplayRepository persists the export view of replay records, keyed by the
// resolved replay id.
type ReplayRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewReplayRepository(sqlDB *sql.DB, logger zerolog.Logger) *ReplayRepository {
	return &ReplayRepository{db: sqlDB, logger: logger}
}

// StoredReplay is one persisted replay row: the export-view document plus the
// queryable columns derived from it.
type StoredReplay struct {
	ID                   string          `json:"id"`
	MapName              string          `json:"map_name"`
	Protagonist          int64           `json:"protagonist"`
	BattleStartTimestamp int64           `json:"battle_start_timestamp"`
	BattleResult         int             `json:"battle_result"`
	Export               json.RawMessage `json:"export"`
}

// Upsert stores a replay's export view. Records without a resolved identity
// cannot be keyed and are rejected.
func (r *ReplayRepository) Upsert(ctx context.Context, replay *domain.Replay) error {
	id := replay.ReplayID()
	if id == "" {
		return fmt.Errorf("replay has no resolved id")
	}

	export, err := replay.ExportDB()
	if err != nil {
		return fmt.Errorf("export replay %s: %w", id, err)
	}

	s := replay.Data.Summary
	result := int(domain.BattleResultIncomplete)
	if s.BattleResult != nil {
		result = int(*s.BattleResult)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO replays (id, map_name, protagonist, battle_start_timestamp, battle_result, export)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			map_name = excluded.map_name,
			protagonist = excluded.protagonist,
			battle_start_timestamp = excluded.battle_start_timestamp,
			battle_result = excluded.battle_result,
			export = excluded.export,
			updated_at = CURRENT_TIMESTAMP`,
		id, s.MapName, s.Protagonist, s.BattleStartTimestamp, result, string(export))
	if err != nil {
		r.logger.Error().Err(err).Str("replay_id", id).Msg("failed to upsert replay")
		return fmt.Errorf("upsert replay %s: %w", id, err)
	}
	return nil
}

// Get returns one stored replay, or (nil, nil) when the id is unknown.
func (r *ReplayRepository) Get(ctx context.Context, id string) (*StoredReplay, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, map_name, protagonist, battle_start_timestamp, battle_result, export
		FROM replays WHERE id = ?`, id)

	var stored StoredReplay
	var export string
	err := row.Scan(&stored.ID, &stored.MapName, &stored.Protagonist,
		&stored.BattleStartTimestamp, &stored.BattleResult, &export)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get replay %s: %w", id, err)
	}
	stored.Export = json.RawMessage(export)
	return &stored, nil
}

// Recent returns up to limit stored replays, newest battle first.
func (r *ReplayRepository) Recent(ctx context.Context, limit int) ([]StoredReplay, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, map_name, protagonist, battle_start_timestamp, battle_result, export
		FROM replays ORDER BY battle_start_timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list replays: %w", err)
	}
	defer rows.Close()

	replays := []StoredReplay{}
	for rows.Next() {
		var stored StoredReplay
		var export string
		if err := rows.Scan(&stored.ID, &stored.MapName, &stored.Protagonist,
			&stored.BattleStartTimestamp, &stored.BattleResult, &export); err != nil {
			return nil, fmt.Errorf("scan replay: %w", err)
		}
		stored.Export = json.RawMessage(export)
		replays = append(replays, stored)
	}
	return replays, rows.Err()
}

// KnownIDs returns the set of replay ids already stored, used to diff a
// scraped listing against local state.
func (r *ReplayRepository) KnownIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM replays`)
	if err != nil {
		return nil, fmt.Errorf("list replay ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan replay id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}
