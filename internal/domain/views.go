package domain

import "encoding/json"

// The wire view mirrors the upstream payload shape with the original long
// field names and without the identifier fields, so that a record can be
// persisted and re-read byte-stably without identity pollution. The export
// view keeps the short aliases, drops defaults and drops everything
// recomputable (URLs, nested id, derived timestamp) for storage ingestion.

type detailWire struct {
	Achievements        []ReplayAchievement `json:"achievements"`
	BaseCapturePoints   *int                `json:"base_capture_points"`
	BaseDefendPoints    *int                `json:"base_defend_points"`
	ChassisID           *int                `json:"chassis_id"`
	ClanTag             *string             `json:"clan_tag"`
	ClanID              *int                `json:"clanid"`
	Credits             *int                `json:"credits"`
	DamageAssisted      *int                `json:"damage_assisted"`
	DamageAssistedTrack *int                `json:"damage_assisted_track"`
	DamageBlocked       *int                `json:"damage_blocked"`
	DamageMade          *int                `json:"damage_made"`
	DamageReceived      *int                `json:"damage_received"`
	DBID                int64               `json:"dbid"`
	DeathReason         *int                `json:"death_reason"`
	DistanceTravelled   *int                `json:"distance_travelled"`
	EnemiesDamaged      *int                `json:"enemies_damaged"`
	EnemiesDestroyed    *int                `json:"enemies_destroyed"`
	EnemiesSpotted      *int                `json:"enemies_spotted"`
	Exp                 *int                `json:"exp"`
	ExpForAssist        *int                `json:"exp_for_assist"`
	ExpForDamage        *int                `json:"exp_for_damage"`
	ExpTeamBonus        *int                `json:"exp_team_bonus"`
	GunID               *int                `json:"gun_id"`
	HeroBonusCredits    *int                `json:"hero_bonus_credits"`
	HeroBonusExp        *int                `json:"hero_bonus_exp"`
	HitpointsLeft       *int                `json:"hitpoints_left"`
	HitsBounced         *int                `json:"hits_bounced"`
	HitsPen             *int                `json:"hits_pen"`
	HitsReceived        *int                `json:"hits_received"`
	HitsSplash          *int                `json:"hits_splash"`
	KilledBy            *int                `json:"killed_by"`
	ShotsHit            *int                `json:"shots_hit"`
	ShotsMade           *int                `json:"shots_made"`
	ShotsPen            *int                `json:"shots_pen"`
	ShotsSplash         *int                `json:"shots_splash"`
	SquadIndex          *int                `json:"squad_index"`
	TimeAlive           *int                `json:"time_alive"`
	TurretID            *int                `json:"turret_id"`
	VehicleDescr        *int                `json:"vehicle_descr"`
	WpPointsEarned      *int                `json:"wp_points_earned"`
	WpPointsStolen      *int                `json:"wp_points_stolen"`
}

func (d *PlayerBattleDetail) wire() detailWire {
	return detailWire{
		Achievements:        d.Achievements,
		BaseCapturePoints:   d.BaseCapturePoints,
		BaseDefendPoints:    d.BaseDefendPoints,
		ChassisID:           d.ChassisID,
		ClanTag:             d.ClanTag,
		ClanID:              d.ClanID,
		Credits:             d.Credits,
		DamageAssisted:      d.DamageAssisted,
		DamageAssistedTrack: d.DamageAssistedTrack,
		DamageBlocked:       d.DamageBlocked,
		DamageMade:          d.DamageMade,
		DamageReceived:      d.DamageReceived,
		DBID:                d.DBID,
		DeathReason:         d.DeathReason,
		DistanceTravelled:   d.DistanceTravelled,
		EnemiesDamaged:      d.EnemiesDamaged,
		EnemiesDestroyed:    d.EnemiesDestroyed,
		EnemiesSpotted:      d.EnemiesSpotted,
		Exp:                 d.Exp,
		ExpForAssist:        d.ExpForAssist,
		ExpForDamage:        d.ExpForDamage,
		ExpTeamBonus:        d.ExpTeamBonus,
		GunID:               d.GunID,
		HeroBonusCredits:    d.HeroBonusCredits,
		HeroBonusExp:        d.HeroBonusExp,
		HitpointsLeft:       d.HitpointsLeft,
		HitsBounced:         d.HitsBounced,
		HitsPen:             d.HitsPen,
		HitsReceived:        d.HitsReceived,
		HitsSplash:          d.HitsSplash,
		KilledBy:            d.KilledBy,
		ShotsHit:            d.ShotsHit,
		ShotsMade:           d.ShotsMade,
		ShotsPen:            d.ShotsPen,
		ShotsSplash:         d.ShotsSplash,
		SquadIndex:          d.SquadIndex,
		TimeAlive:           d.TimeAlive,
		TurretID:            d.TurretID,
		VehicleDescr:        d.VehicleDescr,
		WpPointsEarned:      d.WpPointsEarned,
		WpPointsStolen:      d.WpPointsStolen,
	}
}

type summaryWire struct {
	WinnerTeam           *WinnerTeam       `json:"winner_team"`
	BattleResult         *BattleResult     `json:"battle_result"`
	RoomType             *int              `json:"room_type"`
	BattleType           *int              `json:"battle_type"`
	UploadedBy           int64             `json:"uploaded_by"`
	Title                *string           `json:"title"`
	PlayerName           string            `json:"player_name"`
	Protagonist          int64             `json:"protagonist"`
	ProtagonistTeam      *int              `json:"protagonist_team"`
	MapName              string            `json:"map_name"`
	Vehicle              string            `json:"vehicle"`
	VehicleTier          *int              `json:"vehicle_tier"`
	VehicleType          *VehicleClass     `json:"vehicle_type"`
	CreditsTotal         *int              `json:"credits_total"`
	CreditsBase          *int              `json:"credits_base"`
	ExpBase              *int              `json:"exp_base"`
	ExpTotal             *int              `json:"exp_total"`
	BattleStartTimestamp int64             `json:"battle_start_timestamp"`
	BattleStartTime      string            `json:"battle_start_time"`
	BattleDuration       float64           `json:"battle_duration"`
	Description          *string           `json:"description"`
	ArenaUniqueID        int64             `json:"arena_unique_id"`
	Allies               []int64           `json:"allies"`
	Enemies              []int64           `json:"enemies"`
	MasteryBadge         *int              `json:"mastery_badge"`
	Details              []json.RawMessage `json:"details"`
}

type dataWire struct {
	ViewURL     string          `json:"view_url"`
	DownloadURL string          `json:"download_url"`
	Summary     json.RawMessage `json:"summary"`
}

type replayWire struct {
	Status string                     `json:"status"`
	Data   json.RawMessage            `json:"data"`
	Error  map[string]json.RawMessage `json:"error"`
}

// WireJSON emits the wire view of the replay.
func (r *Replay) WireJSON() ([]byte, error) {
	s := r.Data.Summary

	details := make([]json.RawMessage, len(s.Details))
	for i := range s.Details {
		b, err := json.Marshal(s.Details[i].wire())
		if err != nil {
			return nil, err
		}
		if details[i], err = mergeExtra(b, s.Details[i].Extra); err != nil {
			return nil, err
		}
	}

	sw := summaryWire{
		WinnerTeam:           s.WinnerTeam,
		BattleResult:         s.BattleResult,
		RoomType:             s.RoomType,
		BattleType:           s.BattleType,
		UploadedBy:           s.UploadedBy,
		Title:                s.Title,
		PlayerName:           s.PlayerName,
		Protagonist:          s.Protagonist,
		ProtagonistTeam:      s.ProtagonistTeam,
		MapName:              s.MapName,
		Vehicle:              s.Vehicle,
		VehicleTier:          s.VehicleTier,
		VehicleType:          s.VehicleType,
		CreditsTotal:         s.CreditsTotal,
		CreditsBase:          s.CreditsBase,
		ExpBase:              s.ExpBase,
		ExpTotal:             s.ExpTotal,
		BattleStartTimestamp: s.BattleStartTimestamp,
		BattleStartTime:      s.BattleStartTime,
		BattleDuration:       s.BattleDuration,
		Description:          s.Description,
		ArenaUniqueID:        s.ArenaUniqueID,
		Allies:               s.Allies,
		Enemies:              s.Enemies,
		MasteryBadge:         s.MasteryBadge,
		Details:              details,
	}
	sb, err := json.Marshal(sw)
	if err != nil {
		return nil, err
	}
	if sb, err = mergeExtra(sb, s.Extra); err != nil {
		return nil, err
	}

	db, err := json.Marshal(dataWire{
		ViewURL:     r.Data.ViewURL,
		DownloadURL: r.Data.DownloadURL,
		Summary:     sb,
	})
	if err != nil {
		return nil, err
	}
	if db, err = mergeExtra(db, r.Data.Extra); err != nil {
		return nil, err
	}

	errField := r.Error
	if errField == nil {
		errField = map[string]json.RawMessage{}
	}
	rb, err := json.Marshal(replayWire{Status: r.Status, Data: db, Error: errField})
	if err != nil {
		return nil, err
	}
	return mergeExtra(rb, r.Extra)
}

// ExportDB emits the export view of the replay, keyed by the resolved id.
func (r *Replay) ExportDB() ([]byte, error) {
	sb, err := json.Marshal(r.Data.Summary)
	if err != nil {
		return nil, err
	}

	data := map[string]json.RawMessage{"s": sb}
	for k, v := range r.Data.Extra {
		data[k] = v
	}
	db, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	top := map[string]json.RawMessage{"d": db}
	if r.ID != "" {
		id, err := json.Marshal(r.ID)
		if err != nil {
			return nil, err
		}
		top["_id"] = id
	}
	if r.Status != "" && r.Status != "ok" {
		st, err := json.Marshal(r.Status)
		if err != nil {
			return nil, err
		}
		top["s"] = st
	}
	if len(r.Error) > 0 {
		eb, err := json.Marshal(r.Error)
		if err != nil {
			return nil, err
		}
		top["e"] = eb
	}
	for k, v := range r.Extra {
		if _, ok := top[k]; !ok {
			top[k] = v
		}
	}
	return json.Marshal(top)
}
