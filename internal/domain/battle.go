package domain

import (
	"encoding/json"
	"time"
)

// TimestampFormat is the derived battle_start_time rendering.
const TimestampFormat = "2006-01-02 15:04:05"

// ReplayAchievement is one achievement entry in a participant's detail row.
type ReplayAchievement struct {
	T int `json:"t"`
	V int `json:"v"`
}

// PlayerBattleDetail is one battle participant's combat statistics row.
// Upstream omits zero or irrelevant fields, so every statistic is optional.
// Unknown keys are retained in Extra and re-emitted on serialization.
type PlayerBattleDetail struct {
	Achievements        []ReplayAchievement `json:"a,omitempty"`
	BaseCapturePoints   *int                `json:"bc,omitempty"`
	BaseDefendPoints    *int                `json:"bd,omitempty"`
	ChassisID           *int                `json:"ch,omitempty"`
	ClanTag             *string             `json:"ct,omitempty"`
	ClanID              *int                `json:"ci,omitempty"`
	Credits             *int                `json:"cr,omitempty"`
	DamageAssisted      *int                `json:"da,omitempty"`
	DamageAssistedTrack *int                `json:"dat,omitempty"`
	DamageBlocked       *int                `json:"db,omitempty"`
	DamageMade          *int                `json:"dm,omitempty"`
	DamageReceived      *int                `json:"dr,omitempty"`
	DBID                int64               `json:"ai"`
	DeathReason         *int                `json:"de,omitempty"`
	DistanceTravelled   *int                `json:"dt,omitempty"`
	EnemiesDamaged      *int                `json:"ed,omitempty"`
	EnemiesDestroyed    *int                `json:"ek,omitempty"`
	EnemiesSpotted      *int                `json:"es,omitempty"`
	Exp                 *int                `json:"ex,omitempty"`
	ExpForAssist        *int                `json:"exa,omitempty"`
	ExpForDamage        *int                `json:"exd,omitempty"`
	ExpTeamBonus        *int                `json:"et,omitempty"`
	GunID               *int                `json:"gi,omitempty"`
	HeroBonusCredits    *int                `json:"hc,omitempty"`
	HeroBonusExp        *int                `json:"he,omitempty"`
	HitpointsLeft       *int                `json:"hl,omitempty"`
	HitsBounced         *int                `json:"hb,omitempty"`
	HitsPen             *int                `json:"hp,omitempty"`
	HitsReceived        *int                `json:"hr,omitempty"`
	HitsSplash          *int                `json:"hs,omitempty"`
	KilledBy            *int                `json:"ki,omitempty"`
	ShotsHit            *int                `json:"sh,omitempty"`
	ShotsMade           *int                `json:"sm,omitempty"`
	ShotsPen            *int                `json:"sp,omitempty"`
	ShotsSplash         *int                `json:"ss,omitempty"`
	SquadIndex          *int                `json:"sq,omitempty"`
	TimeAlive           *int                `json:"t,omitempty"`
	TurretID            *int                `json:"ti,omitempty"`
	VehicleDescr        *int                `json:"vi,omitempty"`
	WpPointsEarned      *int                `json:"we,omitempty"`
	WpPointsStolen      *int                `json:"ws,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var (
	detailKnownKeys = jsonFieldNames(PlayerBattleDetail{})
	detailAliases   = aliasNames(PlayerBattleDetail{}, detailWire{})
)

func (d *PlayerBattleDetail) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	canonicalizeKeys(raw, detailAliases)
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	type plain PlayerBattleDetail
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*d = PlayerBattleDetail(p)
	d.Extra = splitExtra(raw, detailKnownKeys)
	return nil
}

func (d PlayerBattleDetail) MarshalJSON() ([]byte, error) {
	type plain PlayerBattleDetail
	b, err := json.Marshal(plain(d))
	if err != nil {
		return nil, err
	}
	return mergeExtra(b, d.Extra)
}

// BattleSummary is the canonical record of one battle instance: the two
// rosters, the result as recorded from the uploader's team perspective, the
// protagonist metadata and one detail row per participant across both teams.
type BattleSummary struct {
	WinnerTeam           *WinnerTeam          `json:"wt"`
	BattleResult         *BattleResult        `json:"br"`
	RoomType             *int                 `json:"rt,omitempty"`
	BattleType           *int                 `json:"bt,omitempty"`
	UploadedBy           int64                `json:"ul,omitempty"`
	Title                *string              `json:"t"`
	PlayerName           string               `json:"pn"`
	Protagonist          int64                `json:"p"`
	ProtagonistTeam      *int                 `json:"pt"`
	MapName              string               `json:"mn"`
	Vehicle              string               `json:"v"`
	VehicleTier          *int                 `json:"vx"`
	VehicleType          *VehicleClass        `json:"vt"`
	CreditsTotal         *int                 `json:"ct,omitempty"`
	CreditsBase          *int                 `json:"cb,omitempty"`
	ExpBase              *int                 `json:"eb,omitempty"`
	ExpTotal             *int                 `json:"et,omitempty"`
	BattleStartTimestamp int64                `json:"bts"`
	BattleDuration       float64              `json:"bd"`
	Description          *string              `json:"de,omitempty"`
	ArenaUniqueID        int64                `json:"aid"`
	Allies               []int64              `json:"a"`
	Enemies              []int64              `json:"e"`
	MasteryBadge         *int                 `json:"mb,omitempty"`
	Details              []PlayerBattleDetail `json:"d"`

	// BattleStartTime is derived from BattleStartTimestamp on finalize and
	// overwrites any externally supplied value. It appears in the wire view
	// only; the export view treats it as recomputable.
	BattleStartTime string `json:"-"`

	Extra map[string]json.RawMessage `json:"-"`
}

var (
	summaryKnownKeys = jsonFieldNames(BattleSummary{}, "battle_start_time")
	summaryAliases   = aliasNames(BattleSummary{}, summaryWire{})
)

func (s *BattleSummary) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	canonicalizeKeys(raw, summaryAliases)
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	type plain BattleSummary
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = BattleSummary(p)
	s.Extra = splitExtra(raw, summaryKnownKeys)
	return nil
}

func (s BattleSummary) MarshalJSON() ([]byte, error) {
	type plain BattleSummary
	b, err := json.Marshal(plain(s))
	if err != nil {
		return nil, err
	}
	return mergeExtra(b, s.Extra)
}

// finalize runs the single invariant-enforcing pass after the raw parse:
// bounded-field validation plus recomputation of the derived timestamp.
func (s *BattleSummary) finalize() error {
	if s.VehicleTier != nil && (*s.VehicleTier < 0 || *s.VehicleTier > 10) {
		return &ValidationError{Field: "vehicle_tier", Value: *s.VehicleTier, Rule: "must be within [0, 10]"}
	}
	if s.ProtagonistTeam == nil || (*s.ProtagonistTeam != 1 && *s.ProtagonistTeam != 2) {
		var v any
		if s.ProtagonistTeam != nil {
			v = *s.ProtagonistTeam
		}
		return &ValidationError{Field: "protagonist_team", Value: v, Rule: "must be 1 or 2"}
	}
	s.BattleStartTime = time.Unix(s.BattleStartTimestamp, 0).UTC().Format(TimestampFormat)
	return nil
}
