package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Canonical wotinspector.com URL templates. A resolved replay id rewrites
// both URLs from these bases so that id and URLs always agree.
const (
	ReplayViewURLBase     = "https://replays.wotinspector.com/en/view/"
	ReplayDownloadURLBase = "https://replays.wotinspector.com/en/download/"
)

// NeutralPerspective selects the uploader's own side in perspective queries.
const NeutralPerspective int64 = 0

// ReplayData wraps a battle summary with its hosting-service URLs and the
// resolved replay id.
type ReplayData struct {
	ViewURL     string         `json:"v,omitempty"`
	DownloadURL string         `json:"d,omitempty"`
	ID          string         `json:"id,omitempty"`
	Summary     *BattleSummary `json:"s"`

	Extra map[string]json.RawMessage `json:"-"`
}

var (
	replayDataKnownKeys = jsonFieldNames(ReplayData{})
	replayDataAliases   = aliasNames(ReplayData{}, dataWire{})
)

func (d *ReplayData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	canonicalizeKeys(raw, replayDataAliases)
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	type plain ReplayData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*d = ReplayData(p)
	d.Extra = splitExtra(raw, replayDataKnownKeys)
	return nil
}

// resolveIdentity resolves the replay id from the first available source:
// an explicit id, the view URL tail, or the download URL tail. A resolved id
// rewrites both URLs from the canonical templates. No source at all leaves
// identity unset; the record stays usable.
func (d *ReplayData) resolveIdentity() {
	id := d.ID
	if id == "" && d.ViewURL != "" {
		id = urlTail(d.ViewURL)
	}
	if id == "" && d.DownloadURL != "" {
		id = urlTail(d.DownloadURL)
	}
	if id == "" {
		return
	}
	d.setID(id)
}

// setID pins the resolved identity, keeping both URLs in agreement.
func (d *ReplayData) setID(id string) {
	d.ID = id
	d.ViewURL = ReplayViewURLBase + id
	d.DownloadURL = ReplayDownloadURLBase + id
}

func urlTail(url string) string {
	return url[strings.LastIndex(url, "/")+1:]
}

// Replay is one canonical replay record as served by the hosting service:
// a status envelope around ReplayData. The top-level id and the nested
// data id are kept in sync on finalize; whichever is supplied first wins.
type Replay struct {
	ID     string                     `json:"_id,omitempty"`
	Status string                     `json:"s"`
	Data   *ReplayData                `json:"d"`
	Error  map[string]json.RawMessage `json:"e,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var (
	replayKnownKeys = jsonFieldNames(Replay{})
	replayAliases   = aliasNames(Replay{}, replayWire{})
)

func (r *Replay) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	canonicalizeKeys(raw, replayAliases)
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	type plain Replay
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = Replay(p)
	r.Extra = splitExtra(raw, replayKnownKeys)
	return nil
}

// ParseReplay builds a Replay from an upstream payload in two phases: a raw
// field parse followed by a single finalization pass that validates bounded
// fields, recomputes derived fields and resolves identity. After that the
// record is treated as immutable.
func ParseReplay(b []byte) (*Replay, error) {
	var r Replay
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("invalid replay format: %w", err)
	}
	if err := r.finalize(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Replay) finalize() error {
	if r.Status == "" {
		r.Status = "ok"
	}
	if r.Data == nil {
		return &ValidationError{Field: "data", Value: nil, Rule: "required"}
	}
	if r.Data.Summary == nil {
		return &ValidationError{Field: "data.summary", Value: nil, Rule: "required"}
	}
	if err := r.Data.Summary.finalize(); err != nil {
		return err
	}
	r.Data.resolveIdentity()
	r.propagateID()
	return nil
}

// propagateID syncs the top-level and nested ids: whichever is present first
// is copied to the other side.
func (r *Replay) propagateID() {
	switch {
	case r.ID == "" && r.Data.ID != "":
		r.ID = r.Data.ID
	case r.ID != "":
		r.Data.setID(r.ID)
	}
}

// ReplayID returns the resolved replay id, or "" when identity is unresolved.
func (r *Replay) ReplayID() string {
	if r.ID != "" {
		return r.ID
	}
	if r.Data != nil {
		return r.Data.ID
	}
	return ""
}

// Allies returns the roster on player's side. With the neutral perspective,
// or when player is in the ally roster, that is the uploader's own team.
func (r *Replay) Allies(player int64) ([]int64, error) {
	s := r.Data.Summary
	if player == NeutralPerspective || contains(s.Allies, player) {
		return s.Allies, nil
	}
	if contains(s.Enemies, player) {
		return s.Enemies, nil
	}
	return nil, fmt.Errorf("account_id %d: %w", player, ErrParticipantNotFound)
}

// Enemies returns the roster opposing player's side.
func (r *Replay) Enemies(player int64) ([]int64, error) {
	s := r.Data.Summary
	if player == NeutralPerspective || contains(s.Allies, player) {
		return s.Enemies, nil
	}
	if contains(s.Enemies, player) {
		return s.Allies, nil
	}
	return nil, fmt.Errorf("account_id %d: %w", player, ErrParticipantNotFound)
}

// Players returns every participant, enemies first then allies. The order is
// fixed, not sorted.
func (r *Replay) Players() []int64 {
	s := r.Data.Summary
	players := make([]int64, 0, len(s.Enemies)+len(s.Allies))
	players = append(players, s.Enemies...)
	players = append(players, s.Allies...)
	return players
}

// Platoons partitions detail rows with a positive squad index into allied and
// enemy platoons relative to player's side, keyed by squad index. Rows whose
// participant is in neither roster are skipped, not reported.
func (r *Replay) Platoons(player int64) (allied, enemy map[int][]int64, err error) {
	allies, err := r.Allies(player)
	if err != nil {
		return nil, nil, err
	}
	enemies, err := r.Enemies(player)
	if err != nil {
		return nil, nil, err
	}

	allied = make(map[int][]int64)
	enemy = make(map[int][]int64)
	for _, d := range r.Data.Summary.Details {
		if d.SquadIndex == nil || *d.SquadIndex <= 0 {
			continue
		}
		switch {
		case contains(allies, d.DBID):
			allied[*d.SquadIndex] = append(allied[*d.SquadIndex], d.DBID)
		case contains(enemies, d.DBID):
			enemy[*d.SquadIndex] = append(enemy[*d.SquadIndex], d.DBID)
		}
	}
	return allied, enemy, nil
}

// BattleResultFor derives the battle result from player's perspective.
//
// Only equality with the raw win value is tested: the uploader-recorded
// not_win, loss and draw states are collapsed and resolved via winner_team
// instead, because the uploader's own distinction between them is
// unreliable. An incomplete battle is incomplete from every perspective, as
// is a player that took no part in the battle.
func (r *Replay) BattleResultFor(player int64) BattleResult {
	s := r.Data.Summary
	raw := BattleResultIncomplete
	if s.BattleResult != nil {
		raw = *s.BattleResult
	}
	if raw == BattleResultIncomplete {
		return BattleResultIncomplete
	}
	isDraw := s.WinnerTeam != nil && *s.WinnerTeam == WinnerTeamDraw

	switch {
	case player != NeutralPerspective && contains(s.Enemies, player):
		if raw == BattleResultWin {
			return BattleResultLoss
		}
		if isDraw {
			return BattleResultDraw
		}
		return BattleResultWin
	case player == NeutralPerspective || contains(s.Allies, player):
		if raw == BattleResultWin {
			return BattleResultWin
		}
		if isDraw {
			return BattleResultDraw
		}
		return BattleResultLoss
	default:
		return BattleResultIncomplete
	}
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
