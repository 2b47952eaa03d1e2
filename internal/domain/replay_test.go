package domain

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReplayID = "8b5f4d6a8b5f4d6a8b5f4d6a8b5f4d6a"

// testReplayPayload builds a minimal upstream payload. The uploader's side is
// allies [1 2 3] against enemies [4 5 6], with platoon 1 on the ally side and
// platoon 2 on the enemy side.
func testReplayPayload(raw BattleResult, winner WinnerTeam) []byte {
	return []byte(fmt.Sprintf(`{
		"s": "ok",
		"d": {
			"v": "https://replays.wotinspector.com/en/view/%s",
			"s": {
				"wt": %d, "br": %d, "t": "test battle", "pn": "Protagonist",
				"p": 1, "pt": 1, "mn": "Mines", "v": "T-34", "vx": 5, "vt": 1,
				"bts": 1638316800, "bd": 180.5, "aid": 42,
				"a": [1, 2, 3], "e": [4, 5, 6],
				"d": [
					{"ai": 1, "sq": 1, "dm": 1500},
					{"ai": 2, "sq": 1},
					{"ai": 3},
					{"ai": 4, "sq": 2},
					{"ai": 5, "sq": 2},
					{"ai": 99, "sq": 3}
				]
			}
		},
		"e": {}
	}`, testReplayID, winner, raw))
}

func mustParseReplay(t *testing.T, raw BattleResult, winner WinnerTeam) *Replay {
	t.Helper()
	replay, err := ParseReplay(testReplayPayload(raw, winner))
	require.NoError(t, err)
	return replay
}

func TestParseReplay(t *testing.T) {
	replay := mustParseReplay(t, BattleResultWin, WinnerTeamOne)

	assert.Equal(t, "ok", replay.Status)
	assert.Equal(t, testReplayID, replay.ID, "id resolved from view_url")
	assert.Equal(t, testReplayID, replay.Data.ID, "id back-propagated into data")

	s := replay.Data.Summary
	assert.Equal(t, "Mines", s.MapName)
	assert.Equal(t, int64(1), s.Protagonist)
	assert.Equal(t, "2021-12-01 00:00:00", s.BattleStartTime, "derived from epoch")
	require.Len(t, s.Details, 6)
	require.NotNil(t, s.Details[0].DamageMade)
	assert.Equal(t, 1500, *s.Details[0].DamageMade)
}

func TestParseReplay_DerivedTimestampOverwritesSupplied(t *testing.T) {
	payload := []byte(`{"d": {"s": {
		"wt": 1, "br": 1, "t": null, "pn": "p", "p": 1, "pt": 1,
		"mn": "m", "v": "v", "vx": 1, "vt": 0, "bts": 1638316800, "bd": 1,
		"aid": 1, "a": [1], "e": [2], "d": [],
		"battle_start_time": "bogus"
	}}}`)
	replay, err := ParseReplay(payload)
	require.NoError(t, err)
	assert.Equal(t, "2021-12-01 00:00:00", replay.Data.Summary.BattleStartTime)
}

func TestParseReplay_Validation(t *testing.T) {
	base := `{"d": {"s": {
		"wt": 1, "br": 1, "t": null, "pn": "p", "p": 1, "pt": %d,
		"mn": "m", "v": "v", "vx": %d, "vt": 0, "bts": 0, "bd": 1,
		"aid": 1, "a": [1], "e": [2], "d": []
	}}}`

	_, err := ParseReplay([]byte(fmt.Sprintf(base, 1, 11)))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "vehicle_tier", vErr.Field)

	_, err = ParseReplay([]byte(fmt.Sprintf(base, 3, 5)))
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "protagonist_team", vErr.Field)

	_, err = ParseReplay([]byte(fmt.Sprintf(base, 1, 10)))
	assert.NoError(t, err, "tier 10 is the inclusive bound")
}

func TestParseReplay_UnknownKeysRetained(t *testing.T) {
	payload := []byte(`{"d": {"s": {
		"wt": 1, "br": 1, "t": null, "pn": "p", "p": 1, "pt": 1,
		"mn": "m", "v": "v", "vx": 1, "vt": 0, "bts": 0, "bd": 1,
		"aid": 1, "a": [1], "e": [2],
		"d": [{"ai": 1, "future_stat": 7}],
		"new_summary_field": "kept"
	}, "new_data_field": true}, "new_top_field": 1}`)
	replay, err := ParseReplay(payload)
	require.NoError(t, err)

	s := replay.Data.Summary
	assert.Contains(t, s.Extra, "new_summary_field")
	assert.Contains(t, s.Details[0].Extra, "future_stat")
	assert.Contains(t, replay.Data.Extra, "new_data_field")
	assert.Contains(t, replay.Extra, "new_top_field")

	wire, err := replay.WireJSON()
	require.NoError(t, err)
	assert.Contains(t, string(wire), "new_summary_field")
	assert.Contains(t, string(wire), "future_stat")
	assert.Contains(t, string(wire), "new_top_field")
}

func TestReplayIdentity_FromViewURLOnly(t *testing.T) {
	replay := mustParseReplay(t, BattleResultWin, WinnerTeamOne)
	assert.Equal(t, ReplayViewURLBase+testReplayID, replay.Data.ViewURL)
	assert.Equal(t, ReplayDownloadURLBase+testReplayID, replay.Data.DownloadURL, "download_url back-filled")
	assert.Equal(t, testReplayID, replay.ReplayID())
}

func TestReplayIdentity_FromTopLevelIDOnly(t *testing.T) {
	payload := []byte(`{"_id": "abc123", "d": {"s": {
		"wt": 1, "br": 1, "t": null, "pn": "p", "p": 1, "pt": 1,
		"mn": "m", "v": "v", "vx": 1, "vt": 0, "bts": 0, "bd": 1,
		"aid": 1, "a": [1], "e": [2], "d": []
	}}}`)
	replay, err := ParseReplay(payload)
	require.NoError(t, err)
	assert.Equal(t, "abc123", replay.Data.ID)
	assert.Equal(t, ReplayViewURLBase+"abc123", replay.Data.ViewURL)
	assert.Equal(t, ReplayDownloadURLBase+"abc123", replay.Data.DownloadURL)
}

func TestReplayIdentity_FromDownloadURLOnly(t *testing.T) {
	payload := []byte(`{"d": {"d": "https://replays.wotinspector.com/en/download/xyz789", "s": {
		"wt": 1, "br": 1, "t": null, "pn": "p", "p": 1, "pt": 1,
		"mn": "m", "v": "v", "vx": 1, "vt": 0, "bts": 0, "bd": 1,
		"aid": 1, "a": [1], "e": [2], "d": []
	}}}`)
	replay, err := ParseReplay(payload)
	require.NoError(t, err)
	assert.Equal(t, "xyz789", replay.ReplayID())
	assert.Equal(t, ReplayViewURLBase+"xyz789", replay.Data.ViewURL)
}

func TestReplayIdentity_Unresolved(t *testing.T) {
	payload := []byte(`{"d": {"s": {
		"wt": 1, "br": 1, "t": null, "pn": "p", "p": 1, "pt": 1,
		"mn": "m", "v": "v", "vx": 1, "vt": 0, "bts": 0, "bd": 1,
		"aid": 1, "a": [1], "e": [2], "d": []
	}}}`)
	replay, err := ParseReplay(payload)
	require.NoError(t, err, "missing identity is tolerated, not rejected")
	assert.Empty(t, replay.ReplayID())
	assert.Empty(t, replay.Data.ViewURL)
}

func TestRosters(t *testing.T) {
	replay := mustParseReplay(t, BattleResultWin, WinnerTeamOne)

	allies, err := replay.Allies(NeutralPerspective)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, allies)

	enemies, err := replay.Enemies(NeutralPerspective)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5, 6}, enemies)

	// From an enemy participant's perspective the rosters swap.
	allies, err = replay.Allies(5)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5, 6}, allies)

	enemies, err = replay.Enemies(5)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, enemies)

	_, err = replay.Allies(42)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
	_, err = replay.Enemies(42)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestPlayers_EnemiesThenAllies(t *testing.T) {
	replay := mustParseReplay(t, BattleResultWin, WinnerTeamOne)
	assert.Equal(t, []int64{4, 5, 6, 1, 2, 3}, replay.Players())
}

func TestPlatoons(t *testing.T) {
	replay := mustParseReplay(t, BattleResultWin, WinnerTeamOne)

	allied, enemy, err := replay.Platoons(NeutralPerspective)
	require.NoError(t, err)
	assert.Equal(t, map[int][]int64{1: {1, 2}}, allied, "squad 0 and absent squads excluded")
	assert.Equal(t, map[int][]int64{2: {4, 5}}, enemy)

	// Participant 99 has a squad index but is in neither roster: skipped.
	for _, platoons := range []map[int][]int64{allied, enemy} {
		for _, members := range platoons {
			assert.NotContains(t, members, int64(99))
		}
	}

	// Enemy perspective swaps the groupings.
	allied, enemy, err = replay.Platoons(4)
	require.NoError(t, err)
	assert.Equal(t, map[int][]int64{2: {4, 5}}, allied)
	assert.Equal(t, map[int][]int64{1: {1, 2}}, enemy)

	_, _, err = replay.Platoons(42)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestBattleResultFor(t *testing.T) {
	tests := []struct {
		name   string
		raw    BattleResult
		winner WinnerTeam
		player int64
		want   BattleResult
	}{
		{"win, neutral", BattleResultWin, WinnerTeamOne, NeutralPerspective, BattleResultWin},
		{"win, ally", BattleResultWin, WinnerTeamOne, 2, BattleResultWin},
		{"win, enemy", BattleResultWin, WinnerTeamOne, 5, BattleResultLoss},
		{"not_win, neutral", BattleResultNotWin, WinnerTeamOne, NeutralPerspective, BattleResultLoss},
		{"not_win, enemy", BattleResultNotWin, WinnerTeamOne, 5, BattleResultWin},
		{"loss raw collapses like not_win", BattleResultLoss, WinnerTeamTwo, NeutralPerspective, BattleResultLoss},
		{"draw winner_team, ally", BattleResultNotWin, WinnerTeamDraw, 2, BattleResultDraw},
		{"draw winner_team, enemy", BattleResultNotWin, WinnerTeamDraw, 5, BattleResultDraw},
		{"incomplete, neutral", BattleResultIncomplete, WinnerTeamOne, NeutralPerspective, BattleResultIncomplete},
		{"incomplete, enemy", BattleResultIncomplete, WinnerTeamOne, 5, BattleResultIncomplete},
		{"incomplete, unknown player", BattleResultIncomplete, WinnerTeamOne, 42, BattleResultIncomplete},
		{"unknown player", BattleResultWin, WinnerTeamOne, 42, BattleResultIncomplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replay := mustParseReplay(t, tt.raw, tt.winner)
			assert.Equal(t, tt.want, replay.BattleResultFor(tt.player))
		})
	}
}

func TestWireJSON(t *testing.T) {
	replay := mustParseReplay(t, BattleResultWin, WinnerTeamOne)
	wire, err := replay.WireJSON()
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(wire, &doc))
	assert.Contains(t, doc, "status")
	assert.Contains(t, doc, "data")
	assert.Contains(t, doc, "error")
	assert.NotContains(t, doc, "_id", "wire view omits the top-level id")

	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["data"], &data))
	assert.Contains(t, data, "view_url")
	assert.Contains(t, data, "download_url")
	assert.Contains(t, data, "summary")
	assert.NotContains(t, data, "id", "wire view omits the nested id")

	var summary map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data["summary"], &summary))
	assert.Contains(t, summary, "battle_result")
	assert.Contains(t, summary, "winner_team")
	assert.Contains(t, summary, "battle_start_time")
	assert.Contains(t, summary, "details")

	// Wire round trip: the emitted document parses back to the same record.
	reparsed, err := ParseReplay(wire)
	require.NoError(t, err)
	assert.Equal(t, replay.ReplayID(), reparsed.ReplayID(), "id recovered from URLs")
	assert.Equal(t, replay.Data.Summary.MapName, reparsed.Data.Summary.MapName)
}

func TestExportDB(t *testing.T) {
	replay := mustParseReplay(t, BattleResultWin, WinnerTeamOne)
	export, err := replay.ExportDB()
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(export, &doc))
	assert.Contains(t, doc, "_id", "export is keyed by the resolved id")
	assert.Contains(t, doc, "d")
	assert.NotContains(t, doc, "s", "default status is omitted")
	assert.NotContains(t, doc, "e", "empty error block is omitted")

	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["d"], &data))
	assert.NotContains(t, data, "v", "view_url is recomputable")
	assert.NotContains(t, data, "d", "download_url is recomputable")
	assert.NotContains(t, data, "id")
	require.Contains(t, data, "s")

	var summary map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data["s"], &summary))
	assert.Contains(t, summary, "br")
	assert.Contains(t, summary, "wt")
	assert.Contains(t, summary, "mn")
	assert.NotContains(t, summary, "battle_start_time", "derived timestamp is recomputable")
	assert.NotContains(t, summary, "rt", "unset optional fields are omitted")
}
