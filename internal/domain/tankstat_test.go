package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeStatID_FixedWidthHex(t *testing.T) {
	id, err := MakeStatID(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, "0000000001"+"000002"+"00000003", id.String())
}

func TestStatID_RoundTrip(t *testing.T) {
	tests := []struct {
		name                      string
		account, tank, lastBattle int64
	}{
		{"zeros", 0, 0, 0},
		{"small", 1, 2, 3},
		{"typical", 521_458_531, 5137, 1_638_316_800},
		{"max widths", 1<<40 - 1, 1<<24 - 1, 1<<32 - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := MakeStatID(tt.account, tt.tank, tt.lastBattle)
			require.NoError(t, err)

			account, tank, lastBattle := id.Parts()
			assert.Equal(t, tt.account, account)
			assert.Equal(t, tt.tank, tank)
			assert.Equal(t, tt.lastBattle, lastBattle)

			parsed, err := ParseStatID(id.String())
			require.NoError(t, err)
			assert.Equal(t, id, parsed)
		})
	}
}

func TestMakeStatID_Overflow(t *testing.T) {
	tests := []struct {
		name                      string
		account, tank, lastBattle int64
	}{
		{"account over 40 bits", 1 << 40, 0, 0},
		{"tank over 24 bits", 0, 1 << 24, 0},
		{"time over 32 bits", 0, 0, 1 << 32},
		{"negative account", -1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MakeStatID(tt.account, tt.tank, tt.lastBattle)
			var overflow *EncodingOverflowError
			require.ErrorAs(t, err, &overflow)
		})
	}
}

func TestStatID_LexicographicOrder(t *testing.T) {
	a, err := MakeStatID(100, 50, 1000)
	require.NoError(t, err)
	b, err := MakeStatID(100, 50, 2000)
	require.NoError(t, err)
	c, err := MakeStatID(100, 51, 0)
	require.NoError(t, err)
	d, err := MakeStatID(101, 0, 0)
	require.NoError(t, err)

	assert.Less(t, a.String(), b.String(), "later battle sorts after")
	assert.Less(t, b.String(), c.String(), "higher tank sorts after any time")
	assert.Less(t, c.String(), d.String(), "higher account sorts after any tank")
}

func TestParseStatID_Invalid(t *testing.T) {
	_, err := ParseStatID("abc")
	assert.Error(t, err, "wrong length")

	_, err = ParseStatID("zzzzzzzzzzzzzzzzzzzzzzzz")
	assert.Error(t, err, "not hex")
}

func TestTankStat_Finalize(t *testing.T) {
	stat := TankStat{
		AccountID:      600_000_000,
		TankID:         5137,
		LastBattleTime: 1_638_316_800,
	}
	require.NoError(t, stat.Finalize())

	want, err := MakeStatID(600_000_000, 5137, 1_638_316_800)
	require.NoError(t, err)
	assert.Equal(t, want, stat.ID)
	assert.Equal(t, RegionEU, stat.Region, "region derived from account id")

	// Re-finalizing is a no-op: same triple, same id.
	id := stat.ID
	require.NoError(t, stat.Finalize())
	assert.Equal(t, id, stat.ID)
}

func TestTankStat_FinalizeKeepsExplicitRegion(t *testing.T) {
	stat := TankStat{
		AccountID:      600_000_000,
		TankID:         1,
		LastBattleTime: 1,
		Region:         RegionAsia,
	}
	require.NoError(t, stat.Finalize())
	assert.Equal(t, RegionAsia, stat.Region)
}

func TestParseTankStats(t *testing.T) {
	payload := `{
		"s": "ok",
		"d": {
			"600000000": [
				{"s": {"sp": 10, "h": 5, "k": 2, "w": 1, "l": 0, "cp": 0, "b": 1,
				       "dd": 1500, "dr": 900, "mk": 2, "sh": 8, "ws": 1, "sb": 1, "dp": 0},
				 "lb": 1638316800, "a": 600000000, "t": 5137, "m": 3, "l": 240}
			]
		}
	}`
	resp, err := ParseTankStats([]byte(payload))
	require.NoError(t, err)
	require.Len(t, resp.Data["600000000"], 1)

	stat := resp.Data["600000000"][0]
	assert.False(t, stat.ID.IsZero(), "id derived on parse")
	assert.Equal(t, RegionEU, stat.Region)
	assert.Equal(t, 1500, stat.All.DamageDealt)
}

func TestParseTankStats_OverflowRejected(t *testing.T) {
	payload := `{"d": {"1": [{"s": {}, "lb": 4294967296, "a": 1, "t": 1, "m": 0, "l": 0}]}}`
	_, err := ParseTankStats([]byte(payload))
	require.Error(t, err, "last_battle_time over 32 bits must not truncate")
}
