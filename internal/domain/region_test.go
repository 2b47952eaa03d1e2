package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionFromAccountID_Thresholds(t *testing.T) {
	tests := []struct {
		accountID int64
		want      Region
	}{
		{0, RegionRU},
		{1, RegionRU},
		{499_999_999, RegionRU},
		{500_000_000, RegionEU},
		{999_999_999, RegionEU},
		{1_000_000_000, RegionCom},
		{1_999_999_999, RegionCom},
		{2_000_000_000, RegionAsia},
		{3_099_999_999, RegionAsia},
		{3_100_000_000, RegionChina},
		{9_000_000_000, RegionChina},
	}
	for _, tt := range tests {
		got, err := RegionFromAccountID(tt.accountID)
		require.NoError(t, err, "account_id %d", tt.accountID)
		assert.Equal(t, tt.want, got, "account_id %d", tt.accountID)
	}
}

func TestRegionFromAccountID_Negative(t *testing.T) {
	_, err := RegionFromAccountID(-1)
	require.Error(t, err)

	var classErr *ClassificationError
	require.ErrorAs(t, err, &classErr)
	assert.Equal(t, int64(-1), classErr.AccountID)
}

func TestRegionMatches_Reflexive(t *testing.T) {
	for _, r := range []Region{RegionRU, RegionEU, RegionCom, RegionAsia, RegionChina, RegionAPI} {
		assert.True(t, r.Matches(r), "region %s should match itself", r)
	}
}

func TestRegionMatches_APIWildcard(t *testing.T) {
	for _, r := range APIRegions {
		assert.True(t, RegionAPI.Matches(r), "API should match %s", r)
		assert.True(t, r.Matches(RegionAPI), "%s should match API", r)
	}

	assert.False(t, RegionAPI.Matches(RegionChina))
	assert.False(t, RegionChina.Matches(RegionAPI))
}

func TestRegionMatches_DistinctRealms(t *testing.T) {
	assert.False(t, RegionRU.Matches(RegionEU))
	assert.False(t, RegionAsia.Matches(RegionChina))
}
