package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmicwatch/cosmic-watch/internal/risk"
)

func TestCleanIDs(t *testing.T) {
	got := CleanIDs([]string{" 3542519 ", "", "2000433", "3542519", "   "})
	assert.Equal(t, []string{"3542519", "2000433"}, got)
	assert.Empty(t, CleanIDs(nil))
}

func TestProfileUpdate_Normalize(t *testing.T) {
	ids := []string{"a", " a", "b "}
	lvl := risk.Level("high")
	u, err := ProfileUpdate{WatchedAsteroids: &ids, MinRiskLevel: &lvl}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, *u.WatchedAsteroids)
	assert.Equal(t, risk.High, *u.MinRiskLevel)
	assert.Nil(t, u.AlertsEnabled)
}

func TestProfileUpdate_RejectsUnknownLevel(t *testing.T) {
	lvl := risk.Level("EXTREME")
	_, err := ProfileUpdate{MinRiskLevel: &lvl}.Normalize()
	require.Error(t, err)
}

func TestProfileUpdate_RejectsOversizedWatchList(t *testing.T) {
	ids := make([]string, MaxWatched+1)
	for i := range ids {
		ids[i] = string(rune('a'+i%26)) + string(rune('0'+i/26%10)) + string(rune('A'+i/260))
	}
	_, err := ProfileUpdate{WatchedAsteroids: &ids}.Normalize()
	require.Error(t, err)
}

func TestProfileUpdate_Empty(t *testing.T) {
	assert.True(t, ProfileUpdate{}.Empty())
	on := true
	assert.False(t, ProfileUpdate{AlertsEnabled: &on}.Empty())
}

func TestAlertProfile_Threshold(t *testing.T) {
	assert.Equal(t, risk.High, AlertProfile{MinRiskLevel: risk.High}.Threshold(risk.Moderate))
	assert.Equal(t, risk.Moderate, AlertProfile{}.Threshold(risk.Moderate))
	assert.Equal(t, risk.Moderate, AlertProfile{MinRiskLevel: "bogus"}.Threshold(risk.Moderate))
}
