package usecases_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-rewards.backend/internal/usecases"
)

func TestParsePositiveAmount(t *testing.T) {
	amount, err := usecases.ParsePositiveAmount(" 10 ")
	require.NoError(t, err)
	assert.Equal(t, "10", amount.String())

	amount, err = usecases.ParsePositiveAmount("007")
	require.NoError(t, err)
	assert.Equal(t, "7", amount.String())

	huge := "1" + strings.Repeat("0", 40)
	amount, err = usecases.ParsePositiveAmount(huge)
	require.NoError(t, err)
	assert.Equal(t, huge, amount.String())

	rejected := map[string]string{
		"":    "Amount is required.",
		"0":   "Amount must be positive.",
		"000": "Amount must be positive.",
		"-1":  "Invalid amount format.",
		"+1":  "Invalid amount format.",
		"1.0": "Invalid amount format.",
		"1e2": "Invalid amount format.",
		"abc": "Invalid amount format.",
	}
	rejected["1"+strings.Repeat("0", 80)] = "Amount is too large."
	for raw, message := range rejected {
		_, err := usecases.ParsePositiveAmount(raw)
		requireAppError(t, err, http.StatusBadRequest, message)
	}
}

func TestRewardCatalog(t *testing.T) {
	catalog := usecases.NewRewardCatalog()

	rewards := catalog.Rewards()
	require.Len(t, rewards, 6)
	assert.Equal(t, "reward1", rewards[0].ID)

	rewards[0].Name = "mutated"
	assert.Equal(t, "Free Artisan Espresso", catalog.Rewards()[0].Name)

	beans, ok := catalog.Reward("reward4")
	require.True(t, ok)
	assert.Equal(t, uint64(75), beans.PointsRequired)
	_, ok = catalog.Reward("nope")
	assert.False(t, ok)

	menu := catalog.Menu()
	require.Len(t, menu, 6)
	latte, ok := catalog.MenuItem(3)
	require.True(t, ok)
	assert.Equal(t, uint64(4), latte.PointsToEarn)
	_, ok = catalog.MenuItem(99)
	assert.False(t, ok)
}
