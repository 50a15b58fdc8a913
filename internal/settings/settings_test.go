package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestDecodeEmptyIsDefaults(t *testing.T) {
	for _, raw := range []datatypes.JSON{nil, datatypes.JSON("null")} {
		s, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, Defaults(), s)
	}
}

func TestDecodeOverlaysStoredKeys(t *testing.T) {
	raw := datatypes.JSON(`{"darkMode":true,"giftBudget":[250],"moodSharingLevel":"full","legacyKey":1}`)

	s, err := Decode(raw)
	require.NoError(t, err)

	assert.True(t, s.DarkMode)
	assert.Equal(t, []int{250}, s.GiftBudget)
	assert.Equal(t, "full", s.MoodSharingLevel)
	// Untouched keys keep their defaults.
	assert.True(t, s.HapticFeedback)
	assert.Equal(t, "partner-only", s.MoodDataSharing)
}

func TestDecodeExplicitFalseWins(t *testing.T) {
	s, err := Decode(datatypes.JSON(`{"moodNotifications":false}`))
	require.NoError(t, err)
	assert.False(t, s.MoodNotifications)
}

func TestDecodeMalformed(t *testing.T) {
	s, err := Decode(datatypes.JSON(`{"darkMode":`))
	require.Error(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestEncodeUsesClientKeys(t *testing.T) {
	s := Defaults()
	s.DisplayName = "Sam"

	raw, err := Encode(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"displayName":"Sam"`)
	assert.Contains(t, string(raw), `"favoriteGiftCategories":["flowers","chocolates","experiences"]`)
}
