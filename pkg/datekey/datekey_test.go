package datekey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

func TestKeyIgnoresTimeOfDayAcrossZones(t *testing.T) {
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("UTC-10", -10*60*60),
		time.FixedZone("UTC+8", 8*60*60),
		time.FixedZone("UTC+14", 14*60*60),
	}
	for _, loc := range zones {
		n := New(loc)
		early := time.Date(2024, time.June, 3, 0, 5, 0, 0, loc)
		late := time.Date(2024, time.June, 3, 23, 55, 0, 0, loc)

		k1, err := n.Key(early)
		require.NoError(t, err)
		k2, err := n.Key(late)
		require.NoError(t, err)
		assert.Equal(t, "2024-06-03", k1, loc.String())
		assert.Equal(t, k1, k2, loc.String())
	}
}

func TestKeyDoesNotShiftThroughUTC(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)
	n := New(manila)
	// 00:30 in Manila is still the previous day in UTC.
	key, err := n.Key(time.Date(2024, time.March, 1, 0, 30, 0, 0, manila))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", key)
}

func TestKeyRejectsZeroTime(t *testing.T) {
	_, err := New(time.UTC).Key(time.Time{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.CodeInvalidDate))
}

func TestFromStringIsIdempotent(t *testing.T) {
	n := New(time.FixedZone("UTC-5", -5*60*60))
	key, err := n.FromString("2024-11-02 23:59:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-11-02", key)

	again, err := n.FromString(key)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestFromStringRespectsExplicitOffset(t *testing.T) {
	n := New(time.FixedZone("PHT", 8*60*60))
	// 18:00Z is 02:00 the next day in Manila.
	key, err := n.FromString("2024-06-03T18:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-04", key)
}

func TestFromStringInvalid(t *testing.T) {
	for _, raw := range []string{"", "not-a-date", "2024-13-45", "03/06/2024"} {
		_, err := New(time.UTC).FromString(raw)
		require.Error(t, err, raw)
		assert.True(t, appErrors.Is(err, appErrors.CodeInvalidDate), raw)
	}
}

func TestMonthKeys(t *testing.T) {
	keys := New(time.UTC).MonthKeys(2024, time.February)
	require.Len(t, keys, 29)
	assert.Equal(t, "2024-02-01", keys[0])
	assert.Equal(t, "2024-02-29", keys[28])
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend("2024-06-01"))
	assert.True(t, IsWeekend("2024-06-02"))
	assert.False(t, IsWeekend("2024-06-03"))
	assert.False(t, IsWeekend("garbage"))
}
