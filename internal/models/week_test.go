package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekdayIndexMondayFirst(t *testing.T) {
	// 2024-11-04 is a Monday.
	monday := time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)
	for offset := 0; offset < 7; offset++ {
		day := monday.AddDate(0, 0, offset)
		assert.Equal(t, offset, WeekdayIndex(day), "offset %d (%s)", offset, day.Weekday())
	}
}

func TestWeekdayIndexSundayMapsToSix(t *testing.T) {
	sunday := time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Sunday, sunday.Weekday())
	assert.Equal(t, 6, WeekdayIndex(sunday))
}

func TestDateKeyRoundTrip(t *testing.T) {
	day := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	key := DateKey(day)
	assert.Equal(t, "2024-03-07", key)

	parsed, err := ParseDateKey(key)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(day))
}

func TestParseDateKeyTruncatesTimeOfDay(t *testing.T) {
	parsed, err := ParseDateKey("2024-03-07T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-07", DateKey(parsed))

	normalized, err := NormalizeDateKey("2024-03-07T00:00:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-07", normalized)
}

func TestParseDateKeyRejectsGarbage(t *testing.T) {
	_, err := ParseDateKey("07/03/2024")
	assert.Error(t, err)

	_, err = ParseDateKey("")
	assert.Error(t, err)
}
