package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodayUsesFixedOffset(t *testing.T) {
	// 17:00 UTC is already the next calendar day in UTC+8.
	now := time.Date(2026, 8, 31, 17, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-09-01", FormatDate(Today(now)))

	// 15:59 UTC is still the same day in UTC+8.
	now = time.Date(2026, 8, 31, 15, 59, 0, 0, time.UTC)
	assert.Equal(t, "2026-08-31", FormatDate(Today(now)))
}

func TestYesterday(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-02-28", FormatDate(Yesterday(now)))
}

func TestParseDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-31", FormatDate(d))

	_, err = ParseDate("31/08/2026")
	assert.Error(t, err)

	_, err = ParseDate("")
	assert.Error(t, err)
}
