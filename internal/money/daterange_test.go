package money_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetengine/core/internal/money"
)

func TestForMonth(t *testing.T) {
	r := money.ForMonth(2026, time.February)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), r.End)

	leap := money.ForMonth(2024, time.February)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), leap.End)
}

func TestNewDateRangeRejectsInverted(t *testing.T) {
	start := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err := money.NewDateRange(start, end)
	require.ErrorIs(t, err, money.ErrInvalidRange)
}

func TestLastNDays(t *testing.T) {
	end := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	r := money.LastNDays(3, end)
	assert.Equal(t, time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, end, r.End)
}

func TestContains(t *testing.T) {
	r := money.ForMonth(2026, time.February)
	assert.True(t, r.Contains(time.Date(2026, 2, 15, 13, 30, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
}
