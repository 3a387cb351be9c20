package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingValues(t *testing.T) {
	want := map[Rating]int{
		RatingVeryLow:  1,
		RatingLow:      2,
		RatingMedium:   3,
		RatingHigh:     4,
		RatingVeryHigh: 5,
	}
	for rating, value := range want {
		got, err := rating.Value()
		require.NoError(t, err)
		assert.Equal(t, value, got)
		assert.True(t, rating.IsValid())

		back, err := RatingFromValue(value)
		require.NoError(t, err)
		assert.Equal(t, rating, back)
	}
}

func TestRatingInvalid(t *testing.T) {
	_, err := Rating("severe").Value()
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
	assert.False(t, Rating("severe").IsValid())

	_, err = RatingFromValue(0)
	assert.True(t, IsInvalidInput(err))
	_, err = RatingFromValue(6)
	assert.True(t, IsInvalidInput(err))
}

func TestStatusEnumValidity(t *testing.T) {
	for _, s := range ThreatStatusDisplayOrder {
		assert.True(t, s.IsValid())
	}
	assert.False(t, ThreatStatus("retired").IsValid())
	assert.False(t, ThreatStatus("").IsValid())

	for _, s := range MitigationStatusDisplayOrder {
		assert.True(t, s.IsValid())
	}
	assert.False(t, MitigationStatus("done").IsValid())

	for _, s := range []MitigationStrategy{StrategyEliminate, StrategyReduce, StrategyTransfer, StrategyAccept} {
		assert.True(t, s.IsValid())
	}
	assert.False(t, MitigationStrategy("ignore").IsValid())
}

func TestRegisterEntryDeadlineChecks(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 30 * 24 * time.Hour
	yesterday := now.Add(-24 * time.Hour)
	nextWeek := now.Add(7 * 24 * time.Hour)
	nextQuarter := now.Add(90 * 24 * time.Hour)

	open := &RiskRegisterEntry{Status: RegisterStatusInProgress, Deadline: &yesterday}
	assert.True(t, open.IsOverdue(now))
	assert.False(t, open.IsDueSoon(now, window))

	open.Deadline = &nextWeek
	assert.False(t, open.IsOverdue(now))
	assert.True(t, open.IsDueSoon(now, window))

	open.Deadline = &nextQuarter
	assert.False(t, open.IsDueSoon(now, window))

	// Closed entries never flag, whatever the deadline says.
	done := &RiskRegisterEntry{Status: RegisterStatusCompleted, Deadline: &yesterday}
	assert.False(t, done.IsOverdue(now))
	deferred := &RiskRegisterEntry{Status: RegisterStatusDeferred, Deadline: &nextWeek}
	assert.False(t, deferred.IsDueSoon(now, window))

	// No deadline, nothing to flag.
	bare := &RiskRegisterEntry{Status: RegisterStatusNotStarted}
	assert.False(t, bare.IsOverdue(now))
	assert.False(t, bare.IsDueSoon(now, window))
}

func TestMitigationSetStatusStampsOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := &Mitigation{Status: MitigationStatusInProgress}

	m.SetStatus(MitigationStatusImplemented, now)
	require.NotNil(t, m.CompletedAt)
	assert.Equal(t, now, *m.CompletedAt)

	later := now.Add(time.Hour)
	m.SetStatus(MitigationStatusVerified, later)
	assert.Equal(t, now, *m.CompletedAt, "completion is stamped on the first implemented transition only")
	assert.Equal(t, later, m.UpdatedAt)
}
