package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
)

func TestCompletionPercent(t *testing.T) {
	assert.Equal(t, 0.0, CompletionPercent(0, 0))
	assert.Equal(t, 0.0, CompletionPercent(5, 0))
	assert.Equal(t, 40.0, CompletionPercent(4, 10))
	assert.Equal(t, 33.33, CompletionPercent(1, 3))
	assert.Equal(t, 66.67, CompletionPercent(2, 3))
	assert.Equal(t, 100.0, CompletionPercent(10, 10))
}

func TestImplementationRate(t *testing.T) {
	assert.Equal(t, 0.0, ImplementationRate(nil))

	assessed := []*entity.ControlAssessment{
		{Status: entity.StatusFullyImplemented},
		{Status: entity.StatusLargelyImplemented},
		{Status: entity.StatusPartiallyImplemented},
		{Status: entity.StatusNotImplemented},
	}
	// 2 of 4, integer rounding.
	assert.Equal(t, 50.0, ImplementationRate(assessed))

	assessed = append(assessed, &entity.ControlAssessment{Status: entity.StatusAtRisk},
		&entity.ControlAssessment{Status: entity.StatusNotApplicable})
	// 2 of 6 rounds to 33, not 33.33.
	assert.Equal(t, 33.0, ImplementationRate(assessed))
}

func TestMitigationCoverage(t *testing.T) {
	assert.Equal(t, 0.0, MitigationCoverage(nil))

	threats := []*entity.Threat{
		{Status: entity.ThreatStatusMitigated},
		{Status: entity.ThreatStatusAccepted},
		{Status: entity.ThreatStatusIdentified},
		{Status: entity.ThreatStatusTransferred},
	}
	// Only mitigated and accepted count as terminal; transferred does not.
	assert.Equal(t, 50.0, MitigationCoverage(threats))
}

func TestEffectivenessAverage(t *testing.T) {
	assert.Nil(t, EffectivenessAverage(nil))

	unrated := []*entity.Mitigation{{Status: entity.MitigationStatusImplemented}}
	assert.Nil(t, EffectivenessAverage(unrated), "absence of ratings must not read as zero")

	high := entity.EffectivenessHigh
	excellent := entity.EffectivenessExcellent
	rated := []*entity.Mitigation{
		{Effectiveness: &high},
		{Effectiveness: &excellent},
		{Status: entity.MitigationStatusProposed},
	}
	avg := EffectivenessAverage(rated)
	require.NotNil(t, avg)
	assert.Equal(t, 3.5, *avg)
}

func TestAssessmentStatistics(t *testing.T) {
	ctx := context.Background()
	assessments := newFakeAssessmentRepo()
	threats := newFakeThreatRepo()
	registers := newFakeRegisterRepo()

	assessmentID := uuid.New()
	assessments.assessments[assessmentID] = &entity.Assessment{ID: assessmentID, Name: "SOC 2"}

	for i := 0; i < 10; i++ {
		assessments.controls = append(assessments.controls, &entity.Control{
			ID:       uuid.New(),
			Function: entity.FunctionProtect,
		})
	}

	score := 80.0
	statuses := []entity.ImplementationStatus{
		entity.StatusFullyImplemented,
		entity.StatusLargelyImplemented,
		entity.StatusNotImplemented,
		entity.StatusAtRisk,
	}
	for i, status := range statuses {
		ca := &entity.ControlAssessment{
			ID:           uuid.New(),
			AssessmentID: assessmentID,
			ControlID:    assessments.controls[i].ID,
			Status:       status,
		}
		if status == entity.StatusFullyImplemented {
			ca.ComplianceScore = &score
		}
		require.NoError(t, assessments.UpsertControlAssessment(ctx, ca))
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	soon := now.Add(10 * 24 * time.Hour)
	far := now.Add(90 * 24 * time.Hour)
	entries := []*entity.RiskRegisterEntry{
		{ID: uuid.New(), AssessmentID: &assessmentID, Status: entity.RegisterStatusNotStarted, Deadline: &past},
		{ID: uuid.New(), AssessmentID: &assessmentID, Status: entity.RegisterStatusInProgress, Deadline: &soon},
		{ID: uuid.New(), AssessmentID: &assessmentID, Status: entity.RegisterStatusCompleted, Deadline: &past},
		{ID: uuid.New(), AssessmentID: &assessmentID, Status: entity.RegisterStatusDeferred, Deadline: &far},
	}
	for _, e := range entries {
		require.NoError(t, registers.Create(ctx, e))
	}

	agg := NewStatisticsAggregator(zaptest.NewLogger(t), assessments, threats, registers).
		WithClock(func() time.Time { return now })

	stats, err := agg.AssessmentStatistics(ctx, assessmentID)
	require.NoError(t, err)

	assert.Equal(t, 10, stats.TotalControls)
	assert.Equal(t, 4, stats.AssessedControls)
	assert.Equal(t, 40.0, stats.CompletionPercent)
	assert.Equal(t, 50.0, stats.ImplementationRate)
	assert.Equal(t, 1, stats.AtRiskControls)
	require.NotNil(t, stats.AverageComplianceScore)
	assert.Equal(t, 80.0, *stats.AverageComplianceScore)

	assert.Equal(t, 2, stats.RegisterOpen)
	assert.Equal(t, 1, stats.RegisterOverdue, "closed entries are never overdue")
	assert.Equal(t, 1, stats.RegisterDueSoon)

	// Breakdown keeps the fixed taxonomy order including empty buckets.
	labels := make([]string, 0, len(stats.StatusBreakdown))
	for _, item := range stats.StatusBreakdown {
		labels = append(labels, item.Label)
	}
	assert.Equal(t, []string{
		"not_implemented", "partially_implemented", "largely_implemented",
		"fully_implemented", "not_applicable", "at_risk",
	}, labels)
	assert.Equal(t, 0, stats.StatusBreakdown[1].Count)
}

func TestAssessmentStatisticsEmptyAssessment(t *testing.T) {
	ctx := context.Background()
	assessments := newFakeAssessmentRepo()
	assessmentID := uuid.New()
	assessments.assessments[assessmentID] = &entity.Assessment{ID: assessmentID}

	agg := NewStatisticsAggregator(zaptest.NewLogger(t), assessments, newFakeThreatRepo(), newFakeRegisterRepo())

	stats, err := agg.AssessmentStatistics(ctx, assessmentID)
	require.NoError(t, err, "empty datasets are a valid state, not an error")
	assert.Equal(t, 0.0, stats.CompletionPercent)
	assert.Equal(t, 0.0, stats.ImplementationRate)
	assert.Nil(t, stats.AverageComplianceScore)
	assert.Nil(t, stats.AverageMaturity)
}

func TestAssessmentStatisticsUnknownSubject(t *testing.T) {
	agg := NewStatisticsAggregator(zaptest.NewLogger(t), newFakeAssessmentRepo(), newFakeThreatRepo(), newFakeRegisterRepo())

	_, err := agg.AssessmentStatistics(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, entity.IsNotFound(err))
}

func TestThreatModelStatistics(t *testing.T) {
	ctx := context.Background()
	threats := newFakeThreatRepo()

	modelID := uuid.New()
	threats.models[modelID] = &entity.ThreatModel{ID: modelID, Name: "payment flow"}

	t1 := &entity.Threat{
		ID: uuid.New(), ModelID: modelID, Category: entity.StrideSpoofing,
		Status: entity.ThreatStatusMitigated, RiskLevel: entity.RiskLevelHigh,
	}
	t2 := &entity.Threat{
		ID: uuid.New(), ModelID: modelID, Category: entity.StrideTampering,
		Status: entity.ThreatStatusIdentified, RiskLevel: entity.RiskLevelCritical,
	}
	t3 := &entity.Threat{
		ID: uuid.New(), ModelID: modelID, Category: entity.StrideTampering,
		Status: entity.ThreatStatusAnalyzing, RiskLevel: entity.RiskLevelMedium,
	}
	threats.threats[t1.ID] = t1
	threats.threats[t2.ID] = t2
	threats.threats[t3.ID] = t3

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	soon := now.Add(7 * 24 * time.Hour)
	medium := entity.EffectivenessMedium
	threats.mitigations[t1.ID] = []*entity.Mitigation{
		{ID: uuid.New(), ThreatID: t1.ID, Status: entity.MitigationStatusVerified, Priority: entity.PriorityHigh, Effectiveness: &medium},
	}
	threats.mitigations[t2.ID] = []*entity.Mitigation{
		{ID: uuid.New(), ThreatID: t2.ID, Status: entity.MitigationStatusProposed, Priority: entity.PriorityCritical, TargetDate: &past},
		{ID: uuid.New(), ThreatID: t2.ID, Status: entity.MitigationStatusInProgress, Priority: entity.PriorityMedium, TargetDate: &soon},
	}

	agg := NewStatisticsAggregator(zaptest.NewLogger(t), newFakeAssessmentRepo(), threats, newFakeRegisterRepo()).
		WithClock(func() time.Time { return now })

	stats, err := agg.ThreatModelStatistics(ctx, modelID)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalThreats)
	assert.Equal(t, 33.0, stats.MitigationCoverage)
	assert.Equal(t, 3, stats.TotalMitigations)
	assert.Equal(t, 2, stats.EarlyStageThreats)
	assert.Equal(t, 1, stats.OverdueMitigations)
	assert.Equal(t, 1, stats.DueSoonMitigations)

	require.NotNil(t, stats.EffectivenessAverage)
	assert.Equal(t, 2.0, *stats.EffectivenessAverage)

	// Category breakdown is in STRIDE order, not count order.
	assert.Equal(t, "spoofing", stats.CategoryBreakdown[0].Label)
	assert.Equal(t, 1, stats.CategoryBreakdown[0].Count)
	assert.Equal(t, "tampering", stats.CategoryBreakdown[1].Label)
	assert.Equal(t, 2, stats.CategoryBreakdown[1].Count)

	// Level breakdown leads with critical.
	assert.Equal(t, "critical", stats.LevelBreakdown[0].Label)
	assert.Equal(t, 1, stats.LevelBreakdown[0].Count)
}

func TestThreatModelStatisticsEmptyModel(t *testing.T) {
	threats := newFakeThreatRepo()
	modelID := uuid.New()
	threats.models[modelID] = &entity.ThreatModel{ID: modelID}

	agg := NewStatisticsAggregator(zaptest.NewLogger(t), newFakeAssessmentRepo(), threats, newFakeRegisterRepo())

	stats, err := agg.ThreatModelStatistics(context.Background(), modelID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalThreats)
	assert.Equal(t, 0.0, stats.MitigationCoverage)
	assert.Nil(t, stats.EffectivenessAverage)
}
