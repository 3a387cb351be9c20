package reporting

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
	"github.com/KulbirJ/compliance-platform-sub000/domain/service"
)

func TestBuildRiskMatrixCellLevels(t *testing.T) {
	m := BuildRiskMatrix(nil, service.AssessmentThresholds)

	assert.Equal(t, entity.RiskLevelLow, m.Cell(1, 1).Level)
	assert.Equal(t, entity.RiskLevelLow, m.Cell(1, 5).Level)
	assert.Equal(t, entity.RiskLevelMedium, m.Cell(2, 3).Level)
	assert.Equal(t, entity.RiskLevelHigh, m.Cell(3, 4).Level)
	assert.Equal(t, entity.RiskLevelHigh, m.Cell(4, 4).Level)
	assert.Equal(t, entity.RiskLevelCritical, m.Cell(4, 5).Level)
	assert.Equal(t, entity.RiskLevelCritical, m.Cell(5, 5).Level)
}

func TestBuildRiskMatrixPlotsMarkers(t *testing.T) {
	corner := &entity.Threat{
		ID: uuid.New(), Name: "worst case",
		Likelihood: entity.RatingVeryHigh, Impact: entity.RatingVeryHigh,
	}
	mild := &entity.Threat{
		ID: uuid.New(), Name: "mild",
		Likelihood: entity.RatingVeryLow, Impact: entity.RatingVeryLow,
	}

	m := BuildRiskMatrix([]*entity.Threat{corner, mild}, service.AssessmentThresholds)

	top := m.Cell(5, 5)
	require.Len(t, top.Markers, 1)
	assert.Equal(t, corner.ID, top.Markers[0].ThreatID)
	assert.Equal(t, entity.RiskLevelCritical, top.Level)

	bottom := m.Cell(1, 1)
	require.Len(t, bottom.Markers, 1)
	assert.Equal(t, entity.RiskLevelLow, bottom.Level)
}

func TestBuildRiskMatrixMarkersOverlapWithoutJitter(t *testing.T) {
	a := &entity.Threat{ID: uuid.New(), Name: "a", Likelihood: entity.RatingMedium, Impact: entity.RatingHigh}
	b := &entity.Threat{ID: uuid.New(), Name: "b", Likelihood: entity.RatingMedium, Impact: entity.RatingHigh}

	m := BuildRiskMatrix([]*entity.Threat{a, b}, service.AssessmentThresholds)

	cell := m.Cell(3, 4)
	assert.Len(t, cell.Markers, 2, "co-located threats share the cell")

	// No other cell picked up a marker.
	total := 0
	for li := 1; li <= 5; li++ {
		for ii := 1; ii <= 5; ii++ {
			total += len(m.Cell(li, ii).Markers)
		}
	}
	assert.Equal(t, 2, total)
}

func TestRiskMatrixRowsRenderOrder(t *testing.T) {
	m := BuildRiskMatrix(nil, service.AssessmentThresholds)
	rows := m.Rows()

	require.Len(t, rows, 5)
	assert.Equal(t, 5, rows[0][0].Likelihood, "likelihood 5 renders at the top")
	assert.Equal(t, 1, rows[0][0].Impact, "impact 1 renders at the left")
	assert.Equal(t, 1, rows[4][0].Likelihood)
	assert.Equal(t, 5, rows[4][4].Impact)
}
