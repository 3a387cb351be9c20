package reporting

import (
	"github.com/google/uuid"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
	"github.com/KulbirJ/compliance-platform-sub000/domain/service"
)

// MatrixMarker plots one threat at its (likelihood, impact) cell. Markers
// sharing a cell overlap; the matrix applies no jitter.
type MatrixMarker struct {
	ThreatID uuid.UUID
	Name     string
}

// MatrixCell is one cell of the 5x5 risk matrix. The background level is
// derived from the cell's likelihood*impact product, independent of any
// plotted threats.
type MatrixCell struct {
	Likelihood int
	Impact     int
	Level      entity.RiskLevel
	Markers    []MatrixMarker
}

// RiskMatrix is a fixed 5x5 grid indexed by likelihood (rows, 5 at the top)
// and impact (columns, 1 at the left). It is rebuilt from current data on
// every report generation, never cached.
type RiskMatrix struct {
	Cells [5][5]MatrixCell
}

// BuildRiskMatrix computes the matrix for the given threats. Threats whose
// ratings fail to map are skipped; they cannot occur for persisted threats,
// which are validated on write.
func BuildRiskMatrix(threats []*entity.Threat, thresholds service.RiskThresholds) *RiskMatrix {
	m := &RiskMatrix{}
	for li := 1; li <= 5; li++ {
		for ii := 1; ii <= 5; ii++ {
			m.Cells[li-1][ii-1] = MatrixCell{
				Likelihood: li,
				Impact:     ii,
				Level:      thresholds.Level(li * ii),
			}
		}
	}

	for _, t := range threats {
		lv, err := t.Likelihood.Value()
		if err != nil {
			continue
		}
		iv, err := t.Impact.Value()
		if err != nil {
			continue
		}
		cell := &m.Cells[lv-1][iv-1]
		cell.Markers = append(cell.Markers, MatrixMarker{ThreatID: t.ID, Name: t.Name})
	}

	return m
}

// Cell returns the cell at the given 1-based likelihood/impact coordinates.
func (m *RiskMatrix) Cell(likelihood, impact int) *MatrixCell {
	return &m.Cells[likelihood-1][impact-1]
}

// Rows returns the cells in render order: likelihood 5 at the top, impact 1
// at the left.
func (m *RiskMatrix) Rows() [][]MatrixCell {
	rows := make([][]MatrixCell, 0, 5)
	for li := 5; li >= 1; li-- {
		row := make([]MatrixCell, 0, 5)
		for ii := 1; ii <= 5; ii++ {
			row = append(row, m.Cells[li-1][ii-1])
		}
		rows = append(rows, row)
	}
	return rows
}
