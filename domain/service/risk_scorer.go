package service

import (
	"github.com/pkg/errors"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
)

// RiskThresholds maps a risk score onto a risk level. The two subsystems
// that depend on scoring historically use different boundary sets, so the
// table is a parameter of every scoring call rather than a constant; the two
// presets below are the only tables in use.
type RiskThresholds struct {
	Name string

	// Lower bounds, inclusive. Scores below MediumMin are low.
	MediumMin   int
	HighMin     int
	CriticalMin int
}

// AssessmentThresholds is the preset used by statistics aggregation and
// report generation: low <=5, medium 6-11, high 12-19, critical >=20.
var AssessmentThresholds = RiskThresholds{
	Name:        "assessment",
	MediumMin:   6,
	HighMin:     12,
	CriticalMin: 20,
}

// RegisterThresholds is the preset used by the risk register: low 1-4,
// medium 5-9, high 10-16, critical 17-25.
var RegisterThresholds = RiskThresholds{
	Name:        "register",
	MediumMin:   5,
	HighMin:     10,
	CriticalMin: 17,
}

// Level buckets a risk score using the threshold table.
func (t RiskThresholds) Level(score int) entity.RiskLevel {
	switch {
	case score >= t.CriticalMin:
		return entity.RiskLevelCritical
	case score >= t.HighMin:
		return entity.RiskLevelHigh
	case score >= t.MediumMin:
		return entity.RiskLevelMedium
	default:
		return entity.RiskLevelLow
	}
}

// RiskScore is the result of scoring a likelihood/impact pair.
type RiskScore struct {
	Score int              `json:"score"`
	Level entity.RiskLevel `json:"level"`
}

// ComputeRiskScore maps a qualitative likelihood/impact pair onto a numeric
// score (likelihood value times impact value, range 1-25) and its level
// under the given threshold table. Deterministic and side-effect free;
// unrecognized ratings fail with entity.ErrInvalidInput.
func ComputeRiskScore(likelihood, impact entity.Rating, thresholds RiskThresholds) (RiskScore, error) {
	lv, err := likelihood.Value()
	if err != nil {
		return RiskScore{}, errors.Wrap(err, "likelihood")
	}
	iv, err := impact.Value()
	if err != nil {
		return RiskScore{}, errors.Wrap(err, "impact")
	}

	score := lv * iv
	return RiskScore{
		Score: score,
		Level: thresholds.Level(score),
	}, nil
}
