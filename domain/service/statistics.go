package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
	"github.com/KulbirJ/compliance-platform-sub000/domain/repository"
)

// DefaultDueSoonWindow is how far ahead deadline checks look when flagging
// mitigations and register entries as due soon.
const DefaultDueSoonWindow = 30 * 24 * time.Hour

// BreakdownItem is one bucket of a grouped count. Breakdowns are emitted in
// a fixed display order so report layouts stay stable across regenerations.
type BreakdownItem struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AssessmentStatistics is the read-only rollup for one compliance
// assessment.
type AssessmentStatistics struct {
	AssessmentID     uuid.UUID `json:"assessment_id"`
	TotalControls    int       `json:"total_controls"`
	AssessedControls int       `json:"assessed_controls"`

	CompletionPercent  float64 `json:"completion_percent"`
	ImplementationRate float64 `json:"implementation_rate"`

	// AverageComplianceScore is nil when no assessed entry carries a score.
	AverageComplianceScore *float64 `json:"average_compliance_score,omitempty"`
	AverageMaturity        *float64 `json:"average_maturity,omitempty"`

	StatusBreakdown []BreakdownItem `json:"status_breakdown"`
	AtRiskControls  int             `json:"at_risk_controls"`

	RegisterOpen            int             `json:"register_open"`
	RegisterOverdue         int             `json:"register_overdue"`
	RegisterDueSoon         int             `json:"register_due_soon"`
	RegisterStatusBreakdown []BreakdownItem `json:"register_status_breakdown"`
}

// ThreatModelStatistics is the read-only rollup for one threat model.
type ThreatModelStatistics struct {
	ModelID      uuid.UUID `json:"model_id"`
	TotalThreats int       `json:"total_threats"`

	MitigationCoverage float64 `json:"mitigation_coverage"`

	CategoryBreakdown []BreakdownItem `json:"category_breakdown"`
	StatusBreakdown   []BreakdownItem `json:"status_breakdown"`
	LevelBreakdown    []BreakdownItem `json:"level_breakdown"`

	TotalMitigations          int             `json:"total_mitigations"`
	MitigationStatusBreakdown []BreakdownItem `json:"mitigation_status_breakdown"`
	PriorityBreakdown         []BreakdownItem `json:"priority_breakdown"`

	// EffectivenessAverage is nil when no mitigation carries a rating;
	// callers render this as "no data", never as 0.
	EffectivenessAverage *float64 `json:"effectiveness_average,omitempty"`

	OverdueMitigations int `json:"overdue_mitigations"`
	DueSoonMitigations int `json:"due_soon_mitigations"`

	EarlyStageThreats int `json:"early_stage_threats"`
}

// StatisticsAggregator computes derived metrics over assessment and threat
// records. It performs only reads, never fails on empty inputs (every
// percentage defaults to 0 and every average to "no data"), and surfaces
// entity.ErrNotFound only for unknown subject identifiers.
type StatisticsAggregator struct {
	logger      *zap.Logger
	assessments repository.AssessmentRepository
	threats     repository.ThreatRepository
	registers   repository.RegisterRepository

	dueSoonWindow time.Duration
	now           func() time.Time
}

// NewStatisticsAggregator creates a statistics aggregator.
func NewStatisticsAggregator(
	logger *zap.Logger,
	assessments repository.AssessmentRepository,
	threats repository.ThreatRepository,
	registers repository.RegisterRepository,
) *StatisticsAggregator {
	return &StatisticsAggregator{
		logger:        logger,
		assessments:   assessments,
		threats:       threats,
		registers:     registers,
		dueSoonWindow: DefaultDueSoonWindow,
		now:           time.Now,
	}
}

// WithDueSoonWindow overrides the due-soon lookahead window.
func (a *StatisticsAggregator) WithDueSoonWindow(window time.Duration) *StatisticsAggregator {
	a.dueSoonWindow = window
	return a
}

// WithClock overrides the time source. Used by tests.
func (a *StatisticsAggregator) WithClock(now func() time.Time) *StatisticsAggregator {
	a.now = now
	return a
}

// AssessmentStatistics computes the rollup for one assessment.
func (a *StatisticsAggregator) AssessmentStatistics(ctx context.Context, assessmentID uuid.UUID) (*AssessmentStatistics, error) {
	if _, err := a.assessments.GetAssessment(ctx, assessmentID); err != nil {
		return nil, errors.Wrapf(err, "assessment %s", assessmentID)
	}

	total, err := a.assessments.CountControls(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "count controls")
	}

	assessed, err := a.assessments.ListControlAssessments(ctx, assessmentID)
	if err != nil {
		return nil, errors.Wrap(err, "list control assessments")
	}

	entries, err := a.registers.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, errors.Wrap(err, "list register entries")
	}

	stats := &AssessmentStatistics{
		AssessmentID:           assessmentID,
		TotalControls:          total,
		AssessedControls:       len(assessed),
		CompletionPercent:      CompletionPercent(len(assessed), total),
		ImplementationRate:     ImplementationRate(assessed),
		AverageComplianceScore: averageComplianceScore(assessed),
		AverageMaturity:        averageMaturity(assessed),
		StatusBreakdown:        controlStatusBreakdown(assessed),
	}

	for _, ca := range assessed {
		if ca.Status == entity.StatusAtRisk {
			stats.AtRiskControls++
		}
	}

	now := a.now()
	for _, e := range entries {
		if e.Status.IsOpen() {
			stats.RegisterOpen++
		}
		if e.IsOverdue(now) {
			stats.RegisterOverdue++
		}
		if e.IsDueSoon(now, a.dueSoonWindow) {
			stats.RegisterDueSoon++
		}
	}
	stats.RegisterStatusBreakdown = registerStatusBreakdown(entries)

	a.logger.Debug("computed assessment statistics",
		zap.String("assessment_id", assessmentID.String()),
		zap.Int("assessed", stats.AssessedControls),
		zap.Float64("completion_percent", stats.CompletionPercent))

	return stats, nil
}

// ThreatModelStatistics computes the rollup for one threat model.
func (a *StatisticsAggregator) ThreatModelStatistics(ctx context.Context, modelID uuid.UUID) (*ThreatModelStatistics, error) {
	if _, err := a.threats.GetModel(ctx, modelID); err != nil {
		return nil, errors.Wrapf(err, "threat model %s", modelID)
	}

	threats, err := a.threats.ListThreats(ctx, modelID)
	if err != nil {
		return nil, errors.Wrap(err, "list threats")
	}

	mitigationsByThreat, err := a.threats.ListMitigationsByModel(ctx, modelID)
	if err != nil {
		return nil, errors.Wrap(err, "list mitigations")
	}

	var mitigations []*entity.Mitigation
	for _, ms := range mitigationsByThreat {
		mitigations = append(mitigations, ms...)
	}

	stats := &ThreatModelStatistics{
		ModelID:                   modelID,
		TotalThreats:              len(threats),
		MitigationCoverage:        MitigationCoverage(threats),
		CategoryBreakdown:         categoryBreakdown(threats),
		StatusBreakdown:           threatStatusBreakdown(threats),
		LevelBreakdown:            levelBreakdown(threats),
		TotalMitigations:          len(mitigations),
		MitigationStatusBreakdown: mitigationStatusBreakdown(mitigations),
		PriorityBreakdown:         priorityBreakdown(mitigations),
		EffectivenessAverage:      EffectivenessAverage(mitigations),
	}

	for _, t := range threats {
		if t.Status.IsEarly() {
			stats.EarlyStageThreats++
		}
	}

	now := a.now()
	for _, m := range mitigations {
		if m.IsOverdue(now) {
			stats.OverdueMitigations++
		}
		if m.IsDueSoon(now, a.dueSoonWindow) {
			stats.DueSoonMitigations++
		}
	}

	a.logger.Debug("computed threat model statistics",
		zap.String("model_id", modelID.String()),
		zap.Int("threats", stats.TotalThreats),
		zap.Float64("coverage", stats.MitigationCoverage))

	return stats, nil
}

// CompletionPercent is the share of the control catalogue assessed so far,
// rounded to two decimals. Zero when the catalogue is empty.
func CompletionPercent(assessed, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(assessed) / float64(total) * 100)
}

// ImplementationRate is the share of assessed controls that are fully or
// largely implemented, rounded to the nearest integer. Zero when nothing
// has been assessed.
func ImplementationRate(assessed []*entity.ControlAssessment) float64 {
	if len(assessed) == 0 {
		return 0
	}
	implemented := 0
	for _, ca := range assessed {
		if ca.Status.CountsAsImplemented() {
			implemented++
		}
	}
	return math.Round(float64(implemented) / float64(len(assessed)) * 100)
}

// MitigationCoverage is the share of threats in a terminal state (mitigated
// or accepted), rounded to the nearest integer. Zero when no threats exist.
func MitigationCoverage(threats []*entity.Threat) float64 {
	if len(threats) == 0 {
		return 0
	}
	terminal := 0
	for _, t := range threats {
		if t.Status.IsTerminal() {
			terminal++
		}
	}
	return math.Round(float64(terminal) / float64(len(threats)) * 100)
}

// EffectivenessAverage is the mean effectiveness rating (low=1 .. excellent=4)
// over rated mitigations, rounded to two decimals. Nil when no mitigation
// carries a rating; absence of data is not a zero.
func EffectivenessAverage(mitigations []*entity.Mitigation) *float64 {
	sum, rated := 0, 0
	for _, m := range mitigations {
		if m.Effectiveness == nil {
			continue
		}
		v, err := m.Effectiveness.Value()
		if err != nil {
			continue
		}
		sum += v
		rated++
	}
	if rated == 0 {
		return nil
	}
	avg := round2(float64(sum) / float64(rated))
	return &avg
}

func averageComplianceScore(assessed []*entity.ControlAssessment) *float64 {
	sum, scored := 0.0, 0
	for _, ca := range assessed {
		if ca.ComplianceScore == nil {
			continue
		}
		sum += *ca.ComplianceScore
		scored++
	}
	if scored == 0 {
		return nil
	}
	avg := round2(sum / float64(scored))
	return &avg
}

func averageMaturity(assessed []*entity.ControlAssessment) *float64 {
	if len(assessed) == 0 {
		return nil
	}
	sum := 0
	for _, ca := range assessed {
		sum += ca.MaturityLevel
	}
	avg := round2(float64(sum) / float64(len(assessed)))
	return &avg
}

// Grouped breakdowns. Each is emitted in its taxonomy's fixed display
// order, including empty buckets, so downstream layouts never reshuffle.

func controlStatusBreakdown(assessed []*entity.ControlAssessment) []BreakdownItem {
	order := []entity.ImplementationStatus{
		entity.StatusNotImplemented,
		entity.StatusPartiallyImplemented,
		entity.StatusLargelyImplemented,
		entity.StatusFullyImplemented,
		entity.StatusNotApplicable,
		entity.StatusAtRisk,
	}
	counts := make(map[entity.ImplementationStatus]int)
	for _, ca := range assessed {
		counts[ca.Status]++
	}
	items := make([]BreakdownItem, 0, len(order))
	for _, s := range order {
		items = append(items, BreakdownItem{Label: string(s), Count: counts[s]})
	}
	return items
}

func categoryBreakdown(threats []*entity.Threat) []BreakdownItem {
	counts := make(map[entity.StrideCategory]int)
	for _, t := range threats {
		counts[t.Category]++
	}
	items := make([]BreakdownItem, 0, len(entity.StrideDisplayOrder))
	for _, c := range entity.StrideDisplayOrder {
		items = append(items, BreakdownItem{Label: string(c), Count: counts[c]})
	}
	return items
}

func threatStatusBreakdown(threats []*entity.Threat) []BreakdownItem {
	counts := make(map[entity.ThreatStatus]int)
	for _, t := range threats {
		counts[t.Status]++
	}
	items := make([]BreakdownItem, 0, len(entity.ThreatStatusDisplayOrder))
	for _, s := range entity.ThreatStatusDisplayOrder {
		items = append(items, BreakdownItem{Label: string(s), Count: counts[s]})
	}
	return items
}

func levelBreakdown(threats []*entity.Threat) []BreakdownItem {
	counts := make(map[entity.RiskLevel]int)
	for _, t := range threats {
		counts[t.RiskLevel]++
	}
	items := make([]BreakdownItem, 0, len(entity.RiskLevelDisplayOrder))
	for _, l := range entity.RiskLevelDisplayOrder {
		items = append(items, BreakdownItem{Label: string(l), Count: counts[l]})
	}
	return items
}

func mitigationStatusBreakdown(mitigations []*entity.Mitigation) []BreakdownItem {
	counts := make(map[entity.MitigationStatus]int)
	for _, m := range mitigations {
		counts[m.Status]++
	}
	items := make([]BreakdownItem, 0, len(entity.MitigationStatusDisplayOrder))
	for _, s := range entity.MitigationStatusDisplayOrder {
		items = append(items, BreakdownItem{Label: string(s), Count: counts[s]})
	}
	return items
}

func priorityBreakdown(mitigations []*entity.Mitigation) []BreakdownItem {
	counts := make(map[entity.MitigationPriority]int)
	for _, m := range mitigations {
		counts[m.Priority]++
	}
	items := make([]BreakdownItem, 0, len(entity.PriorityDisplayOrder))
	for _, p := range entity.PriorityDisplayOrder {
		items = append(items, BreakdownItem{Label: string(p), Count: counts[p]})
	}
	return items
}

func registerStatusBreakdown(entries []*entity.RiskRegisterEntry) []BreakdownItem {
	counts := make(map[entity.RegisterStatus]int)
	for _, e := range entries {
		counts[e.Status]++
	}
	items := make([]BreakdownItem, 0, len(entity.RegisterStatusDisplayOrder))
	for _, s := range entity.RegisterStatusDisplayOrder {
		items = append(items, BreakdownItem{Label: string(s), Count: counts[s]})
	}
	return items
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
