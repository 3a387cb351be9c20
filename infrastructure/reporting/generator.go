package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
	"github.com/KulbirJ/compliance-platform-sub000/domain/repository"
	"github.com/KulbirJ/compliance-platform-sub000/domain/service"
)

// DefaultBarWidth is the fixed width, in layout units, that distribution
// bar segments are scaled into.
const DefaultBarWidth = 100

// Generator assembles paginated report documents from aggregated statistics
// and raw entity lists. It has no side effects beyond its return value;
// persisting the document is the caller's concern.
type Generator struct {
	logger      *zap.Logger
	aggregator  *service.StatisticsAggregator
	assessments repository.AssessmentRepository
	threats     repository.ThreatRepository
	registers   repository.RegisterRepository

	pageHeight  int
	barWidth    int
	generatedBy string
	now         func() time.Time
}

// NewGenerator creates a report generator.
func NewGenerator(
	logger *zap.Logger,
	aggregator *service.StatisticsAggregator,
	assessments repository.AssessmentRepository,
	threats repository.ThreatRepository,
	registers repository.RegisterRepository,
	generatedBy string,
) *Generator {
	return &Generator{
		logger:      logger,
		aggregator:  aggregator,
		assessments: assessments,
		threats:     threats,
		registers:   registers,
		pageHeight:  DefaultPageHeight,
		barWidth:    DefaultBarWidth,
		generatedBy: generatedBy,
		now:         time.Now,
	}
}

// WithPageHeight overrides the page content height. Used by tests.
func (g *Generator) WithPageHeight(h int) *Generator {
	g.pageHeight = h
	return g
}

// WithClock overrides the time source. Used by tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// GenerateAssessmentReport produces the report document for one compliance
// assessment. Fails with entity.ErrEmptyDataset when the assessment has no
// assessed controls.
func (g *Generator) GenerateAssessmentReport(ctx context.Context, assessmentID uuid.UUID, orgName string) (*entity.ReportDocument, error) {
	assessment, err := g.assessments.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, errors.Wrapf(err, "assessment %s", assessmentID)
	}

	assessed, err := g.assessments.ListControlAssessments(ctx, assessmentID)
	if err != nil {
		return nil, errors.Wrap(err, "list control assessments")
	}
	if len(assessed) == 0 {
		return nil, errors.Wrapf(entity.ErrEmptyDataset, "assessment %s has no assessed controls", assessmentID)
	}

	stats, err := g.aggregator.AssessmentStatistics(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	controls, err := g.assessments.ListControls(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list controls")
	}
	controlsByID := make(map[uuid.UUID]*entity.Control, len(controls))
	for _, c := range controls {
		controlsByID[c.ID] = c
	}

	entries, err := g.registers.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, errors.Wrap(err, "list register entries")
	}

	generatedAt := g.now()
	b := NewDocumentBuilder(g.pageHeight)

	b.Add(Block{Kind: BlockTitle, Height: heightTitleBlock, TitleInfo: &TitleInfo{
		Title:        "Compliance Assessment Report",
		Subtitle:     assessment.Name,
		Organization: orgName,
		GeneratedAt:  generatedAt,
		Headline:     fmt.Sprintf("%.2f%% complete", stats.CompletionPercent),
	}})

	g.addAssessmentSummary(b, stats)
	g.addControlFindings(b, assessed, controlsByID)
	g.addRecommendations(b, assessmentRecommendationInput(stats, entries))

	doc, err := g.render(b, assessmentID, entity.ReportTypeAssessment, generatedAt)
	if err != nil {
		return nil, err
	}

	g.logger.Info("assessment report generated",
		zap.String("assessment_id", assessmentID.String()),
		zap.Int("pages", len(b.Pages())),
		zap.Int64("size_bytes", doc.SizeBytes))

	return doc, nil
}

// GenerateThreatModelReport produces the report document for one threat
// model. Fails with entity.ErrEmptyDataset when the model has no threats.
func (g *Generator) GenerateThreatModelReport(ctx context.Context, modelID uuid.UUID, orgName string) (*entity.ReportDocument, error) {
	model, err := g.threats.GetModel(ctx, modelID)
	if err != nil {
		return nil, errors.Wrapf(err, "threat model %s", modelID)
	}

	var (
		threats     []*entity.Threat
		mitigations map[uuid.UUID][]*entity.Mitigation
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		threats, err = g.threats.ListThreats(egCtx, modelID)
		return errors.Wrap(err, "list threats")
	})
	eg.Go(func() error {
		var err error
		mitigations, err = g.threats.ListMitigationsByModel(egCtx, modelID)
		return errors.Wrap(err, "list mitigations")
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if len(threats) == 0 {
		return nil, errors.Wrapf(entity.ErrEmptyDataset, "threat model %s has no threats", modelID)
	}

	stats, err := g.aggregator.ThreatModelStatistics(ctx, modelID)
	if err != nil {
		return nil, err
	}

	generatedAt := g.now()
	b := NewDocumentBuilder(g.pageHeight)

	b.Add(Block{Kind: BlockTitle, Height: heightTitleBlock, TitleInfo: &TitleInfo{
		Title:        "Threat Model Report",
		Subtitle:     model.Name,
		Organization: orgName,
		GeneratedAt:  generatedAt,
		Headline:     fmt.Sprintf("%.0f%% mitigation coverage", stats.MitigationCoverage),
	}})

	g.addThreatModelSummary(b, stats)

	b.Add(Block{Kind: BlockSectionHeading, Height: heightSectionHeading, Text: "Risk Matrix"})
	b.Add(Block{
		Kind:   BlockMatrix,
		Height: heightMatrix,
		Matrix: BuildRiskMatrix(threats, service.AssessmentThresholds),
	})

	g.addThreatFindings(b, threats)
	g.addRecommendations(b, threatModelRecommendationInput(stats, threats, mitigations))

	doc, err := g.render(b, modelID, entity.ReportTypeThreatModel, generatedAt)
	if err != nil {
		return nil, err
	}

	g.logger.Info("threat model report generated",
		zap.String("model_id", modelID.String()),
		zap.Int("pages", len(b.Pages())),
		zap.Int64("size_bytes", doc.SizeBytes))

	return doc, nil
}

func (g *Generator) addAssessmentSummary(b *DocumentBuilder, stats *service.AssessmentStatistics) {
	b.Add(Block{Kind: BlockSectionHeading, Height: heightSectionHeading, Text: "Executive Summary"})

	avgCompliance := "no data"
	if stats.AverageComplianceScore != nil {
		avgCompliance = fmt.Sprintf("%.2f", *stats.AverageComplianceScore)
	}

	b.Add(Block{Kind: BlockSummaryCards, Height: heightSummaryCards, Cards: []SummaryCard{
		{Label: "Completion", Value: fmt.Sprintf("%.2f%%", stats.CompletionPercent)},
		{Label: "Implementation Rate", Value: fmt.Sprintf("%.0f%%", stats.ImplementationRate)},
		{Label: "Controls Assessed", Value: fmt.Sprintf("%d / %d", stats.AssessedControls, stats.TotalControls)},
		{Label: "At Risk", Value: fmt.Sprintf("%d", stats.AtRiskControls)},
		{Label: "Open Register Entries", Value: fmt.Sprintf("%d", stats.RegisterOpen)},
		{Label: "Avg. Compliance Score", Value: avgCompliance},
	}})

	if bar := g.buildBar("Implementation Status", stats.StatusBreakdown); bar != nil {
		b.Add(Block{Kind: BlockBar, Height: heightBar, Bar: bar})
	}
}

func (g *Generator) addThreatModelSummary(b *DocumentBuilder, stats *service.ThreatModelStatistics) {
	b.Add(Block{Kind: BlockSectionHeading, Height: heightSectionHeading, Text: "Executive Summary"})

	effectiveness := "no data"
	if stats.EffectivenessAverage != nil {
		effectiveness = fmt.Sprintf("%.2f / 4", *stats.EffectivenessAverage)
	}

	b.Add(Block{Kind: BlockSummaryCards, Height: heightSummaryCards, Cards: []SummaryCard{
		{Label: "Threats", Value: fmt.Sprintf("%d", stats.TotalThreats)},
		{Label: "Mitigation Coverage", Value: fmt.Sprintf("%.0f%%", stats.MitigationCoverage)},
		{Label: "Mitigations", Value: fmt.Sprintf("%d", stats.TotalMitigations)},
		{Label: "Avg. Effectiveness", Value: effectiveness},
		{Label: "Overdue Mitigations", Value: fmt.Sprintf("%d", stats.OverdueMitigations)},
		{Label: "Due Within 30 Days", Value: fmt.Sprintf("%d", stats.DueSoonMitigations)},
	}})

	if bar := g.buildBar("Risk Levels", stats.LevelBreakdown); bar != nil {
		b.Add(Block{Kind: BlockBar, Height: heightBar, Bar: bar})
	}
}

// buildBar scales a breakdown into a fixed-width proportional bar. Buckets
// with zero count are omitted rather than rendered as empty segments; a
// fully empty breakdown yields no bar at all.
func (g *Generator) buildBar(title string, breakdown []service.BreakdownItem) *DistributionBar {
	total := 0
	for _, item := range breakdown {
		total += item.Count
	}
	if total == 0 {
		return nil
	}

	bar := &DistributionBar{Title: title, Total: total}
	for _, item := range breakdown {
		if item.Count == 0 {
			continue
		}
		width := item.Count * g.barWidth / total
		if width < 1 {
			width = 1
		}
		bar.Segments = append(bar.Segments, BarSegment{
			Label: item.Label,
			Count: item.Count,
			Width: width,
		})
	}
	return bar
}

func (g *Generator) addThreatFindings(b *DocumentBuilder, threats []*entity.Threat) {
	b.Add(Block{Kind: BlockSectionHeading, Height: heightSectionHeading, Text: "Findings by STRIDE Category"})

	byCategory := make(map[entity.StrideCategory][]*entity.Threat)
	for _, t := range threats {
		byCategory[t.Category] = append(byCategory[t.Category], t)
	}

	for _, category := range entity.StrideDisplayOrder {
		group := byCategory[category]
		if len(group) == 0 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].RiskScore != group[j].RiskScore {
				return group[i].RiskScore > group[j].RiskScore
			}
			return group[i].UpdatedAt.After(group[j].UpdatedAt)
		})

		b.Add(Block{Kind: BlockGroupHeading, Height: heightGroupHeading, Text: strideLabel(category)})
		for _, t := range group {
			b.Add(Block{Kind: BlockFinding, Height: heightFinding, Finding: &Finding{
				Name:     t.Name,
				Detail:   fmt.Sprintf("%s, likelihood %s, impact %s", t.Status, t.Likelihood, t.Impact),
				Level:    string(t.RiskLevel),
				Score:    t.RiskScore,
				HasScore: true,
			}})
		}
	}
}

func (g *Generator) addControlFindings(b *DocumentBuilder, assessed []*entity.ControlAssessment, controls map[uuid.UUID]*entity.Control) {
	b.Add(Block{Kind: BlockSectionHeading, Height: heightSectionHeading, Text: "Findings by NIST Function"})

	byFunction := make(map[entity.NISTFunction][]*entity.ControlAssessment)
	for _, ca := range assessed {
		fn := entity.FunctionIdentify
		if c, ok := controls[ca.ControlID]; ok {
			fn = c.Function
		}
		byFunction[fn] = append(byFunction[fn], ca)
	}

	for _, fn := range entity.NISTFunctionDisplayOrder {
		group := byFunction[fn]
		if len(group) == 0 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			ri, rj := statusSeverityRank(group[i].Status), statusSeverityRank(group[j].Status)
			if ri != rj {
				return ri < rj
			}
			return group[i].AssessedAt.After(group[j].AssessedAt)
		})

		b.Add(Block{Kind: BlockGroupHeading, Height: heightGroupHeading, Text: functionLabel(fn)})
		for _, ca := range group {
			name := ca.ControlID.String()
			if c, ok := controls[ca.ControlID]; ok {
				name = fmt.Sprintf("%s %s", c.Code, c.Name)
			}
			detail := string(ca.Status)
			if ca.ComplianceScore != nil {
				detail = fmt.Sprintf("%s, compliance %.0f", detail, *ca.ComplianceScore)
			}
			b.Add(Block{Kind: BlockFinding, Height: heightFinding, Finding: &Finding{
				Name:   name,
				Detail: detail,
				Level:  string(ca.Status),
			}})
		}
	}
}

func (g *Generator) addRecommendations(b *DocumentBuilder, in RecommendationInput) {
	b.Add(Block{Kind: BlockSectionHeading, Height: heightSectionHeading, Text: "Recommendations"})
	recs := BuildRecommendations(in)
	for i := range recs {
		rec := recs[i]
		if rec.Priority == "Info" {
			b.Add(Block{Kind: BlockStatement, Height: heightStatement, Text: rec.Message})
			continue
		}
		b.Add(Block{Kind: BlockRecommendation, Height: heightRecommendation, Recommendation: &rec})
	}
}

func (g *Generator) render(b *DocumentBuilder, subjectID uuid.UUID, reportType entity.ReportType, generatedAt time.Time) (*entity.ReportDocument, error) {
	content, err := RenderHTML(b.Pages())
	if err != nil {
		return nil, err
	}
	return &entity.ReportDocument{
		ID:          uuid.New(),
		SubjectID:   subjectID,
		Type:        reportType,
		Format:      "html",
		GeneratedBy: g.generatedBy,
		SizeBytes:   int64(len(content)),
		Content:     content,
		GeneratedAt: generatedAt,
	}, nil
}

// threatModelRecommendationInput derives the rule-pass signals for a threat
// model from its stats, threats, and mitigations.
func threatModelRecommendationInput(stats *service.ThreatModelStatistics, threats []*entity.Threat, mitigations map[uuid.UUID][]*entity.Mitigation) RecommendationInput {
	in := RecommendationInput{
		CoveragePercent: stats.MitigationCoverage,
		TotalEntities:   stats.TotalThreats,
		EarlyStage:      stats.EarlyStageThreats,
		EntityNoun:      "threat",
	}

	for _, t := range threats {
		ms := mitigations[t.ID]
		switch {
		case t.RiskScore >= 20 && len(ms) == 0:
			in.CriticalUnremediated++
		case t.RiskScore >= 12 && t.RiskScore < 20:
			implemented := false
			for _, m := range ms {
				if m.Status.IsImplemented() {
					implemented = true
					break
				}
			}
			if !implemented {
				in.HighUnremediated++
			}
		}
	}

	for _, ms := range mitigations {
		for _, m := range ms {
			switch m.Status {
			case entity.MitigationStatusProposed, entity.MitigationStatusApproved:
				in.ProposedOrApproved++
			case entity.MitigationStatusInProgress:
				in.InProgress++
			}
		}
	}

	return in
}

// assessmentRecommendationInput derives the rule-pass signals for an
// assessment from its stats and register entries.
func assessmentRecommendationInput(stats *service.AssessmentStatistics, entries []*entity.RiskRegisterEntry) RecommendationInput {
	in := RecommendationInput{
		CoveragePercent: stats.ImplementationRate,
		TotalEntities:   len(entries),
		EntityNoun:      "control",
	}

	for _, e := range entries {
		switch {
		case e.RiskScore >= 20 && e.Status == entity.RegisterStatusNotStarted:
			in.CriticalUnremediated++
		case e.RiskScore >= 12 && e.RiskScore < 20 && e.Status != entity.RegisterStatusCompleted:
			in.HighUnremediated++
		}
		switch e.Status {
		case entity.RegisterStatusNotStarted:
			in.EarlyStage++
			in.ProposedOrApproved++
		case entity.RegisterStatusInProgress:
			in.InProgress++
		}
	}

	return in
}

// statusSeverityRank orders control findings worst-first within a group.
func statusSeverityRank(s entity.ImplementationStatus) int {
	switch s {
	case entity.StatusAtRisk:
		return 0
	case entity.StatusNotImplemented:
		return 1
	case entity.StatusPartiallyImplemented:
		return 2
	case entity.StatusLargelyImplemented:
		return 3
	case entity.StatusFullyImplemented:
		return 4
	default:
		return 5
	}
}

func strideLabel(c entity.StrideCategory) string {
	switch c {
	case entity.StrideSpoofing:
		return "Spoofing"
	case entity.StrideTampering:
		return "Tampering"
	case entity.StrideRepudiation:
		return "Repudiation"
	case entity.StrideInformationDisclosure:
		return "Information Disclosure"
	case entity.StrideDenialOfService:
		return "Denial of Service"
	case entity.StrideElevationOfPrivilege:
		return "Elevation of Privilege"
	default:
		return string(c)
	}
}

func functionLabel(fn entity.NISTFunction) string {
	switch fn {
	case entity.FunctionIdentify:
		return "Identify"
	case entity.FunctionProtect:
		return "Protect"
	case entity.FunctionDetect:
		return "Detect"
	case entity.FunctionRespond:
		return "Respond"
	case entity.FunctionRecover:
		return "Recover"
	default:
		return string(fn)
	}
}
