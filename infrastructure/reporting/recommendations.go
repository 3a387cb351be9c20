package reporting

import "fmt"

// RecommendationInput carries the aggregated signals the rule pass
// evaluates. Each report type computes these from its own entities: for
// threat models the remediation unit is a mitigation, for assessments it is
// the risk register treatment of an at-risk control.
type RecommendationInput struct {
	// Entities at critical risk (score >= 20) with no remediation attached.
	CriticalUnremediated int

	// Entities at high risk (12-19) lacking an implemented or verified
	// remediation.
	HighUnremediated int

	// Overall remediation coverage percentage.
	CoveragePercent float64

	// Remediation pipeline counts for the resourcing signal.
	ProposedOrApproved int
	InProgress         int

	// Share of entities still in an early lifecycle status.
	TotalEntities int
	EarlyStage    int

	// Noun used in generated messages ("threat" or "control").
	EntityNoun string
}

// BuildRecommendations runs the rule pass in fixed priority order. Rules
// are independent: each contributes zero or more lines and none suppresses
// another. When no rule fires, a single positive statement is returned so
// the section is never empty.
func BuildRecommendations(in RecommendationInput) []Recommendation {
	noun := in.EntityNoun
	if noun == "" {
		noun = "finding"
	}

	var recs []Recommendation

	if in.CriticalUnremediated > 0 {
		recs = append(recs, Recommendation{
			Priority: "Critical",
			Title:    "Address critical-risk exposure immediately",
			Message: fmt.Sprintf("%d critical-risk %s have no remediation in place. Define and assign treatment for each before the next review cycle.",
				in.CriticalUnremediated, plural(noun, in.CriticalUnremediated)),
		})
	}

	if in.HighUnremediated > 0 {
		recs = append(recs, Recommendation{
			Priority: "High",
			Title:    "Close the gap on high-risk items",
			Message: fmt.Sprintf("%d high-risk %s lack an implemented or verified remediation. Prioritize completing treatment for these items.",
				in.HighUnremediated, plural(noun, in.HighUnremediated)),
		})
	}

	if in.CoveragePercent < 50 {
		recs = append(recs, Recommendation{
			Priority: "High",
			Title:    "Raise overall remediation coverage",
			Message: fmt.Sprintf("Overall remediation coverage is %.0f%%, below the 50%% floor. Broaden treatment across the full set of open items.",
				in.CoveragePercent),
		})
	}

	if in.InProgress*2 < in.ProposedOrApproved {
		recs = append(recs, Recommendation{
			Priority: "Medium",
			Title:    "Review remediation resourcing",
			Message: fmt.Sprintf("%d remediations are proposed or approved against only %d in progress. The backlog is outpacing execution; review ownership and capacity.",
				in.ProposedOrApproved, in.InProgress),
		})
	}

	if in.TotalEntities > 0 && float64(in.EarlyStage)/float64(in.TotalEntities) > 0.3 {
		recs = append(recs, Recommendation{
			Priority: "Medium",
			Title:    "Progress early-stage analysis",
			Message: fmt.Sprintf("%d of %d %s are still in an early lifecycle stage. Schedule analysis sessions to move them toward treatment.",
				in.EarlyStage, in.TotalEntities, plural(noun, in.TotalEntities)),
		})
	}

	if len(recs) == 0 {
		recs = append(recs, Recommendation{
			Priority: "Info",
			Title:    "Posture fully addressed",
			Message:  fmt.Sprintf("All identified %s are adequately remediated. Maintain the current review cadence.", plural(noun, 2)),
		})
	}

	return recs
}

func plural(noun string, n int) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
