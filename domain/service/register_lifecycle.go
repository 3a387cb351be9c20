package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
	"github.com/KulbirJ/compliance-platform-sub000/domain/repository"
)

// ControlStatusEvent describes one control-status change within an
// assessment. The write path that persists the control entry emits the
// event; the lifecycle manager consumes it. Keeping the trigger out of the
// write itself lets the lifecycle be exercised without a full write path.
type ControlStatusEvent struct {
	AssessmentID uuid.UUID                   `json:"assessment_id"`
	ControlID    uuid.UUID                   `json:"control_id"`
	Previous     entity.ImplementationStatus `json:"previous"`
	Current      entity.ImplementationStatus `json:"current"`

	// Assessor context used to seed auto-created entries.
	Notes              string `json:"notes,omitempty"`
	ControlName        string `json:"control_name"`
	ControlDescription string `json:"control_description,omitempty"`
	Actor              string `json:"actor"`

	OccurredAt time.Time `json:"occurred_at"`
}

// LifecycleOutcome reports what the lifecycle manager did with one event.
type LifecycleOutcome struct {
	CreatedEntryID    string   `json:"created_entry_id,omitempty"`
	CompletedEntryIDs []string `json:"completed_entry_ids,omitempty"`
}

// RegisterDefaults seeds auto-created register entries. The 4/4 default is
// a conservative placeholder pending product clarification, so it is
// configuration rather than a constant.
type RegisterDefaults struct {
	Likelihood entity.Rating
	Impact     entity.Rating
}

// DefaultRegisterDefaults returns the stock seed ratings.
func DefaultRegisterDefaults() RegisterDefaults {
	return RegisterDefaults{
		Likelihood: entity.RatingHigh,
		Impact:     entity.RatingHigh,
	}
}

// RegisterLifecycle manages risk register entries: auto-creation when a
// control goes at risk, auto-completion when it recovers, and manual
// updates with score recomputation. All scoring uses the register threshold
// preset.
type RegisterLifecycle struct {
	logger     *zap.Logger
	registers  repository.RegisterRepository
	thresholds RiskThresholds
	defaults   RegisterDefaults
	now        func() time.Time
}

// NewRegisterLifecycle creates a register lifecycle manager.
func NewRegisterLifecycle(logger *zap.Logger, registers repository.RegisterRepository, defaults RegisterDefaults) *RegisterLifecycle {
	return &RegisterLifecycle{
		logger:     logger,
		registers:  registers,
		thresholds: RegisterThresholds,
		defaults:   defaults,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (l *RegisterLifecycle) WithClock(now func() time.Time) *RegisterLifecycle {
	l.now = now
	return l
}

// HandleControlStatus applies one control-status event to the register.
// A transition into at_risk creates an entry unless an open one already
// exists for the pair; a transition out of at_risk completes any open
// entries, and is a no-op when none exist. The whole decision runs inside a
// storage transaction keyed on the (assessment, control) pair so concurrent
// events cannot create duplicates or leave an entry permanently open.
func (l *RegisterLifecycle) HandleControlStatus(ctx context.Context, ev ControlStatusEvent) (*LifecycleOutcome, error) {
	if !ev.Current.IsValid() {
		return nil, errors.Wrapf(entity.ErrInvalidInput, "unknown control status %q", string(ev.Current))
	}

	outcome := &LifecycleOutcome{}

	enteringRisk := ev.Current == entity.StatusAtRisk
	leavingRisk := ev.Previous == entity.StatusAtRisk && ev.Current != entity.StatusAtRisk
	if !enteringRisk && !leavingRisk {
		return outcome, nil
	}

	err := l.registers.WithinTx(ctx, ev.AssessmentID, ev.ControlID, func(tx repository.RegisterRepository) error {
		open, err := tx.ListOpenByControl(ctx, ev.AssessmentID, ev.ControlID)
		if err != nil {
			return errors.Wrap(err, "list open entries")
		}

		if enteringRisk {
			if len(open) > 0 {
				// Re-flagging an already at-risk control is idempotent.
				return nil
			}
			entry, err := l.buildEntry(ev)
			if err != nil {
				return err
			}
			if err := tx.Create(ctx, entry); err != nil {
				return errors.Wrap(err, "create register entry")
			}
			outcome.CreatedEntryID = entry.EntryID
			return nil
		}

		for _, e := range open {
			e.Status = entity.RegisterStatusCompleted
			e.UpdatedAt = l.now()
			if err := tx.Update(ctx, e); err != nil {
				return errors.Wrapf(err, "complete register entry %s", e.EntryID)
			}
			outcome.CompletedEntryIDs = append(outcome.CompletedEntryIDs, e.EntryID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.CreatedEntryID != "" {
		l.logger.Info("register entry auto-created",
			zap.String("entry_id", outcome.CreatedEntryID),
			zap.String("assessment_id", ev.AssessmentID.String()),
			zap.String("control_id", ev.ControlID.String()))
	}
	if len(outcome.CompletedEntryIDs) > 0 {
		l.logger.Info("register entries auto-completed",
			zap.Strings("entry_ids", outcome.CompletedEntryIDs),
			zap.String("assessment_id", ev.AssessmentID.String()),
			zap.String("control_id", ev.ControlID.String()))
	}

	return outcome, nil
}

func (l *RegisterLifecycle) buildEntry(ev ControlStatusEvent) (*entity.RiskRegisterEntry, error) {
	score, err := ComputeRiskScore(l.defaults.Likelihood, l.defaults.Impact, l.thresholds)
	if err != nil {
		return nil, errors.Wrap(err, "default ratings")
	}

	description := strings.TrimSpace(ev.Notes)
	if description == "" {
		description = strings.TrimSpace(ev.ControlName + ": " + ev.ControlDescription)
	}

	now := l.now()
	return &entity.RiskRegisterEntry{
		ID:           uuid.New(),
		EntryID:      l.newEntryID(now),
		AssessmentID: &ev.AssessmentID,
		ControlID:    &ev.ControlID,
		Title:        fmt.Sprintf("Control at risk: %s", ev.ControlName),
		Description:  description,
		Likelihood:   l.defaults.Likelihood,
		Impact:       l.defaults.Impact,
		RiskScore:    score.Score,
		RiskLevel:    score.Level,
		Status:       entity.RegisterStatusNotStarted,
		Owner:        ev.Actor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// newEntryID generates a human-readable, collision-resistant identifier.
func (l *RegisterLifecycle) newEntryID(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("RISK-%s-%s", now.UTC().Format("20060102150405"), suffix)
}

// UpdateEntry applies a manual partial update. Score and level are
// recomputed only when both members of the likelihood/impact pair are set
// after the merge, and likewise for the residual pair; updating one half of
// a pair leaves the derived values untouched.
func (l *RegisterLifecycle) UpdateEntry(ctx context.Context, id uuid.UUID, update entity.RegisterUpdate) (*entity.RiskRegisterEntry, error) {
	e, err := l.registers.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "register entry %s", id)
	}

	if update.Title != nil {
		e.Title = *update.Title
	}
	if update.Description != nil {
		e.Description = *update.Description
	}
	if update.Strategy != nil {
		if !update.Strategy.IsValid() {
			return nil, errors.Wrapf(entity.ErrInvalidInput, "unknown mitigation strategy %q", string(*update.Strategy))
		}
		e.Strategy = *update.Strategy
	}
	if update.Owner != nil {
		e.Owner = *update.Owner
	}
	if update.Deadline != nil {
		e.Deadline = update.Deadline
	}
	if update.Notes != nil {
		e.Notes = *update.Notes
	}
	if update.Status != nil {
		if !update.Status.IsValid() {
			return nil, errors.Wrapf(entity.ErrInvalidInput, "unknown register status %q", string(*update.Status))
		}
		e.Status = *update.Status
	}

	if update.Likelihood != nil {
		e.Likelihood = *update.Likelihood
	}
	if update.Impact != nil {
		e.Impact = *update.Impact
	}
	if update.Likelihood != nil || update.Impact != nil {
		score, err := ComputeRiskScore(e.Likelihood, e.Impact, l.thresholds)
		if err != nil {
			return nil, err
		}
		e.RiskScore = score.Score
		e.RiskLevel = score.Level
	}

	if update.ResidualLikelihood != nil {
		e.ResidualLikelihood = update.ResidualLikelihood
	}
	if update.ResidualImpact != nil {
		e.ResidualImpact = update.ResidualImpact
	}
	if (update.ResidualLikelihood != nil || update.ResidualImpact != nil) &&
		e.ResidualLikelihood != nil && e.ResidualImpact != nil {
		score, err := ComputeRiskScore(*e.ResidualLikelihood, *e.ResidualImpact, l.thresholds)
		if err != nil {
			return nil, err
		}
		e.ResidualScore = &score.Score
		e.ResidualLevel = &score.Level
	}

	e.UpdatedAt = l.now()
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := l.registers.Update(ctx, e); err != nil {
		return nil, errors.Wrapf(err, "update register entry %s", id)
	}
	return e, nil
}

// DeleteEntry removes an entry permanently and returns the removed record.
// Only reachable through the manual path, never from auto transitions.
func (l *RegisterLifecycle) DeleteEntry(ctx context.Context, id uuid.UUID) (*entity.RiskRegisterEntry, error) {
	e, err := l.registers.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "register entry %s", id)
	}
	if err := l.registers.Delete(ctx, id); err != nil {
		return nil, errors.Wrapf(err, "delete register entry %s", id)
	}
	l.logger.Info("register entry deleted",
		zap.String("id", id.String()),
		zap.String("entry_id", e.EntryID))
	return e, nil
}
