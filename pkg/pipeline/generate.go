package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	shared "github.com/ripixel/fitplan-server/pkg"
	"github.com/ripixel/fitplan-server/pkg/domain/calendar"
	"github.com/ripixel/fitplan-server/pkg/domain/periodization"
	"github.com/ripixel/fitplan-server/pkg/domain/profile"
	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/generator"
	infrapubsub "github.com/ripixel/fitplan-server/pkg/infrastructure/pubsub"
	"github.com/ripixel/fitplan-server/pkg/types"
	"github.com/ripixel/fitplan-server/pkg/validator"
)

// GenerationResult is returned by Generate.
type GenerationResult struct {
	Program   *types.Program `json:"program"`
	Strategy  string         `json:"strategy"`
	Events    int            `json:"events"`
	Archived  string         `json:"archivedProgramId,omitempty"`
	Warnings  []string       `json:"warnings,omitempty"`
	Artifacts []string       `json:"artifacts,omitempty"`
}

// Generate builds, persists and propagates a new active program for the
// profile's user. A request arriving while another for the same user is
// running in this process waits for it and is then rejected with
// ErrGenerationInProgress; across processes a store lock does the same.
func (p *Pipeline) Generate(ctx context.Context, prof types.UserProfile) (*GenerationResult, error) {
	userID := strings.TrimSpace(prof.UserID)
	if userID == "" {
		return nil, apperrors.ErrInvalidArgument.WithMessage("userId is required")
	}
	prof.UserID = userID

	if err := p.limiter.Check(userID); err != nil {
		p.logger.Warn("Generation throttled", "user_id", userID)
		return nil, err
	}

	led := false
	v, err, _ := p.inflight.Do(userID, func() (interface{}, error) {
		led = true
		return p.generateLocked(ctx, prof)
	})
	if !led {
		p.logger.Info("Rejected concurrent generation", "user_id", userID)
		return nil, apperrors.ErrGenerationInProgress.WithMetadata("user_id", userID)
	}
	if err != nil {
		return nil, err
	}
	return v.(*GenerationResult), nil
}

func (p *Pipeline) generateLocked(ctx context.Context, prof types.UserProfile) (*GenerationResult, error) {
	key := "generate:" + prof.UserID
	owner := uuid.NewString()
	ok, err := p.db.AcquireLock(ctx, key, owner, p.lockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrGenerationInProgress.WithMetadata("user_id", prof.UserID)
	}
	defer func() {
		if err := p.db.ReleaseLock(context.WithoutCancel(ctx), key, owner); err != nil {
			p.logger.Warn("Failed to release generation lock", "user_id", prof.UserID, "error", err)
		}
	}()

	return p.generate(ctx, prof)
}

func (p *Pipeline) generate(ctx context.Context, prof types.UserProfile) (*GenerationResult, error) {
	uc := profile.Aggregate(prof)
	logger := p.logger.With("user_id", uc.UserID)

	prog, warnings, err := p.candidate(ctx, uc)
	if err != nil {
		return nil, err
	}

	now := p.now()
	prog.ID = uuid.NewString()
	prog.UserID = uc.UserID
	prog.Status = types.ProgramStatusActive
	prog.StartDate = p.startDate(prof.StartDate, now)
	prog.CurrentWeek = clampWeek(periodization.WeekAt(prog.StartDate, now), prog.DurationWeeks)
	prog.AIGenerated = prog.Strategy == generator.StrategyExternal
	prog.CreatedAt = now
	prog.UpdatedAt = now
	periodization.Annotate(prog)

	prior, err := p.db.GetActiveProgram(ctx, uc.UserID)
	if err != nil && !stderrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	// The previous program is archived before the new one is written so a
	// user never holds two active programs. Its future schedule is cleared
	// in the same batch that writes the new one.
	var retired []string
	if prior != nil {
		archived := types.ProgramStatusArchived
		if err := p.db.UpdateProgram(ctx, prior.ID, types.ProgramUpdate{Status: &archived}); err != nil {
			return nil, err
		}
		today := calendar.DateString(now, p.loc)
		stale, err := p.db.ListProgramEvents(ctx, prior.ID, today)
		if err != nil {
			p.reactivate(ctx, prior.ID)
			return nil, err
		}
		_, retired = calendar.Reconcile(stale, nil, today)
	}

	if err := p.db.CreateProgram(ctx, prog); err != nil {
		if prior != nil {
			p.reactivate(ctx, prior.ID)
		}
		return nil, err
	}
	logger = logger.With("program_id", prog.ID)
	logger.Info("Program created", "strategy", prog.Strategy, "weeks", prog.DurationWeeks, "days", prog.DaysPerWeek)

	result := &GenerationResult{Program: prog, Strategy: prog.Strategy, Warnings: warnings}
	if prior != nil {
		result.Archived = prior.ID
		logger.Info("Archived previous program", "previous_program_id", prior.ID, "events_removed", len(retired))
	}

	upserts, _, err := p.apply(ctx, prog, nil, retired)
	if err != nil {
		return nil, err
	}
	result.Events = upserts

	p.publish(ctx, shared.TopicProgramGenerated, shared.EventTypeProgramGenerated, prog.ID, types.ProgramEvent{
		ProgramID: prog.ID,
		UserID:    prog.UserID,
		Strategy:  prog.Strategy,
		Events:    upserts,
	})

	if p.store != nil && p.bucket != "" {
		objects, err := p.exportArtifacts(ctx, prog)
		if err != nil {
			logger.Warn("Artifact export failed", "error", err)
		}
		result.Artifacts = objects
	}

	return result, nil
}

// reactivate restores an archived program after a failed replacement.
func (p *Pipeline) reactivate(ctx context.Context, programID string) {
	active := types.ProgramStatusActive
	if err := p.db.UpdateProgram(context.WithoutCancel(ctx), programID, types.ProgramUpdate{Status: &active}); err != nil {
		p.logger.Error("Failed to restore previous program", "program_id", programID, "error", err)
	}
}

// candidate tries external generation first and falls back to deterministic
// synthesis on any failure. Excluded exercises in an external program are
// swapped for catalog substitutes before it is accepted. A fallback program that fails validation is a
// defect and is reported as an internal error.
func (p *Pipeline) candidate(ctx context.Context, uc types.UserContext) (*types.Program, []string, error) {
	logger := p.logger.With("user_id", uc.UserID)

	if p.external != nil {
		prog, err := p.external.Generate(ctx, uc)
		switch {
		case err != nil:
			logger.Warn("Falling back to deterministic synthesis", "reason", apperrors.GetCode(err), "error", err)
		default:
			res := validator.Validate(prog, uc.DaysPerWeek)
			var swaps []string
			if res.OK {
				var removed bool
				swaps, removed = p.fallback.ReplaceExcluded(prog, uc)
				if removed {
					res = validator.Validate(prog, uc.DaysPerWeek)
				}
			}
			for _, w := range res.Warnings {
				logger.Warn("Generated program warning", "warning", w)
			}
			for _, w := range swaps {
				logger.Info("Adjusted generated program", "change", w)
			}
			if res.OK {
				prog.Strategy = generator.StrategyExternal
				return prog, append(res.Warnings, swaps...), nil
			}
			logger.Warn("Falling back to deterministic synthesis", "reason", apperrors.CodeValidationFailed, "errors", res.Errors)
		}
	}

	prog := p.fallback.Synthesize(uc)
	res := validator.Validate(prog, uc.DaysPerWeek)
	if !res.OK {
		logger.Error("Deterministic synthesis failed validation", "errors", res.Errors)
		return nil, nil, apperrors.ErrInternal.WithMessage("deterministic synthesis produced an invalid program").WithCause(res.Err())
	}
	prog.Strategy = generator.StrategyFallback
	return prog, res.Warnings, nil
}

// startDate parses the requested start date in the pipeline's location.
// Missing or malformed dates start today.
func (p *Pipeline) startDate(requested string, now time.Time) time.Time {
	local := now.In(p.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.loc)
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return today
	}
	d, err := time.ParseInLocation(types.DateLayout, requested, p.loc)
	if err != nil {
		p.logger.Warn("Ignoring malformed start date", "start_date", requested, "error", err)
		return today
	}
	return d
}

func clampWeek(week, duration int) int {
	if week < 1 {
		return 1
	}
	if duration > 0 && week > duration+1 {
		return duration + 1
	}
	return week
}

// publish emits a CloudEvent. Failures are logged and never fail the caller.
func (p *Pipeline) publish(ctx context.Context, topic, eventType, subject string, data interface{}) {
	if p.pub == nil {
		return
	}
	e, err := infrapubsub.NewCloudEvent(eventType, subject, data)
	if err != nil {
		p.logger.Warn("Failed to build event", "type", eventType, "error", err)
		return
	}
	msgID, err := p.pub.PublishCloudEvent(ctx, topic, e)
	if err != nil {
		p.logger.Warn("Failed to publish event", "type", eventType, "topic", topic, "error", err)
		return
	}
	p.logger.Debug("Published event", "type", eventType, "message_id", msgID)
}

func objectPath(prog *types.Program, name string) string {
	return fmt.Sprintf("programs/%s/%s/%s", prog.UserID, prog.ID, name)
}
