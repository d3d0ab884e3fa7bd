package pipeline

import (
	"context"
	"strings"

	shared "github.com/ripixel/fitplan-server/pkg"
	"github.com/ripixel/fitplan-server/pkg/domain/calendar"
	"github.com/ripixel/fitplan-server/pkg/domain/periodization"
	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// PropagationResult is returned by Propagate.
type PropagationResult struct {
	ProgramID string `json:"programId"`
	Upserted  int    `json:"upserted"`
	Deleted   int    `json:"deleted"`
}

// Propagate re-materializes an active program's schedule from today on.
// Running it repeatedly is safe: event IDs are deterministic, unchanged
// events are skipped and events the user has acted on are left alone.
func (p *Pipeline) Propagate(ctx context.Context, programID string) (*PropagationResult, error) {
	programID = strings.TrimSpace(programID)
	if programID == "" {
		return nil, apperrors.ErrInvalidArgument.WithMessage("programId is required")
	}
	prog, err := p.db.GetProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	if prog.Status != types.ProgramStatusActive {
		return nil, apperrors.ErrInvalidArgument.
			WithMessage("only active programs can be propagated").
			WithMetadata("status", string(prog.Status))
	}
	p.localize(prog)
	periodization.Annotate(prog)

	today := calendar.DateString(p.now(), p.loc)
	existing, err := p.db.ListProgramEvents(ctx, prog.ID, today)
	if err != nil {
		return nil, err
	}

	upserted, deleted, err := p.apply(ctx, prog, existing, nil)
	if err != nil {
		return nil, err
	}

	p.publish(ctx, shared.TopicProgramPropagated, shared.EventTypeProgramPropagated, prog.ID, types.ProgramEvent{
		ProgramID: prog.ID,
		UserID:    prog.UserID,
		Events:    upserted,
	})
	return &PropagationResult{ProgramID: prog.ID, Upserted: upserted, Deleted: deleted}, nil
}

// apply reconciles a fresh propagation with existing events and writes the
// difference as one batch. lastPropagatedAt is only stamped after the batch
// succeeds.
func (p *Pipeline) apply(ctx context.Context, prog *types.Program, existing []*types.CalendarEvent, extraDeletes []string) (int, int, error) {
	now := p.now()
	logger := p.logger.With("program_id", prog.ID, "user_id", prog.UserID)

	fresh := calendar.Propagate(prog, now)
	upserts, deletes := calendar.Reconcile(existing, fresh, calendar.DateString(now, p.loc))
	deletes = append(deletes, extraDeletes...)

	if err := p.db.ApplyCalendarBatch(ctx, upserts, deletes); err != nil {
		logger.Error("Calendar propagation failed", "upserts", len(upserts), "deletes", len(deletes), "error", err)
		return 0, 0, apperrors.ErrPropagationFailed.WithCause(err).WithMetadata("program_id", prog.ID)
	}

	stamp := now
	if err := p.db.UpdateProgram(ctx, prog.ID, types.ProgramUpdate{LastPropagatedAt: &stamp}); err != nil {
		logger.Error("Failed to record propagation", "error", err)
		return 0, 0, apperrors.ErrPropagationFailed.WithCause(err).WithMetadata("program_id", prog.ID)
	}
	prog.LastPropagatedAt = &stamp

	logger.Info("Calendar propagated", "events", len(fresh), "upserts", len(upserts), "deletes", len(deletes))
	return len(upserts), len(deletes), nil
}

// localize moves a stored start date back into the pipeline's location so
// weekday arithmetic happens on the user's calendar.
func (p *Pipeline) localize(prog *types.Program) {
	if prog.StartDate.IsZero() {
		return
	}
	prog.StartDate = prog.StartDate.In(p.loc)
}
