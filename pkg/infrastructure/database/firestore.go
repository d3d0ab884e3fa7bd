package database

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/ripixel/fitplan-server/pkg"
	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// FirestoreAdapter provides database operations using Firestore.
//
// Layout:
//
//	programs/{programId}
//	calendar_events/{eventId}
//	users/{userId}/personal_records/{key}
//	executions/{executionId}
//	locks/{key}
type FirestoreAdapter struct {
	Client *firestore.Client
	now    func() time.Time
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{Client: client, now: time.Now}
}

var _ shared.Database = (*FirestoreAdapter)(nil)

type lockDoc struct {
	Owner     string    `firestore:"owner"`
	ExpiresAt time.Time `firestore:"expires_at"`
}

func (a *FirestoreAdapter) programs() *firestore.CollectionRef {
	return a.Client.Collection(shared.CollectionPrograms)
}

func (a *FirestoreAdapter) events() *firestore.CollectionRef {
	return a.Client.Collection(shared.CollectionCalendar)
}

func (a *FirestoreAdapter) records(userID string) *firestore.CollectionRef {
	return a.Client.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionRecords)
}

// --- Executions ---

func (a *FirestoreAdapter) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	_, err := a.Client.Collection(shared.CollectionExecutions).Doc(record.ExecutionID).Set(ctx, record)
	return classify(err, "set execution")
}

func (a *FirestoreAdapter) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	_, err := a.Client.Collection(shared.CollectionExecutions).Doc(id).Set(ctx, data, firestore.MergeAll)
	return classify(err, "update execution")
}

// --- Programs ---

func (a *FirestoreAdapter) CreateProgram(ctx context.Context, program *types.Program) error {
	_, err := a.programs().Doc(program.ID).Create(ctx, program)
	return classify(err, "create program")
}

func (a *FirestoreAdapter) GetProgram(ctx context.Context, id string) (*types.Program, error) {
	snap, err := a.programs().Doc(id).Get(ctx)
	if err != nil {
		return nil, classify(err, "get program")
	}
	var p types.Program
	if err := snap.DataTo(&p); err != nil {
		return nil, apperrors.ErrInternal.WithCause(err).WithMessage("decode program")
	}
	p.ID = snap.Ref.ID
	return &p, nil
}

func (a *FirestoreAdapter) GetActiveProgram(ctx context.Context, userID string) (*types.Program, error) {
	iter := a.programs().
		Where("user_id", "==", userID).
		Where("status", "==", string(types.ProgramStatusActive)).
		OrderBy("created_at", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, apperrors.ErrNotFound.WithMessage("no active program").WithMetadata("user_id", userID)
	}
	if err != nil {
		return nil, classify(err, "query active program")
	}
	var p types.Program
	if err := snap.DataTo(&p); err != nil {
		return nil, apperrors.ErrInternal.WithCause(err).WithMessage("decode program")
	}
	p.ID = snap.Ref.ID
	return &p, nil
}

func (a *FirestoreAdapter) UpdateProgram(ctx context.Context, id string, update types.ProgramUpdate) error {
	updates := []firestore.Update{{Path: "updated_at", Value: a.now()}}
	if update.Status != nil {
		updates = append(updates, firestore.Update{Path: "status", Value: string(*update.Status)})
	}
	if update.CurrentWeek != nil {
		updates = append(updates, firestore.Update{Path: "current_week", Value: *update.CurrentWeek})
	}
	if update.LastPropagatedAt != nil {
		updates = append(updates, firestore.Update{Path: "last_propagated_at", Value: *update.LastPropagatedAt})
	}
	_, err := a.programs().Doc(id).Update(ctx, updates)
	return classify(err, "update program")
}

func (a *FirestoreAdapter) ListActivePrograms(ctx context.Context) ([]*types.Program, error) {
	docs, err := a.programs().Where("status", "==", string(types.ProgramStatusActive)).Documents(ctx).GetAll()
	if err != nil {
		return nil, classify(err, "list active programs")
	}
	out := make([]*types.Program, 0, len(docs))
	for _, d := range docs {
		var p types.Program
		if err := d.DataTo(&p); err != nil {
			return nil, apperrors.ErrInternal.WithCause(err).WithMessage("decode program")
		}
		p.ID = d.Ref.ID
		out = append(out, &p)
	}
	return out, nil
}

// --- Calendar ---

func (a *FirestoreAdapter) ListProgramEvents(ctx context.Context, programID string, fromDate string) ([]*types.CalendarEvent, error) {
	q := a.events().Where("program_id", "==", programID)
	if fromDate != "" {
		q = q.Where("date", ">=", fromDate)
	}
	return a.queryEvents(ctx, q)
}

func (a *FirestoreAdapter) ListEvents(ctx context.Context, userID string, fromDate, toDate string) ([]*types.CalendarEvent, error) {
	q := a.events().Where("user_id", "==", userID)
	if fromDate != "" {
		q = q.Where("date", ">=", fromDate)
	}
	if toDate != "" {
		q = q.Where("date", "<=", toDate)
	}
	return a.queryEvents(ctx, q.OrderBy("date", firestore.Asc))
}

func (a *FirestoreAdapter) queryEvents(ctx context.Context, q firestore.Query) ([]*types.CalendarEvent, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, classify(err, "query calendar events")
	}
	out := make([]*types.CalendarEvent, 0, len(docs))
	for _, d := range docs {
		var e types.CalendarEvent
		if err := d.DataTo(&e); err != nil {
			return nil, apperrors.ErrInternal.WithCause(err).WithMessage("decode calendar event")
		}
		e.ID = d.Ref.ID
		out = append(out, &e)
	}
	return out, nil
}

// ApplyCalendarBatch writes upserts and deletes through a BulkWriter and
// reports the first failed write. Writes are idempotent, so a partially
// applied batch is repaired by the next reconcile.
func (a *FirestoreAdapter) ApplyCalendarBatch(ctx context.Context, upserts []*types.CalendarEvent, deletes []string) error {
	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}
	bw := a.Client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(upserts)+len(deletes))
	for _, e := range upserts {
		job, err := bw.Set(a.events().Doc(e.ID), e)
		if err != nil {
			bw.End()
			return classify(err, "queue calendar upsert")
		}
		jobs = append(jobs, job)
	}
	for _, id := range deletes {
		job, err := bw.Delete(a.events().Doc(id))
		if err != nil {
			bw.End()
			return classify(err, "queue calendar delete")
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var errs []error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return apperrors.ErrStoreUnavailable.WithCause(stderrors.Join(errs...)).
			WithMessage(fmt.Sprintf("%d of %d calendar writes failed", len(errs), len(jobs)))
	}
	return nil
}

// --- Personal records ---

func (a *FirestoreAdapter) GetPersonalRecord(ctx context.Context, userID, key string) (*types.PersonalRecord, error) {
	snap, err := a.records(userID).Doc(key).Get(ctx)
	if err != nil {
		return nil, classify(err, "get personal record")
	}
	var rec types.PersonalRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, apperrors.ErrInternal.WithCause(err).WithMessage("decode personal record")
	}
	return &rec, nil
}

func (a *FirestoreAdapter) UpdatePersonalRecord(ctx context.Context, userID, key string, fn func(current *types.PersonalRecord) (*types.PersonalRecord, error)) error {
	ref := a.records(userID).Doc(key)
	err := a.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current *types.PersonalRecord
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			current = &types.PersonalRecord{}
			if err := snap.DataTo(current); err != nil {
				return err
			}
		}
		next, err := fn(current)
		if err != nil || next == nil {
			return err
		}
		return tx.Set(ref, next)
	})
	return classify(err, "update personal record")
}

// --- Locks ---

// AcquireLock takes key for owner unless another owner holds an unexpired lease.
func (a *FirestoreAdapter) AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	ref := a.Client.Collection(shared.CollectionLocks).Doc(key)
	acquired := false
	err := a.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		acquired = false
		now := a.now()
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil {
			var held lockDoc
			if err := snap.DataTo(&held); err != nil {
				return err
			}
			if held.Owner != owner && now.Before(held.ExpiresAt) {
				return nil
			}
		}
		acquired = true
		return tx.Set(ref, lockDoc{Owner: owner, ExpiresAt: now.Add(ttl)})
	})
	if err != nil {
		return false, classify(err, "acquire lock")
	}
	return acquired, nil
}

func (a *FirestoreAdapter) ReleaseLock(ctx context.Context, key, owner string) error {
	ref := a.Client.Collection(shared.CollectionLocks).Doc(key)
	err := a.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return nil
		}
		if err != nil {
			return err
		}
		var held lockDoc
		if err := snap.DataTo(&held); err != nil {
			return err
		}
		if held.Owner != owner {
			return nil
		}
		return tx.Delete(ref)
	})
	return classify(err, "release lock")
}

// classify maps Firestore status codes onto FitPlan errors.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	var fpErr *apperrors.FitPlanError
	if stderrors.As(err, &fpErr) {
		return err
	}
	switch status.Code(err) {
	case codes.NotFound:
		return apperrors.ErrNotFound.WithCause(err).WithMessage(op)
	case codes.AlreadyExists:
		return apperrors.ErrAlreadyExists.WithCause(err).WithMessage(op)
	case codes.InvalidArgument, codes.FailedPrecondition:
		return apperrors.ErrInternal.WithCause(err).WithMessage(op)
	case codes.DeadlineExceeded:
		return apperrors.ErrTimeout.WithCause(err).WithMessage(op)
	default:
		return apperrors.ErrStoreUnavailable.WithCause(err).WithMessage(op)
	}
}
