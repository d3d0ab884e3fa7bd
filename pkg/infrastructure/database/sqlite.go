package database

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	shared "github.com/ripixel/fitplan-server/pkg"
	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// SQLiteStore implements shared.Database on a local SQLite file. Documents
// are stored as JSON next to the columns queries filter on.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ shared.Database = (*SQLiteStore)(nil)

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serializes transactions, which the lock and record
	// read-modify-write paths rely on.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS programs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_programs_user_status ON programs(user_id, status, created_at);

	CREATE TABLE IF NOT EXISTS calendar_events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		program_id TEXT NOT NULL,
		date TEXT NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_program ON calendar_events(program_id, date);
	CREATE INDEX IF NOT EXISTS idx_events_user ON calendar_events(user_id, date);

	CREATE TABLE IF NOT EXISTS personal_records (
		user_id TEXT NOT NULL,
		key TEXT NOT NULL,
		doc TEXT NOT NULL,
		PRIMARY KEY (user_id, key)
	);

	CREATE TABLE IF NOT EXISTS executions (
		id TEXT PRIMARY KEY,
		doc TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS locks (
		key TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// --- Executions ---

func (s *SQLiteStore) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return apperrors.ErrInternal.WithCause(err).WithMessage("encode execution")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO executions (id, doc) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`,
		record.ExecutionID, string(doc))
	return storeErr(err, "set execution")
}

// UpdateExecution merges data into the stored record. Keys are the
// record's JSON names.
func (s *SQLiteStore) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	return s.inTx(ctx, "update execution", func(tx *sql.Tx) error {
		merged := map[string]interface{}{}
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT doc FROM executions WHERE id = ?`, id).Scan(&raw)
		switch {
		case stderrors.Is(err, sql.ErrNoRows):
			merged["execution_id"] = id
		case err != nil:
			return err
		default:
			if err := json.Unmarshal([]byte(raw), &merged); err != nil {
				return err
			}
		}
		for k, v := range data {
			merged[k] = v
		}
		doc, err := json.Marshal(merged)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO executions (id, doc) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`,
			id, string(doc))
		return err
	})
}

// GetExecution reads back an execution record.
func (s *SQLiteStore) GetExecution(ctx context.Context, id string) (*types.ExecutionRecord, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM executions WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		return nil, storeErr(err, "get execution")
	}
	var rec types.ExecutionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, apperrors.ErrInternal.WithCause(err).WithMessage("decode execution")
	}
	return &rec, nil
}

// --- Programs ---

func (s *SQLiteStore) CreateProgram(ctx context.Context, program *types.Program) error {
	doc, err := json.Marshal(program)
	if err != nil {
		return apperrors.ErrInternal.WithCause(err).WithMessage("encode program")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO programs (id, user_id, status, created_at, doc) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		program.ID, program.UserID, string(program.Status), program.CreatedAt.UnixNano(), string(doc))
	if err != nil {
		return storeErr(err, "create program")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrAlreadyExists.WithMessage("create program").WithMetadata("program_id", program.ID)
	}
	return nil
}

func (s *SQLiteStore) GetProgram(ctx context.Context, id string) (*types.Program, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM programs WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		return nil, storeErr(err, "get program")
	}
	return decodeProgram(raw)
}

func (s *SQLiteStore) GetActiveProgram(ctx context.Context, userID string) (*types.Program, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM programs WHERE user_id = ? AND status = ? ORDER BY created_at DESC LIMIT 1`,
		userID, string(types.ProgramStatusActive)).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound.WithMessage("no active program").WithMetadata("user_id", userID)
	}
	if err != nil {
		return nil, storeErr(err, "query active program")
	}
	return decodeProgram(raw)
}

func (s *SQLiteStore) UpdateProgram(ctx context.Context, id string, update types.ProgramUpdate) error {
	return s.inTx(ctx, "update program", func(tx *sql.Tx) error {
		var raw string
		if err := tx.QueryRowContext(ctx, `SELECT doc FROM programs WHERE id = ?`, id).Scan(&raw); err != nil {
			return err
		}
		p, err := decodeProgram(raw)
		if err != nil {
			return err
		}
		if update.Status != nil {
			p.Status = *update.Status
		}
		if update.CurrentWeek != nil {
			p.CurrentWeek = *update.CurrentWeek
		}
		if update.LastPropagatedAt != nil {
			t := *update.LastPropagatedAt
			p.LastPropagatedAt = &t
		}
		p.UpdatedAt = s.now()
		doc, err := json.Marshal(p)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE programs SET status = ?, doc = ? WHERE id = ?`, string(p.Status), string(doc), id)
		return err
	})
}

func (s *SQLiteStore) ListActivePrograms(ctx context.Context) ([]*types.Program, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM programs WHERE status = ? ORDER BY created_at`, string(types.ProgramStatusActive))
	if err != nil {
		return nil, storeErr(err, "list active programs")
	}
	defer rows.Close()

	var out []*types.Program
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, storeErr(err, "scan program")
		}
		p, err := decodeProgram(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, storeErr(rows.Err(), "list active programs")
}

func decodeProgram(raw string) (*types.Program, error) {
	var p types.Program
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, apperrors.ErrInternal.WithCause(err).WithMessage("decode program")
	}
	return &p, nil
}

// --- Calendar ---

func (s *SQLiteStore) ListProgramEvents(ctx context.Context, programID string, fromDate string) ([]*types.CalendarEvent, error) {
	return s.queryEvents(ctx,
		`SELECT doc FROM calendar_events WHERE program_id = ? AND date >= ? ORDER BY date, id`,
		programID, fromDate)
}

func (s *SQLiteStore) ListEvents(ctx context.Context, userID string, fromDate, toDate string) ([]*types.CalendarEvent, error) {
	if toDate == "" {
		toDate = "9999-12-31"
	}
	return s.queryEvents(ctx,
		`SELECT doc FROM calendar_events WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date, id`,
		userID, fromDate, toDate)
}

func (s *SQLiteStore) queryEvents(ctx context.Context, query string, args ...interface{}) ([]*types.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err, "query calendar events")
	}
	defer rows.Close()

	var out []*types.CalendarEvent
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, storeErr(err, "scan calendar event")
		}
		var e types.CalendarEvent
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, apperrors.ErrInternal.WithCause(err).WithMessage("decode calendar event")
		}
		out = append(out, &e)
	}
	return out, storeErr(rows.Err(), "query calendar events")
}

// ApplyCalendarBatch applies upserts and deletes in one transaction.
func (s *SQLiteStore) ApplyCalendarBatch(ctx context.Context, upserts []*types.CalendarEvent, deletes []string) error {
	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}
	return s.inTx(ctx, "apply calendar batch", func(tx *sql.Tx) error {
		for _, e := range upserts {
			doc, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO calendar_events (id, user_id, program_id, date, doc) VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, program_id = excluded.program_id,
				 date = excluded.date, doc = excluded.doc`,
				e.ID, e.UserID, e.ProgramID, e.Date, string(doc)); err != nil {
				return err
			}
		}
		for _, id := range deletes {
			if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = ?`, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- Personal records ---

func (s *SQLiteStore) GetPersonalRecord(ctx context.Context, userID, key string) (*types.PersonalRecord, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM personal_records WHERE user_id = ? AND key = ?`, userID, key).Scan(&raw)
	if err != nil {
		return nil, storeErr(err, "get personal record")
	}
	var rec types.PersonalRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, apperrors.ErrInternal.WithCause(err).WithMessage("decode personal record")
	}
	return &rec, nil
}

func (s *SQLiteStore) UpdatePersonalRecord(ctx context.Context, userID, key string, fn func(current *types.PersonalRecord) (*types.PersonalRecord, error)) error {
	return s.inTx(ctx, "update personal record", func(tx *sql.Tx) error {
		var current *types.PersonalRecord
		var raw string
		err := tx.QueryRowContext(ctx,
			`SELECT doc FROM personal_records WHERE user_id = ? AND key = ?`, userID, key).Scan(&raw)
		switch {
		case stderrors.Is(err, sql.ErrNoRows):
		case err != nil:
			return err
		default:
			current = &types.PersonalRecord{}
			if err := json.Unmarshal([]byte(raw), current); err != nil {
				return err
			}
		}
		next, err := fn(current)
		if err != nil || next == nil {
			return err
		}
		doc, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO personal_records (user_id, key, doc) VALUES (?, ?, ?)
			 ON CONFLICT(user_id, key) DO UPDATE SET doc = excluded.doc`,
			userID, key, string(doc))
		return err
	})
}

// --- Locks ---

func (s *SQLiteStore) AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	acquired := false
	err := s.inTx(ctx, "acquire lock", func(tx *sql.Tx) error {
		now := s.now()
		var held string
		var expires int64
		err := tx.QueryRowContext(ctx, `SELECT owner, expires_at FROM locks WHERE key = ?`, key).Scan(&held, &expires)
		switch {
		case stderrors.Is(err, sql.ErrNoRows):
		case err != nil:
			return err
		case held != owner && now.UnixNano() < expires:
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO locks (key, owner, expires_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET owner = excluded.owner, expires_at = excluded.expires_at`,
			key, owner, now.Add(ttl).UnixNano())
		if err == nil {
			acquired = true
		}
		return err
	})
	return acquired, err
}

func (s *SQLiteStore) ReleaseLock(ctx context.Context, key, owner string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM locks WHERE key = ? AND owner = ?`, key, owner)
	return storeErr(err, "release lock")
}

func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err, op)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return storeErr(err, op)
	}
	return storeErr(tx.Commit(), op)
}

func storeErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var fpErr *apperrors.FitPlanError
	if stderrors.As(err, &fpErr) {
		return err
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrNotFound.WithCause(err).WithMessage(op)
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.ErrTimeout.WithCause(err).WithMessage(op)
	}
	return apperrors.ErrStoreUnavailable.WithCause(err).WithMessage(op)
}
