package presence

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"presensi/internal/store"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db  *sql.DB
	loc *time.Location
}

// NewRepository creates a repo computing daily windows in loc.
func NewRepository(db *sql.DB, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.Local
	}
	return &Repository{db: db, loc: loc}
}

// HasRecordToday reports whether a record already exists for the pair inside
// now's calendar-date window.
func (r *Repository) HasRecordToday(ctx context.Context, lectureID, dayID string, now time.Time) (bool, error) {
	start, end := DayWindow(now, r.loc)
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM presences
			WHERE lecture_id = $1 AND day_id = $2
			  AND created_at >= $3 AND created_at < $4
		)
	`, lectureID, dayID, start, end).Scan(&exists)
	return exists, err
}

// Insert writes a new record. created_at and recorded_on are assigned by the
// database; a unique violation on the daily index is reported as
// ErrDuplicateToday so a losing concurrent scan surfaces the same error as
// an ordinary repeat scan.
func (r *Repository) Insert(ctx context.Context, lectureID, dayID, status string) (Record, error) {
	rec := Record{
		ID:        uuid.NewString(),
		LectureID: lectureID,
		DayID:     dayID,
		Status:    status,
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO presences (id, lecture_id, day_id, status)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, rec.ID, rec.LectureID, rec.DayID, rec.Status)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return Record{}, ErrDuplicateToday
		}
		return Record{}, err
	}
	return rec, nil
}

// Get returns a record by id, or nil when missing.
func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, lecture_id, day_id, status, created_at
		FROM presences WHERE id = $1
	`, id)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.LectureID, &rec.DayID, &rec.Status, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// List returns records newest first with optional lecturer and date filters.
// A zero date means no date filter.
func (r *Repository) List(ctx context.Context, lectureID string, date time.Time, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, lecture_id, day_id, status, created_at
		FROM presences WHERE 1=1`
	args := []any{}
	if lectureID != "" {
		args = append(args, lectureID)
		query += ` AND lecture_id = $` + strconv.Itoa(len(args))
	}
	if !date.IsZero() {
		start, end := DayWindow(date, r.loc)
		args = append(args, start)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
		args = append(args, end)
		query += ` AND created_at < $` + strconv.Itoa(len(args))
	}
	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.LectureID, &rec.DayID, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// CountToday returns the number of records inside today's window, used by
// the dashboard.
func (r *Repository) CountToday(ctx context.Context, now time.Time) (int, error) {
	start, end := DayWindow(now, r.loc)
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM presences
		WHERE created_at >= $1 AND created_at < $2
	`, start, end).Scan(&n)
	return n, err
}

// UpdateStatus corrects a record's status. Returns nil when the record does
// not exist.
func (r *Repository) UpdateStatus(ctx context.Context, id, status string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE presences SET status = $2 WHERE id = $1
		RETURNING id, lecture_id, day_id, status, created_at
	`, id, status)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.LectureID, &rec.DayID, &rec.Status, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Delete removes a record by explicit administrator action.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM presences WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
