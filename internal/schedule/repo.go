package schedule

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"presensi/internal/store"
)

var (
	// ErrNameTaken reports a day name that already exists in the catalog.
	ErrNameTaken = errors.New("day name already exists")
	// ErrDayInUse blocks deletion of a day that lecturers are still scheduled on.
	ErrDayInUse = errors.New("day is in use by scheduled lecturers")
)

// Day is a named weekday against which lecturers are scheduled.
type Day struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists the weekday catalog and schedule associations.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindByName returns the day with the given name, or nil when missing.
func (r *Repository) FindByName(ctx context.Context, name string) (*Day, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM days WHERE name = $1
	`, name)
	var d Day
	if err := row.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// Get returns a day by id, or nil when missing.
func (r *Repository) Get(ctx context.Context, id string) (*Day, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM days WHERE id = $1
	`, id)
	var d Day
	if err := row.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// List returns the weekday catalog.
func (r *Repository) List(ctx context.Context) ([]Day, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at FROM days ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Day
	for rows.Next() {
		var d Day
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// Create inserts a day with a unique name.
func (r *Repository) Create(ctx context.Context, name string) (Day, error) {
	d := Day{ID: uuid.NewString(), Name: name}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO days (id, name) VALUES ($1, $2)
		RETURNING created_at
	`, d.ID, d.Name)
	if err := row.Scan(&d.CreatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return Day{}, ErrNameTaken
		}
		return Day{}, err
	}
	return d, nil
}

// Rename updates a day's name. Returns nil when the day does not exist.
func (r *Repository) Rename(ctx context.Context, id, name string) (*Day, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE days SET name = $2 WHERE id = $1
		RETURNING created_at
	`, id, name)
	d := Day{ID: id, Name: name}
	if err := row.Scan(&d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if store.IsUniqueViolation(err) {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	return &d, nil
}

// Delete removes a day unless lecturers are still scheduled on it.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	var inUse bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM lecture_days WHERE day_id = $1)
	`, id).Scan(&inUse)
	if err != nil {
		return false, err
	}
	if inUse {
		return false, ErrDayInUse
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM days WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// IsScheduled reports whether a lecturer is expected on the given day.
func (r *Repository) IsScheduled(ctx context.Context, lectureID, dayID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM lecture_days WHERE lecture_id = $1 AND day_id = $2
		)
	`, lectureID, dayID).Scan(&exists)
	return exists, err
}
