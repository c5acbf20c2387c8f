package lecturer

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"presensi/internal/store"
)

// ErrConflict reports a tag id or short code already registered to another lecturer.
var ErrConflict = errors.New("lecturer tag or code already in use")

// Lecturer is an identity record carrying the RFID tag used at scan time.
type Lecturer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	TagID     string    `json:"rfid_id"`
	Photo     *string   `json:"photo,omitempty"`
	DayIDs    []string  `json:"day_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists lecturers in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindByTagID returns the lecturer owning a tag, or nil when the tag is unknown.
func (r *Repository) FindByTagID(ctx context.Context, tagID string) (*Lecturer, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, code, rfid_id, photo, created_at
		FROM lectures WHERE rfid_id = $1
	`, tagID)
	var l Lecturer
	if err := row.Scan(&l.ID, &l.Name, &l.Code, &l.TagID, &l.Photo, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// Get returns a single lecturer with scheduled day ids.
func (r *Repository) Get(ctx context.Context, id string) (*Lecturer, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, code, rfid_id, photo, created_at
		FROM lectures WHERE id = $1
	`, id)
	var l Lecturer
	if err := row.Scan(&l.ID, &l.Name, &l.Code, &l.TagID, &l.Photo, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	dayIDs, err := r.scheduledDayIDs(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	l.DayIDs = dayIDs
	return &l, nil
}

// List returns all lecturers ordered by code, each with scheduled day ids.
func (r *Repository) List(ctx context.Context) ([]Lecturer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, code, rfid_id, photo, created_at
		FROM lectures ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Lecturer
	for rows.Next() {
		var l Lecturer
		if err := rows.Scan(&l.ID, &l.Name, &l.Code, &l.TagID, &l.Photo, &l.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		dayIDs, err := r.scheduledDayIDs(ctx, res[i].ID)
		if err != nil {
			return nil, err
		}
		res[i].DayIDs = dayIDs
	}
	return res, nil
}

// Create inserts a lecturer and its schedule associations in one transaction.
func (r *Repository) Create(ctx context.Context, l Lecturer, dayIDs []string) (Lecturer, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Lecturer{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO lectures (id, name, code, rfid_id, photo)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, l.ID, l.Name, l.Code, l.TagID, l.Photo)
	if err := row.Scan(&l.CreatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return Lecturer{}, ErrConflict
		}
		return Lecturer{}, err
	}
	if err := insertScheduleDays(ctx, tx, l.ID, dayIDs); err != nil {
		return Lecturer{}, err
	}
	if err := tx.Commit(); err != nil {
		return Lecturer{}, err
	}
	l.DayIDs = dayIDs
	return l, nil
}

// Update rewrites lecturer fields and replaces its schedule associations.
// Returns nil when the lecturer does not exist.
func (r *Repository) Update(ctx context.Context, l Lecturer, dayIDs []string) (*Lecturer, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		UPDATE lectures SET name = $2, code = $3, rfid_id = $4, photo = $5
		WHERE id = $1
		RETURNING created_at
	`, l.ID, l.Name, l.Code, l.TagID, l.Photo)
	if err := row.Scan(&l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if store.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM lecture_days WHERE lecture_id = $1`, l.ID); err != nil {
		return nil, err
	}
	if err := insertScheduleDays(ctx, tx, l.ID, dayIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	l.DayIDs = dayIDs
	return &l, nil
}

// Delete removes a lecturer; schedule rows and presences cascade.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lectures WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) scheduledDayIDs(ctx context.Context, lectureID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT day_id FROM lecture_days WHERE lecture_id = $1
	`, lectureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func insertScheduleDays(ctx context.Context, tx *sql.Tx, lectureID string, dayIDs []string) error {
	for _, dayID := range dayIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO lecture_days (lecture_id, day_id)
			VALUES ($1, $2)
			ON CONFLICT (lecture_id, day_id) DO NOTHING
		`, lectureID, dayID); err != nil {
			return err
		}
	}
	return nil
}
