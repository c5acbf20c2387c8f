package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Admin is an administrator account able to use the CRUD surface.
type Admin struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists administrator accounts.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindByEmail returns the admin with the given email, or nil when unknown.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password, created_at
		FROM admins WHERE email = $1
	`, email)
	var a Admin
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Password, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// Seed ensures an admin account exists for the given email, hashing the
// password on first creation. Used at startup when ADMIN_EMAIL is set.
func (r *Repository) Seed(ctx context.Context, username, email, plainPassword string) error {
	existing, err := r.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hash, err := HashPassword(plainPassword)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO admins (id, username, email, password)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (email) DO NOTHING
	`, uuid.NewString(), username, email, hash)
	return err
}
