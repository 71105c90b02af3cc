// internal/users/store.go
package users

import (
	"context"
	"database/sql"

	apperrors "github.com/RaDu88253/LocalCommerceAi/internal/common/errors"
	"github.com/RaDu88253/LocalCommerceAi/internal/models"
)

// Store persists user accounts in Postgres.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const userColumns = `id, email, username, first_name, last_name, phone_number, hashed_password, created_at`

// Create inserts a new account and returns it with the generated id.
func (s *Store) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, username, first_name, last_name, phone_number, hashed_password)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query,
		user.Email, user.Username, user.FirstName, user.LastName,
		user.PhoneNumber, user.HashedPassword,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(err)
	}
	return user, nil
}

// GetByEmail returns the account for email, or nil when none exists.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, email))
}

// GetByPhone returns the account for phoneNumber, or nil when none exists.
func (s *Store) GetByPhone(ctx context.Context, phoneNumber string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone_number = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, phoneNumber))
}

// GetByID returns the account for id, or nil when none exists.
func (s *Store) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) scanOne(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.FirstName,
		&user.LastName, &user.PhoneNumber, &user.HashedPassword, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(err)
	}
	return &user, nil
}
