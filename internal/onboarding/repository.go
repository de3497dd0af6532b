package onboarding

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage outcomes the service maps onto client-facing errors.
var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already registered")
)

// Repository persists onboarding users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	UpdateProgress(ctx context.Context, id string, data map[string]any, step int) (User, error)
	SetStep(ctx context.Context, id string, step int) error
	ResetAllSteps(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]User, error)
	Delete(ctx context.Context, id string) error
}

const userColumns = `id, username, email, password_digest, age, onboarding_data, current_step, created_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user after verifying email and username availability.
// The checks and the insert share one transaction so a racing duplicate is
// reported the same way as a pre-existing one. Email is checked before
// username to keep the conflict order stable.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var one int
	err = tx.QueryRow(ctx, `SELECT 1 FROM users WHERE email = $1`, user.Email).Scan(&one)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check email: %w", err)
	}

	err = tx.QueryRow(ctx, `SELECT 1 FROM users WHERE username = $1`, user.Username).Scan(&one)
	if err == nil {
		return ErrUsernameTaken
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check username: %w", err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO users (id, username, email, password_digest, age, onboarding_data, current_step, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Username, user.Email, user.PasswordDigest, user.Age, user.Data, user.CurrentStep, user.CreatedAt.UTC())
	if err != nil {
		return mapUniqueViolation(err)
	}

	return tx.Commit(ctx)
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByEmail fetches a user by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// UpdateProgress stores the merged onboarding document and step, returning
// the updated row.
func (r *PostgresRepository) UpdateProgress(ctx context.Context, id string, data map[string]any, step int) (User, error) {
	row := r.db.QueryRow(ctx, `UPDATE users SET onboarding_data = $1, current_step = $2 WHERE id = $3
        RETURNING `+userColumns, data, step, id)
	return scanUser(row)
}

// SetStep pins the user's current step.
func (r *PostgresRepository) SetStep(ctx context.Context, id string, step int) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET current_step = $1 WHERE id = $2`, step, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetAllSteps rolls every user back to the first step and reports how many
// rows changed.
func (r *PostgresRepository) ResetAllSteps(ctx context.Context) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET current_step = $1`, StepInitial)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// List returns all users ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Delete removes a user by identifier.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordDigest,
		&user.Age, &user.Data, &user.CurrentStep, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return ErrEmailTaken
		case "users_username_key":
			return ErrUsernameTaken
		}
	}
	return err
}
