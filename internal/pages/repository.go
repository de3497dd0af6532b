package pages

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound reports that no configuration row exists under the requested name.
var ErrNotFound = errors.New("page config not found")

// Repository persists page configurations.
type Repository interface {
	Get(ctx context.Context, name string) (Config, error)
	Save(ctx context.Context, cfg Config) error
	EnsureDefault(ctx context.Context, cfg Config) error
}

// PostgresRepository stores page configurations in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get fetches the configuration stored under name.
func (r *PostgresRepository) Get(ctx context.Context, name string) (Config, error) {
	row := r.db.QueryRow(ctx, `SELECT config_name, page1_components, page2_components, page3_components
        FROM admin_configs WHERE config_name = $1`, name)
	var cfg Config
	if err := row.Scan(&cfg.Name, &cfg.Page1, &cfg.Page2, &cfg.Page3); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Config{}, ErrNotFound
		}
		return Config{}, err
	}
	return cfg, nil
}

// Save overwrites the stored component lists for the configuration name.
func (r *PostgresRepository) Save(ctx context.Context, cfg Config) error {
	cmd, err := r.db.Exec(ctx, `UPDATE admin_configs
        SET page1_components = $1, page2_components = $2, page3_components = $3
        WHERE config_name = $4`, cfg.Page1, cfg.Page2, cfg.Page3, cfg.Name)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureDefault inserts the configuration if no row with its name exists yet.
func (r *PostgresRepository) EnsureDefault(ctx context.Context, cfg Config) error {
	_, err := r.db.Exec(ctx, `INSERT INTO admin_configs (config_name, page1_components, page2_components, page3_components)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (config_name) DO NOTHING`, cfg.Name, cfg.Page1, cfg.Page2, cfg.Page3)
	return err
}
