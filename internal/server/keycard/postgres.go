package keycard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/stayonbrand/gatekeeper/internal/common"
	"github.com/stayonbrand/gatekeeper/internal/server/keycard/migrations"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	r := &PostgresRepository{db: db}

	if err := r.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return r, nil
}

func (r *PostgresRepository) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, r.db, ".")
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

const selectProfile = `
	SELECT user_uuid, email, dodo_customer_id, active_tier, active_length,
	       tier_expires_at, subscription_status, created_at
	FROM user_profiles`

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*UserProfile, error) {
	row := r.db.QueryRowContext(ctx, selectProfile+" WHERE email = $1", email)

	var p UserProfile
	err := row.Scan(&p.UserUUID, &p.Email, &p.DodoCustomerID, &p.ActiveTier,
		&p.ActiveLength, &p.TierExpiresAt, &p.SubscriptionStatus, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// Create inserts a fresh profile for the email. On a concurrent insert the
// existing record wins and is returned instead.
func (r *PostgresRepository) Create(ctx context.Context, email string) (*UserProfile, error) {
	id := uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_profiles (user_uuid, email) VALUES ($1, $2)
		 ON CONFLICT (email) DO NOTHING`, id, email)
	if err != nil {
		return nil, err
	}

	return r.GetByEmail(ctx, email)
}

var _ Repository = (*PostgresRepository)(nil)
