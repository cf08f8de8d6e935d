package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatewell-labs/formgate/internal/models"
)

// PostgresStore is the shared LeadStore for multi-instance deployments.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const leadsSchema = `
	CREATE TABLE IF NOT EXISTS leads (
		id         TEXT PRIMARY KEY,
		endpoint   TEXT NOT NULL,
		name       TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL DEFAULT '',
		category   TEXT NOT NULL DEFAULT '',
		payload    JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS leads_endpoint_created_idx ON leads (endpoint, created_at DESC);
`

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 10
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, leadsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure leads schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead *models.Lead) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	payload, err := json.Marshal(lead.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode lead payload: %w", err)
	}

	query := `
		INSERT INTO leads (id, endpoint, name, email, category, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.pool.Exec(ctx, query,
		lead.ID, lead.Endpoint, lead.Name, lead.Email, lead.Category,
		payload, lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetLeadByID(ctx context.Context, id string) (*models.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT id, endpoint, name, email, category, payload, created_at
		FROM leads WHERE id = $1
	`

	lead, err := scanLead(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, endpoint string, limit int) ([]*models.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, endpoint, name, email, category, payload, created_at
		FROM leads
		WHERE ($1 = '' OR endpoint = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, endpoint, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func scanLead(row pgx.Row) (*models.Lead, error) {
	var lead models.Lead
	var payload []byte

	if err := row.Scan(&lead.ID, &lead.Endpoint, &lead.Name, &lead.Email,
		&lead.Category, &payload, &lead.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(payload, &lead.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode lead payload: %w", err)
	}
	return &lead, nil
}
