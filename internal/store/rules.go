package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindforge-ai/conscience/internal/domain"
)

// RuleStore persists moral rules in Postgres so additions survive restarts.
// The in-memory evaluator stays the source of truth at runtime; this store
// is the durable copy it is rebuilt from on boot.
type RuleStore struct {
	db *pgxpool.Pool
}

func NewRuleStore(db *pgxpool.Pool) *RuleStore {
	return &RuleStore{db: db}
}

// InitSchema creates the rules table when it does not exist yet.
func (s *RuleStore) InitSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS rules (
			id          TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			weight      DOUBLE PRECISION NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (s *RuleStore) Create(ctx context.Context, r *domain.MoralRule) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO rules (id, description, weight) VALUES ($1, $2, $3)`,
		r.ID, r.Description, r.Weight,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *RuleStore) List(ctx context.Context) ([]domain.MoralRule, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, description, weight FROM rules ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.MoralRule
	for rows.Next() {
		var r domain.MoralRule
		if err := rows.Scan(&r.ID, &r.Description, &r.Weight); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
