package domain

import "context"

// RuleStore persists moral rules across restarts. The evaluator's
// in-memory set stays authoritative at runtime; the store is loaded
// once at startup and written through on rule creation.
type RuleStore interface {
	Create(ctx context.Context, r *MoralRule) error
	List(ctx context.Context) ([]MoralRule, error)
}

// MemoryStore owns the five independent layer indices.
type MemoryStore interface {
	Store(ctx context.Context, layer Layer, content string) (*MemoryRecord, error)
	Search(ctx context.Context, layer Layer, query string, limit int) ([]MemoryRecord, error)
	Count(ctx context.Context, layer Layer) (int64, error)
	Optimize(ctx context.Context, layer Layer) error
}
