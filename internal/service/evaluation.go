package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mindforge-ai/conscience/internal/conscience"
	"github.com/mindforge-ai/conscience/internal/domain"
	"github.com/mindforge-ai/conscience/internal/store"
)

var (
	ErrActionEmpty     = errors.New("action is required")
	ErrActionTooLong   = errors.New("action exceeds maximum length")
	ErrRuleNameEmpty   = errors.New("rule name is required")
	ErrRuleNameTooLong = errors.New("rule name exceeds maximum length")
	ErrRuleDescEmpty   = errors.New("rule description is required")
	ErrRuleDescTooLong = errors.New("rule description exceeds maximum length")
	ErrRuleWeightRange = errors.New("rule weight must be between 0 and 100")
	ErrRuleExists      = errors.New("rule already exists")
)

const (
	// MaxActionLength caps the size of an action submitted for evaluation.
	MaxActionLength = 10000
	// MaxRuleNameLength caps rule names.
	MaxRuleNameLength = 64
	// MaxRuleDescriptionLength caps rule descriptions.
	MaxRuleDescriptionLength = 1024
	// MinRuleWeight is the lowest weight accepted over the API.
	MinRuleWeight = 0.0
	// MaxRuleWeight is the highest weight accepted over the API.
	MaxRuleWeight = 100.0
)

type EvaluationService struct {
	evaluator *conscience.Evaluator
	ruleStore domain.RuleStore
	logger    *zap.Logger

	// addMu serializes rule additions so the duplicate check and the
	// database write observe the same state.
	addMu sync.Mutex
}

func NewEvaluationService(ev *conscience.Evaluator, logger *zap.Logger) *EvaluationService {
	return &EvaluationService{
		evaluator: ev,
		logger:    logger,
	}
}

func (s *EvaluationService) SetRuleStore(rs domain.RuleStore) {
	s.ruleStore = rs
}

// Evaluate scores an action against the live rule set.
func (s *EvaluationService) Evaluate(ctx context.Context, action string) (float64, error) {
	if strings.TrimSpace(action) == "" {
		return 0, ErrActionEmpty
	}
	if len(action) > MaxActionLength {
		return 0, ErrActionTooLong
	}

	score, matched := s.evaluator.Evaluate(action)
	if len(matched) > 0 {
		s.logger.Debug("rules matched during evaluation",
			zap.Float64("score", score),
			zap.Strings("rules", matched))
	}
	return score, nil
}

// AddRule validates, persists, and activates a new moral rule. The database
// write happens before the in-memory commit so a persistence failure leaves
// the evaluator unchanged.
func (s *EvaluationService) AddRule(ctx context.Context, name, description string, weight float64) (*domain.MoralRule, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	description = strings.TrimSpace(description)

	if name == "" {
		return nil, ErrRuleNameEmpty
	}
	if len(name) > MaxRuleNameLength {
		return nil, ErrRuleNameTooLong
	}
	if description == "" {
		return nil, ErrRuleDescEmpty
	}
	if len(description) > MaxRuleDescriptionLength {
		return nil, ErrRuleDescTooLong
	}
	if weight < MinRuleWeight || weight > MaxRuleWeight {
		return nil, ErrRuleWeightRange
	}

	s.addMu.Lock()
	defer s.addMu.Unlock()

	if s.evaluator.Has(name) {
		return nil, ErrRuleExists
	}

	rule := &domain.MoralRule{ID: name, Description: description, Weight: weight}

	if s.ruleStore != nil {
		if err := s.ruleStore.Create(ctx, rule); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return nil, ErrRuleExists
			}
			return nil, fmt.Errorf("persist rule: %w", err)
		}
	}

	if err := s.evaluator.Add(*rule); err != nil {
		if errors.Is(err, conscience.ErrDuplicateRule) {
			return nil, ErrRuleExists
		}
		return nil, err
	}

	s.logger.Info("moral rule added",
		zap.String("rule", name),
		zap.Float64("weight", weight))
	return rule, nil
}

// ListRules returns the active rule set sorted by name.
func (s *EvaluationService) ListRules() []domain.MoralRule {
	return s.evaluator.Rules()
}

// LoadPersisted replays rules from the database into the evaluator. Rules
// already present, typically the built-in defaults, are skipped. It returns
// the number of rules loaded.
func (s *EvaluationService) LoadPersisted(ctx context.Context) (int, error) {
	if s.ruleStore == nil {
		return 0, nil
	}

	rules, err := s.ruleStore.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load rules: %w", err)
	}

	loaded := 0
	for _, r := range rules {
		if err := s.evaluator.Add(r); err != nil {
			if errors.Is(err, conscience.ErrDuplicateRule) {
				s.logger.Debug("persisted rule already active, skipping", zap.String("rule", r.ID))
				continue
			}
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}
