package conscience

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/mindforge-ai/conscience/internal/domain"
)

// ErrDuplicateRule is returned by Add when the rule id is already taken.
var ErrDuplicateRule = errors.New("rule id already exists")

// Default rule weights.
const (
	NoHarmWeight = 10.0
	TruthWeight  = 8.0
)

// DefaultRules returns the fixed rule set every evaluator starts with.
func DefaultRules() []domain.MoralRule {
	return []domain.MoralRule{
		{ID: "no-harm", Description: "Do not harm humans or allow harm through inaction", Weight: NoHarmWeight},
		{ID: "truth", Description: "Be truthful and honest in all interactions", Weight: TruthWeight},
	}
}

// weightedRule pairs a rule with its derived keywords so Evaluate never
// re-tokenizes descriptions on the hot path.
type weightedRule struct {
	rule     domain.MoralRule
	keywords []string
}

// Evaluator holds a concurrently accessible set of weighted moral rules
// and scores free text against them. Reads never block each other;
// writes are serialized and a reader never observes a partially
// written rule.
type Evaluator struct {
	mu       sync.RWMutex
	rules    map[string]weightedRule
	keywords KeywordFunc
}

// NewEvaluator builds an evaluator holding the given seed rules.
// Duplicate seed ids keep the last occurrence.
func NewEvaluator(seed ...domain.MoralRule) *Evaluator {
	e := &Evaluator{
		rules:    make(map[string]weightedRule, len(seed)),
		keywords: DeriveKeywords,
	}
	for _, r := range seed {
		e.rules[r.ID] = weightedRule{rule: r, keywords: e.keywords(r)}
	}
	return e
}

// SetKeywordFunc replaces the keyword derivation and re-derives the
// keywords of every held rule.
func (e *Evaluator) SetKeywordFunc(kf KeywordFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keywords = kf
	for id, wr := range e.rules {
		wr.keywords = kf(wr.rule)
		e.rules[id] = wr
	}
}

// Evaluate scores an action against every rule currently held. A rule
// fires at most once when any of its keywords appears in the action
// text (case-insensitive substring), contributing its full signed
// weight. The result is the additive sum and the sorted ids of the
// rules that fired. Empty input matches nothing and scores 0.
func (e *Evaluator) Evaluate(action string) (float64, []string) {
	text := strings.ToLower(action)
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	var score float64
	var matched []string
	for id, wr := range e.rules {
		for _, kw := range wr.keywords {
			if strings.Contains(text, kw) {
				score += wr.rule.Weight
				matched = append(matched, id)
				break
			}
		}
	}
	sort.Strings(matched)
	return score, matched
}

// Add inserts a rule under its id, visible to subsequent Evaluate
// calls. Duplicate ids are rejected; existing rules are never
// overwritten or removed.
func (e *Evaluator) Add(r domain.MoralRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rules[r.ID]; ok {
		return ErrDuplicateRule
	}
	e.rules[r.ID] = weightedRule{rule: r, keywords: e.keywords(r)}
	return nil
}

// Has reports whether a rule id is present.
func (e *Evaluator) Has(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.rules[id]
	return ok
}

// Rules returns a snapshot of all held rules sorted by id.
func (e *Evaluator) Rules() []domain.MoralRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]domain.MoralRule, 0, len(e.rules))
	for _, wr := range e.rules {
		rules = append(rules, wr.rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}
