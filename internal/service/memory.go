package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/mindforge-ai/conscience/internal/domain"
)

var (
	ErrContentEmpty   = errors.New("content is required")
	ErrContentTooLong = errors.New("content exceeds maximum length")
	ErrInvalidLayer   = errors.New("invalid memory layer")
	ErrQueryEmpty     = errors.New("query is required")
	ErrQueryTooLong   = errors.New("query exceeds maximum length")
	ErrLimitTooLarge  = errors.New("limit exceeds maximum")
)

const (
	// MaxContentLength caps stored memory content.
	MaxContentLength = 65536
	// MaxQueryLength caps search queries.
	MaxQueryLength = 1024
	// DefaultSearchLimit applies when a search gives no limit.
	DefaultSearchLimit = 10
	// MaxSearchLimit is the largest limit a search may request.
	MaxSearchLimit = 100
)

type MemoryService struct {
	memoryStore domain.MemoryStore
	logger      *zap.Logger
}

func NewMemoryService(ms domain.MemoryStore, logger *zap.Logger) *MemoryService {
	return &MemoryService{
		memoryStore: ms,
		logger:      logger,
	}
}

func (s *MemoryService) Store(ctx context.Context, layer string, content string) (*domain.MemoryRecord, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrContentEmpty
	}
	if len(content) > MaxContentLength {
		return nil, ErrContentTooLong
	}
	if !domain.ValidLayer(layer) {
		return nil, ErrInvalidLayer
	}

	rec, err := s.memoryStore.Store(ctx, domain.Layer(layer), content)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("memory stored",
		zap.String("layer", layer),
		zap.String("memory_id", rec.ID))
	return rec, nil
}

func (s *MemoryService) Search(ctx context.Context, layer string, query string, limit int) ([]domain.MemoryRecord, error) {
	if !domain.ValidLayer(layer) {
		return nil, ErrInvalidLayer
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrQueryEmpty
	}
	if len(query) > MaxQueryLength {
		return nil, ErrQueryTooLong
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return nil, ErrLimitTooLarge
	}

	return s.memoryStore.Search(ctx, domain.Layer(layer), query, limit)
}

// Stats reports the record count per layer plus the total across layers.
func (s *MemoryService) Stats(ctx context.Context) (map[domain.Layer]int64, int64, error) {
	counts := make(map[domain.Layer]int64, len(domain.AllLayers()))
	var total int64
	for _, layer := range domain.AllLayers() {
		n, err := s.memoryStore.Count(ctx, layer)
		if err != nil {
			return nil, 0, err
		}
		counts[layer] = n
		total += n
	}
	return counts, total, nil
}
