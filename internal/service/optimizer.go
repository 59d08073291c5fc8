package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mindforge-ai/conscience/internal/domain"
)

const defaultOptimizeInterval = 1 * time.Hour

// OptimizerService periodically merges the full-text index segments of every
// memory layer so search stays fast as records accumulate.
type OptimizerService struct {
	memoryStore domain.MemoryStore
	logger      *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewOptimizerService(ms domain.MemoryStore, logger *zap.Logger) *OptimizerService {
	return &OptimizerService{
		memoryStore: ms,
		logger:      logger,
		interval:    defaultOptimizeInterval,
		stopCh:      make(chan struct{}),
	}
}

func (s *OptimizerService) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs the optimizer on a periodic schedule in a background goroutine.
func (s *OptimizerService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("index optimizer started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				s.run(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("index optimizer stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the optimizer.
func (s *OptimizerService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *OptimizerService) run(ctx context.Context) {
	for _, layer := range domain.AllLayers() {
		if err := s.memoryStore.Optimize(ctx, layer); err != nil {
			s.logger.Warn("failed to optimize layer index",
				zap.String("layer", string(layer)),
				zap.Error(err))
			continue
		}
		s.logger.Debug("layer index optimized", zap.String("layer", string(layer)))
	}
}
