package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Service wraps a Provider with process-wide lazy initialization. The first
// caller performs the readiness probe; concurrent callers block until it
// finishes and then share the outcome. A failed probe is remembered: later
// callers get the same "unavailable" error instead of retrying the probe.
type Service struct {
	provider Provider
	log      *slog.Logger

	once sync.Once
	err  error
}

// NewService creates a lazily initialized embedding service.
func NewService(provider Provider, log *slog.Logger) *Service {
	return &Service{provider: provider, log: log}
}

// Ready returns the provider once it has passed its readiness probe.
func (s *Service) Ready(ctx context.Context) (Provider, error) {
	s.once.Do(func() {
		s.log.Info("initializing embedding provider",
			"model", s.provider.ModelName(),
			"dimensions", s.provider.Dimensions(),
		)
		if err := s.provider.Ping(ctx); err != nil {
			s.err = fmt.Errorf("embedding provider unavailable: %w", err)
			s.log.Error("embedding provider initialization failed", "error", s.err)
			return
		}
		s.log.Info("embedding provider ready")
	})
	if s.err != nil {
		return nil, s.err
	}
	return s.provider, nil
}

// ModelName reports the underlying model without forcing initialization.
func (s *Service) ModelName() string {
	return s.provider.ModelName()
}

// Dimensions reports the underlying dimensions without forcing initialization.
func (s *Service) Dimensions() int {
	return s.provider.Dimensions()
}
