package storage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/observability/metrics"
	"github.com/aryan0dhankhar/tenantcms/internal/reliability/circuitbreaker"
)

// BreakerStore fails fast with ErrStorageUnavailable while the wrapped store
// keeps failing. Invalid paths never trip the breaker.
type BreakerStore struct {
	next    domain.FileStore
	breaker *circuitbreaker.Breaker
}

func NewBreakerStore(next domain.FileStore, settings circuitbreaker.Settings, logger *slog.Logger) *BreakerStore {
	if logger == nil {
		logger = slog.Default()
	}
	settings.Ignore = func(err error) bool { return errors.Is(err, ErrInvalidPath) }
	settings.OnStateChange = func(name string, from, to circuitbreaker.State) {
		metrics.ObserveBreakerTransition(name, to.String())
		logger.Warn("file store circuit breaker state changed",
			slog.String("store", name),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	}
	return &BreakerStore{next: next, breaker: circuitbreaker.New(settings)}
}

// State reports the breaker state for readiness checks and tests.
func (s *BreakerStore) State() circuitbreaker.State {
	return s.breaker.State()
}

func (s *BreakerStore) call(ctx context.Context, fn func(context.Context) error) error {
	err := s.breaker.Execute(ctx, fn)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return ErrStorageUnavailable
	}
	return err
}

func (s *BreakerStore) WriteFile(ctx context.Context, p string, data []byte, contentType string) error {
	return s.call(ctx, func(ctx context.Context) error {
		return s.next.WriteFile(ctx, p, data, contentType)
	})
}

func (s *BreakerStore) DeleteFile(ctx context.Context, p string) error {
	return s.call(ctx, func(ctx context.Context) error {
		return s.next.DeleteFile(ctx, p)
	})
}

func (s *BreakerStore) Exists(ctx context.Context, p string) (bool, error) {
	var ok bool
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		ok, err = s.next.Exists(ctx, p)
		return err
	})
	return ok, err
}

func (s *BreakerStore) URL(p string) string {
	return s.next.URL(p)
}

var (
	_ domain.FileStore = (*LocalStore)(nil)
	_ domain.FileStore = (*S3Store)(nil)
	_ domain.FileStore = (*MemoryStore)(nil)
	_ domain.FileStore = (*BreakerStore)(nil)
)
