package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sealbase/sealbase-api/internal/repository"
	appErrors "github.com/sealbase/sealbase-api/pkg/errors"
)

const baseURLCacheKey = "config:app_url"

type settingsStore interface {
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value string) error
}

type configCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// AppConfigService resolves deployment-wide configuration such as the base
// URL used for shareable links. Values are cached with a short TTL and the
// cache is invalidated on update.
type AppConfigService struct {
	settings settingsStore
	cache    configCache
	logger   *zap.Logger
	fallback string
	cacheTTL time.Duration
}

// NewAppConfigService constructs the service. fallback is used when no value
// was stored yet.
func NewAppConfigService(settings settingsStore, cache configCache, logger *zap.Logger, fallback string, cacheTTL time.Duration) *AppConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &AppConfigService{
		settings: settings,
		cache:    cache,
		logger:   logger,
		fallback: strings.TrimRight(fallback, "/"),
		cacheTTL: cacheTTL,
	}
}

// Resolve returns the effective base URL. Lookup failures degrade to the
// configured fallback; link building must never fail a read request.
func (s *AppConfigService) Resolve(ctx context.Context) string {
	value, _ := s.ResolveSource(ctx)
	return value
}

// ResolveSource behaves like Resolve and additionally reports whether the
// value was served from cache.
func (s *AppConfigService) ResolveSource(ctx context.Context) (string, bool) {
	var cached string
	if err := s.cache.Get(ctx, baseURLCacheKey, &cached); err == nil && cached != "" {
		return cached, true
	}

	value, err := s.settings.GetValue(ctx, repository.AppURLKey)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Sugar().Warnw("base url lookup failed", "error", err)
		}
		return s.fallback, false
	}
	value = strings.TrimRight(value, "/")
	if value == "" {
		return s.fallback, false
	}

	if err := s.cache.Set(ctx, baseURLCacheKey, value, s.cacheTTL); err != nil {
		s.logger.Sugar().Warnw("base url cache set failed", "error", err)
	}
	return value, false
}

// Update persists a new base URL and invalidates the cached value.
func (s *AppConfigService) Update(ctx context.Context, url string) error {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if url == "" {
		return appErrors.Clone(appErrors.ErrValidation, "url must not be empty")
	}
	if err := s.settings.SetValue(ctx, repository.AppURLKey, url); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store base url")
	}
	if err := s.cache.Delete(ctx, baseURLCacheKey); err != nil {
		s.logger.Sugar().Warnw("base url cache invalidation failed", "error", err)
	}
	return nil
}
