// Package settings serves the super-admin configuration row. Reads go
// through a shared cache because the payment provider key on it is resolved
// on nearly every billing call.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/cache"
	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/repository"
	"github.com/docuflow/docuflow/internal/storage"
)

const (
	cacheKey = "super_admin_settings"
	cacheTTL = 60 * time.Minute
)

// Store is the slice of cache.Cache the service needs; tests swap in a map.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Service struct {
	repo  repository.SettingsRepository
	cache Store
	blobs storage.Storage
	log   *slog.Logger
	now   func() time.Time
}

func NewService(repo repository.SettingsRepository, c Store, blobs storage.Storage, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: c, blobs: blobs, log: log, now: time.Now}
}

// Get returns the settings row, from cache when possible. A cache outage
// falls through to the database rather than failing the request.
func (s *Service) Get(ctx context.Context) (*models.SuperAdminSetting, error) {
	var cached models.SuperAdminSetting
	err := s.cache.Get(ctx, cacheKey, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("settings cache read failed", "error", err)
	}

	st, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("settings not configured")
		}
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := s.cache.Set(ctx, cacheKey, st, cacheTTL); err != nil {
		s.log.Warn("settings cache write failed", "error", err)
	}
	return st, nil
}

type UpdateInput struct {
	AppName         *string
	VideoURL        *string
	StripeAppKey    *string
	StripeSecretKey *string
}

// Update patches the settings row and invalidates the cache.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*models.SuperAdminSetting, error) {
	st, err := s.repo.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		st = &models.SuperAdminSetting{}
	} else if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if in.AppName != nil {
		st.AppName = *in.AppName
	}
	if in.VideoURL != nil {
		st.VideoURL = *in.VideoURL
	}
	if in.StripeAppKey != nil {
		st.StripeAppKey = *in.StripeAppKey
	}
	if in.StripeSecretKey != nil {
		st.StripeSecretKey = *in.StripeSecretKey
	}

	if err := s.repo.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	s.invalidate(ctx)
	return st, nil
}

// UploadLogo stores the logo blob under logos/<epoch>_<filename> and points
// the settings row at it.
func (s *Service) UploadLogo(ctx context.Context, fileName string, data io.Reader, size int64, contentType string) (*models.SuperAdminSetting, error) {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "" || base == "." || base == "/" {
		return nil, apperr.Validation("invalid logo file name", map[string]string{"logo": "invalid file name"})
	}
	key := "logos/" + strconv.FormatInt(s.now().Unix(), 10) + "_" + base
	if err := s.blobs.Put(ctx, key, data, size, contentType); err != nil {
		return nil, apperr.Dependency("storing logo failed", err)
	}

	st, err := s.repo.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		st = &models.SuperAdminSetting{}
	} else if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	st.AppLogo = key
	if err := s.repo.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	s.invalidate(ctx)
	return st, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		s.log.Warn("settings cache invalidation failed", "error", err)
	}
}
