package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

// SettingsService reads and saves the single settings row, falling back to
// configured defaults until an administrator saves it.
type SettingsService struct {
	repo      repository.SettingsRepository
	defaults  models.Settings
	queries   *QueryCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(repo repository.SettingsRepository, defaults models.Settings, queries *QueryCache, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SettingsService{repo: repo, defaults: defaults, queries: queries, validator: validate, logger: logger}
}

// Get returns the saved settings or the defaults.
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, _, err := cachedQuery(ctx, s.queries, QueryKey(ScopeSettings, nil), func(ctx context.Context) (models.Settings, error) {
		stored, err := s.repo.Get(ctx)
		if err != nil {
			if errors.Is(err, appErrors.ErrNotFound) {
				return s.defaults, nil
			}
			return models.Settings{}, storageError(err, "failed to load settings")
		}
		return *stored, nil
	})
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save replaces the settings wholesale.
func (s *SettingsService) Save(ctx context.Context, settings models.Settings) (*models.Settings, error) {
	if err := s.validator.Struct(settings); err != nil {
		return nil, validationError(err, "invalid settings payload")
	}
	if err := s.repo.Save(ctx, &settings); err != nil {
		return nil, storageError(err, "failed to save settings")
	}
	s.queries.Invalidate(ctx, ScopeSettings)
	s.logger.Info("settings saved", zap.Bool("maintenance_mode", settings.MaintenanceMode))
	return &settings, nil
}

// MaintenanceMode reports whether non-admin writes are suspended. Lookup
// failures count as not in maintenance.
func (s *SettingsService) MaintenanceMode(ctx context.Context) bool {
	settings, err := s.Get(ctx)
	if err != nil {
		s.logger.Warn("failed to read maintenance flag", zap.Error(err))
		return false
	}
	return settings.MaintenanceMode
}
