package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
)

// ClassTypeService manages the class type catalogue.
type ClassTypeService struct {
	store     repository.Store
	queries   *QueryCache
	events    EventPublisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassTypeService constructs the class type service.
func NewClassTypeService(store repository.Store, queries *QueryCache, events EventPublisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ClassTypeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if events == nil {
		events = noopEvents{}
	}
	return &ClassTypeService{store: store, queries: queries, events: events, metrics: metrics, validator: validate, logger: logger}
}

// List returns all class types.
func (s *ClassTypeService) List(ctx context.Context) ([]models.ClassType, error) {
	classTypes, _, err := cachedQuery(ctx, s.queries, QueryKey(ScopeClassTypes, nil), func(ctx context.Context) ([]models.ClassType, error) {
		list, err := s.store.ClassTypes().List(ctx)
		if err != nil {
			return nil, storageError(err, "failed to list class types")
		}
		return list, nil
	})
	return classTypes, err
}

// Get returns one class type.
func (s *ClassTypeService) Get(ctx context.Context, id string) (*models.ClassType, error) {
	classType, err := s.store.ClassTypes().GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "failed to load class type")
	}
	return classType, nil
}

// Create adds a class type. Capacity defaults to 10 and the package price to
// the single price.
func (s *ClassTypeService) Create(ctx context.Context, classType models.ClassType) (*models.ClassType, error) {
	classType.ID = uuid.NewString()
	classType.ApplyDefaults()
	if err := s.validator.Struct(classType); err != nil {
		return nil, validationError(err, "invalid class type payload")
	}
	if err := s.store.ClassTypes().Create(ctx, &classType); err != nil {
		return nil, storageError(err, "failed to create class type")
	}
	s.queries.Invalidate(ctx, ScopeClassTypes)
	return &classType, nil
}

// Update replaces a class type.
func (s *ClassTypeService) Update(ctx context.Context, id string, classType models.ClassType) (*models.ClassType, error) {
	classType.ID = id
	classType.ApplyDefaults()
	if err := s.validator.Struct(classType); err != nil {
		return nil, validationError(err, "invalid class type payload")
	}
	if err := s.store.ClassTypes().Update(ctx, &classType); err != nil {
		return nil, storageError(err, "failed to update class type")
	}
	s.queries.Invalidate(ctx, ScopeClassTypes)
	return &classType, nil
}

// Delete removes a class type together with its sessions. Clients enrolled
// in those sessions get their credit back.
func (s *ClassTypeService) Delete(ctx context.Context, id string) error {
	var cancelled []models.LessonSession
	refunds := 0
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		sessions, err := tx.Sessions().List(ctx, models.SessionFilter{ClassTypeID: id})
		if err != nil {
			return err
		}
		for _, session := range sessions {
			n, err := refundSession(ctx, tx, session)
			if err != nil {
				return err
			}
			refunds += n
		}
		cancelled = sessions
		return tx.ClassTypes().Delete(ctx, id)
	})
	if err != nil {
		return storageError(err, "failed to delete class type")
	}

	s.metrics.RecordCredits(CreditReasonRefund, refunds)
	s.queries.Invalidate(ctx, ScopeClassTypes, ScopeSessions)
	for _, session := range cancelled {
		s.events.Publish(ctx, EventSessionCancelled, sessionEvent(session, "class type deleted"))
	}
	s.logger.Info("class type deleted", zap.String("class_type_id", id), zap.Int("sessions", len(cancelled)), zap.Int("refunds", refunds))
	return nil
}

// PackageService manages credit packages.
type PackageService struct {
	repo      repository.PackageRepository
	queries   *QueryCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPackageService constructs the package service.
func NewPackageService(repo repository.PackageRepository, queries *QueryCache, validate *validator.Validate, logger *zap.Logger) *PackageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PackageService{repo: repo, queries: queries, validator: validate, logger: logger}
}

// List returns all packages, cheapest first.
func (s *PackageService) List(ctx context.Context) ([]models.Package, error) {
	packages, _, err := cachedQuery(ctx, s.queries, QueryKey(ScopePackages, nil), func(ctx context.Context) ([]models.Package, error) {
		list, err := s.repo.List(ctx)
		if err != nil {
			return nil, storageError(err, "failed to list packages")
		}
		return list, nil
	})
	return packages, err
}

// Get returns one package.
func (s *PackageService) Get(ctx context.Context, id string) (*models.Package, error) {
	pkg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "failed to load package")
	}
	return pkg, nil
}

// Create adds a package.
func (s *PackageService) Create(ctx context.Context, pkg models.Package) (*models.Package, error) {
	pkg.ID = uuid.NewString()
	if err := s.validator.Struct(pkg); err != nil {
		return nil, validationError(err, "invalid package payload")
	}
	if err := s.repo.Create(ctx, &pkg); err != nil {
		return nil, storageError(err, "failed to create package")
	}
	s.queries.Invalidate(ctx, ScopePackages)
	return &pkg, nil
}

// Update replaces a package. Past purchases keep their own copy of credits
// and price.
func (s *PackageService) Update(ctx context.Context, id string, pkg models.Package) (*models.Package, error) {
	pkg.ID = id
	if err := s.validator.Struct(pkg); err != nil {
		return nil, validationError(err, "invalid package payload")
	}
	if err := s.repo.Update(ctx, &pkg); err != nil {
		return nil, storageError(err, "failed to update package")
	}
	s.queries.Invalidate(ctx, ScopePackages)
	return &pkg, nil
}

// Delete removes a package.
func (s *PackageService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "failed to delete package")
	}
	s.queries.Invalidate(ctx, ScopePackages)
	return nil
}
