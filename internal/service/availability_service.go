package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

// AvailabilityService manages instructors' weekly availability and one-off
// blockouts.
type AvailabilityService struct {
	store     repository.Store
	queries   *QueryCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs the availability service.
func NewAvailabilityService(store repository.Store, queries *QueryCache, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AvailabilityService{store: store, queries: queries, validator: validate, logger: logger}
}

// ListAvailability returns the weekly windows of an instructor, or of every
// instructor when instructorID is empty.
func (s *AvailabilityService) ListAvailability(ctx context.Context, instructorID string) ([]models.Availability, error) {
	key := QueryKey(ScopeSchedule, map[string]string{"kind": "availability", "instructor": instructorID})
	slots, _, err := cachedQuery(ctx, s.queries, key, func(ctx context.Context) ([]models.Availability, error) {
		list, err := s.store.Availability().List(ctx, instructorID)
		if err != nil {
			return nil, storageError(err, "failed to list availability")
		}
		return list, nil
	})
	return slots, err
}

// CreateAvailability adds a weekly window.
func (s *AvailabilityService) CreateAvailability(ctx context.Context, slot models.Availability) (*models.Availability, error) {
	slot.ID = uuid.NewString()
	if err := s.validateWindow(slot, slot.StartTime, slot.EndTime); err != nil {
		return nil, err
	}
	if err := s.requireInstructor(ctx, slot.InstructorID); err != nil {
		return nil, err
	}
	if err := s.store.Availability().Create(ctx, &slot); err != nil {
		return nil, storageError(err, "failed to create availability")
	}
	s.queries.Invalidate(ctx, ScopeSchedule)
	return &slot, nil
}

// UpdateAvailability replaces a weekly window. The owning instructor cannot
// change.
func (s *AvailabilityService) UpdateAvailability(ctx context.Context, id string, slot models.Availability) (*models.Availability, error) {
	existing, err := s.store.Availability().GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "failed to load availability")
	}
	slot.ID = id
	slot.InstructorID = existing.InstructorID
	if err := s.validateWindow(slot, slot.StartTime, slot.EndTime); err != nil {
		return nil, err
	}
	if err := s.store.Availability().Update(ctx, &slot); err != nil {
		return nil, storageError(err, "failed to update availability")
	}
	s.queries.Invalidate(ctx, ScopeSchedule)
	return &slot, nil
}

// GetAvailability returns one window.
func (s *AvailabilityService) GetAvailability(ctx context.Context, id string) (*models.Availability, error) {
	slot, err := s.store.Availability().GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "failed to load availability")
	}
	return slot, nil
}

// DeleteAvailability removes a weekly window.
func (s *AvailabilityService) DeleteAvailability(ctx context.Context, id string) error {
	if err := s.store.Availability().Delete(ctx, id); err != nil {
		return storageError(err, "failed to delete availability")
	}
	s.queries.Invalidate(ctx, ScopeSchedule)
	return nil
}

// ListBlockouts returns the blockouts of an instructor, or all of them when
// instructorID is empty.
func (s *AvailabilityService) ListBlockouts(ctx context.Context, instructorID string) ([]models.Blockout, error) {
	key := QueryKey(ScopeSchedule, map[string]string{"kind": "blockouts", "instructor": instructorID})
	blockouts, _, err := cachedQuery(ctx, s.queries, key, func(ctx context.Context) ([]models.Blockout, error) {
		list, err := s.store.Blockouts().List(ctx, instructorID)
		if err != nil {
			return nil, storageError(err, "failed to list blockouts")
		}
		return list, nil
	})
	return blockouts, err
}

// GetBlockout returns one blockout.
func (s *AvailabilityService) GetBlockout(ctx context.Context, id string) (*models.Blockout, error) {
	blockout, err := s.store.Blockouts().GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "failed to load blockout")
	}
	return blockout, nil
}

// CreateBlockout adds a blockout. Sessions already scheduled inside it are
// left alone.
func (s *AvailabilityService) CreateBlockout(ctx context.Context, blockout models.Blockout) (*models.Blockout, error) {
	blockout.ID = uuid.NewString()
	if err := s.validateWindow(blockout, blockout.StartTime, blockout.EndTime); err != nil {
		return nil, err
	}
	if err := s.requireInstructor(ctx, blockout.InstructorID); err != nil {
		return nil, err
	}
	if err := s.store.Blockouts().Create(ctx, &blockout); err != nil {
		return nil, storageError(err, "failed to create blockout")
	}
	s.queries.Invalidate(ctx, ScopeSchedule)
	return &blockout, nil
}

// UpdateBlockout replaces a blockout.
func (s *AvailabilityService) UpdateBlockout(ctx context.Context, id string, blockout models.Blockout) (*models.Blockout, error) {
	existing, err := s.store.Blockouts().GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "failed to load blockout")
	}
	blockout.ID = id
	blockout.InstructorID = existing.InstructorID
	if err := s.validateWindow(blockout, blockout.StartTime, blockout.EndTime); err != nil {
		return nil, err
	}
	if err := s.store.Blockouts().Update(ctx, &blockout); err != nil {
		return nil, storageError(err, "failed to update blockout")
	}
	s.queries.Invalidate(ctx, ScopeSchedule)
	return &blockout, nil
}

// DeleteBlockout removes a blockout.
func (s *AvailabilityService) DeleteBlockout(ctx context.Context, id string) error {
	if err := s.store.Blockouts().Delete(ctx, id); err != nil {
		return storageError(err, "failed to delete blockout")
	}
	s.queries.Invalidate(ctx, ScopeSchedule)
	return nil
}

func (s *AvailabilityService) validateWindow(entity interface{}, start, end string) error {
	if err := s.validator.Struct(entity); err != nil {
		return validationError(err, "invalid time window")
	}
	if start >= end {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("start time %s must be before end time %s", start, end))
	}
	return nil
}

func (s *AvailabilityService) requireInstructor(ctx context.Context, id string) error {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return storageError(err, "failed to load instructor")
	}
	if user.Role != models.RoleInstructor && user.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrValidation, "user is not an instructor")
	}
	return nil
}
