package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

// UserService handles user management workflows.
type UserService struct {
	store     repository.Store
	queries   *QueryCache
	events    EventPublisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(store repository.Store, queries *QueryCache, events EventPublisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if events == nil {
		events = noopEvents{}
	}
	return &UserService{store: store, queries: queries, events: events, metrics: metrics, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, err := s.store.Users().List(ctx, filter)
	if err != nil {
		return nil, nil, storageError(err, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	total := len(users)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return users[start:end], &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "failed to load user")
	}
	return user, nil
}

// Create provisions an account with a password.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid create user payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Email:          models.NormalizeEmail(req.Email),
		Role:           req.Role,
		AvatarURL:      req.AvatarURL,
		PackageCredits: req.PackageCredits,
		PasswordHash:   string(hash),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, appErrors.ErrConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		return nil, storageError(err, "failed to create user")
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update applies a partial profile update. Only admins may change role and
// credits; the handler enforces that. A credit change is applied as the
// difference to the balance read in the same transaction, so concurrent
// purchases and refunds are kept.
func (s *UserService) Update(ctx context.Context, id string, req models.UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid update user payload")
	}

	var updated *models.User
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			user.Name = *req.Name
		}
		if req.Email != nil {
			user.Email = models.NormalizeEmail(*req.Email)
		}
		if req.Role != nil {
			user.Role = *req.Role
		}
		if req.AvatarURL != nil {
			user.AvatarURL = *req.AvatarURL
		}
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}

		if req.PackageCredits != nil {
			if delta := *req.PackageCredits - user.PackageCredits; delta != 0 {
				if _, err := tx.Users().AdjustCredits(ctx, id, delta); err != nil {
					return err
				}
			}
		}

		updated, err = tx.Users().GetByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		return nil, storageError(err, "failed to update user")
	}
	return updated, nil
}

// Delete removes a user. Sessions taught by the user are cancelled first and
// their enrolled clients refunded, as when deleting a session directly.
// Deleting an unknown id succeeds.
func (s *UserService) Delete(ctx context.Context, id string) error {
	var cancelled []models.LessonSession
	refunds := 0
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		taught, err := tx.Sessions().List(ctx, models.SessionFilter{InstructorID: id})
		if err != nil {
			return err
		}
		for _, listed := range taught {
			session, err := tx.Sessions().GetByID(ctx, listed.ID)
			if err != nil {
				if errors.Is(err, appErrors.ErrNotFound) {
					continue
				}
				return err
			}
			n, err := refundSession(ctx, tx, *session)
			if err != nil {
				return err
			}
			if err := tx.Sessions().Delete(ctx, session.ID); err != nil {
				return err
			}
			refunds += n
			cancelled = append(cancelled, *session)
		}
		return tx.Users().Delete(ctx, id)
	})
	if err != nil {
		return storageError(err, "failed to delete user")
	}

	s.metrics.RecordCredits(CreditReasonRefund, refunds)
	s.queries.Invalidate(ctx, ScopeSessions, ScopeSchedule)
	for _, session := range cancelled {
		s.events.Publish(ctx, EventSessionCancelled, sessionEvent(session, "instructor deleted"))
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.Int("sessions", len(cancelled)), zap.Int("refunds", refunds))
	return nil
}

// EnsureAdmin creates the bootstrap administrator unless the email is
// already registered.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, appErrors.ErrNotFound) {
		return storageError(err, "failed to look up bootstrap admin")
	}
	if name == "" {
		name = "Administrator"
	}
	_, err := s.Create(ctx, models.CreateUserRequest{Name: name, Email: email, Password: password, Role: models.RoleAdmin})
	return err
}
