package repository

import (
	"context"

	"github.com/lovableswim/swim-api/internal/models"
)

// UserRepository persists profiles.
type UserRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	// AdjustCredits applies delta in a single conditional update and returns
	// the new balance. A result below zero fails with ErrInsufficientCredits.
	AdjustCredits(ctx context.Context, id string, delta int) (int, error)
}

// ClassTypeRepository persists class types.
type ClassTypeRepository interface {
	List(ctx context.Context) ([]models.ClassType, error)
	GetByID(ctx context.Context, id string) (*models.ClassType, error)
	Create(ctx context.Context, classType *models.ClassType) error
	Update(ctx context.Context, classType *models.ClassType) error
	Delete(ctx context.Context, id string) error
}

// SessionRepository persists lesson sessions and their enrollments.
type SessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.LessonSession, error)
	GetByID(ctx context.Context, id string) (*models.LessonSession, error)
	Create(ctx context.Context, session *models.LessonSession) error
	// Update changes schedule fields only; enrollments go through Enroll and
	// Unenroll.
	Update(ctx context.Context, session *models.LessonSession) error
	Delete(ctx context.Context, id string) error
	// Enroll adds userID atomically. It reports false without error when the
	// user already holds a seat and fails with ErrSessionFull at capacity.
	Enroll(ctx context.Context, sessionID, userID string) (bool, error)
	// Unenroll reports whether a seat was released.
	Unenroll(ctx context.Context, sessionID, userID string) (bool, error)
}

// PackageRepository persists credit packages.
type PackageRepository interface {
	List(ctx context.Context) ([]models.Package, error)
	GetByID(ctx context.Context, id string) (*models.Package, error)
	Create(ctx context.Context, pkg *models.Package) error
	Update(ctx context.Context, pkg *models.Package) error
	Delete(ctx context.Context, id string) error
}

// PurchaseRepository persists purchases. Purchases are immutable so there is
// no Update or Delete.
type PurchaseRepository interface {
	List(ctx context.Context, filter models.PurchaseFilter) ([]models.Purchase, error)
	GetByID(ctx context.Context, id string) (*models.Purchase, error)
	Create(ctx context.Context, purchase *models.Purchase) error
}

// AvailabilityRepository persists weekly availability windows. An empty
// instructorID lists all instructors.
type AvailabilityRepository interface {
	List(ctx context.Context, instructorID string) ([]models.Availability, error)
	GetByID(ctx context.Context, id string) (*models.Availability, error)
	Create(ctx context.Context, availability *models.Availability) error
	Update(ctx context.Context, availability *models.Availability) error
	Delete(ctx context.Context, id string) error
}

// BlockoutRepository persists one-off blockouts. An empty instructorID lists
// all instructors.
type BlockoutRepository interface {
	List(ctx context.Context, instructorID string) ([]models.Blockout, error)
	GetByID(ctx context.Context, id string) (*models.Blockout, error)
	Create(ctx context.Context, blockout *models.Blockout) error
	Update(ctx context.Context, blockout *models.Blockout) error
	Delete(ctx context.Context, id string) error
}

// ProgressRepository persists student skill progress keyed by student and
// skill.
type ProgressRepository interface {
	List(ctx context.Context, studentID string) ([]models.StudentProgress, error)
	Get(ctx context.Context, studentID, skillID string) (*models.StudentProgress, error)
	Upsert(ctx context.Context, progress *models.StudentProgress) error
	Delete(ctx context.Context, studentID, skillID string) error
}

// SettingsRepository persists the single settings row.
type SettingsRepository interface {
	// Get fails with ErrNotFound until settings have been saved once.
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
}

// Store is the persistence contract implemented by every backend.
type Store interface {
	Users() UserRepository
	ClassTypes() ClassTypeRepository
	Sessions() SessionRepository
	Packages() PackageRepository
	Purchases() PurchaseRepository
	Availability() AvailabilityRepository
	Blockouts() BlockoutRepository
	Progress() ProgressRepository
	Settings() SettingsRepository

	// WithinTx runs fn against a transactional view of the store. Changes
	// are committed when fn returns nil and discarded otherwise. Nested
	// calls join the outer transaction.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}
