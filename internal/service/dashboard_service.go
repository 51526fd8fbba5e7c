package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lovableswim/swim-api/internal/models"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

type dashboardUsers interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

type dashboardSchedule interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.LessonSession, error)
}

type dashboardAvailability interface {
	ListAvailability(ctx context.Context, instructorID string) ([]models.Availability, error)
	ListBlockouts(ctx context.Context, instructorID string) ([]models.Blockout, error)
}

type dashboardPurchases interface {
	List(ctx context.Context, filter models.PurchaseFilter) ([]models.Purchase, error)
}

type dashboardProgress interface {
	List(ctx context.Context, studentID string) ([]models.StudentProgress, error)
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Users        dashboardUsers
	Schedule     dashboardSchedule
	Availability dashboardAvailability
	Purchases    dashboardPurchases
	Progress     dashboardProgress
	Logger       *zap.Logger
}

// DashboardService composes the portal payloads of instructors and clients.
type DashboardService struct {
	users        dashboardUsers
	schedule     dashboardSchedule
	availability dashboardAvailability
	purchases    dashboardPurchases
	progress     dashboardProgress
	logger       *zap.Logger
	now          func() time.Time
}

// NewDashboardService constructs a dashboard service.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:        params.Users,
		schedule:     params.Schedule,
		availability: params.Availability,
		purchases:    params.Purchases,
		progress:     params.Progress,
		logger:       logger,
		now:          time.Now,
	}
}

// Instructor returns availability, blockouts and taught sessions of one
// instructor.
func (s *DashboardService) Instructor(ctx context.Context, instructorID string) (*models.InstructorDashboard, error) {
	user, err := s.users.Get(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleInstructor && user.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}

	availability, err := s.availability.ListAvailability(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	blockouts, err := s.availability.ListBlockouts(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.schedule.List(ctx, models.SessionFilter{InstructorID: instructorID})
	if err != nil {
		return nil, err
	}

	return &models.InstructorDashboard{
		InstructorID: instructorID,
		Availability: availability,
		Blockouts:    blockouts,
		Sessions:     sessions,
	}, nil
}

// Client returns the profile, booked sessions split at now, purchases and
// skill progress of one client.
func (s *DashboardService) Client(ctx context.Context, userID string) (*models.ClientDashboard, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.schedule.List(ctx, models.SessionFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	purchases, err := s.purchases.List(ctx, models.PurchaseFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	progress, err := s.progress.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	dashboard := &models.ClientDashboard{
		User:      *user,
		Upcoming:  []models.LessonSession{},
		Past:      []models.LessonSession{},
		Purchases: purchases,
		Progress:  progress,
	}
	now := s.now()
	for _, session := range sessions {
		if session.StartTime.After(now) {
			dashboard.Upcoming = append(dashboard.Upcoming, session)
		} else {
			dashboard.Past = append(dashboard.Past, session)
		}
	}
	// Most recent lesson first.
	for i, j := 0, len(dashboard.Past)-1; i < j; i, j = i+1, j-1 {
		dashboard.Past[i], dashboard.Past[j] = dashboard.Past[j], dashboard.Past[i]
	}
	return dashboard, nil
}
