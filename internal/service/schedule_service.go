package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

const (
	dateLayout    = "2006-01-02"
	clockLayout   = "15:04"
	minutesPerDay = 24 * 60
)

// ScheduleService creates, lists and cancels lesson sessions.
type ScheduleService struct {
	store     repository.Store
	settings  settingsReader
	queries   *QueryCache
	events    EventPublisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// NewScheduleService constructs the schedule service. Dates and clock times
// in requests, availability and blockouts are read in location.
func NewScheduleService(store repository.Store, settings settingsReader, queries *QueryCache, events EventPublisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, location *time.Location) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if events == nil {
		events = noopEvents{}
	}
	if location == nil {
		location = time.UTC
	}
	return &ScheduleService{
		store:     store,
		settings:  settings,
		queries:   queries,
		events:    events,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		location:  location,
		now:       time.Now,
	}
}

// List returns sessions matching filter ordered by start time.
func (s *ScheduleService) List(ctx context.Context, filter models.SessionFilter) ([]models.LessonSession, error) {
	sessions, _, err := cachedQuery(ctx, s.queries, QueryKey(ScopeSessions, filter), func(ctx context.Context) ([]models.LessonSession, error) {
		list, err := s.store.Sessions().List(ctx, filter)
		if err != nil {
			return nil, storageError(err, "failed to list sessions")
		}
		return list, nil
	})
	return sessions, err
}

// Upcoming lists sessions that have not started yet. With openOnly, full
// sessions are left out.
func (s *ScheduleService) Upcoming(ctx context.Context, filter models.SessionFilter, openOnly bool) ([]models.LessonSession, error) {
	from := s.now().UTC().Truncate(time.Minute)
	filter.From = &from
	filter.OnlyOpen = openOnly
	return s.List(ctx, filter)
}

// Get returns one session.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.LessonSession, error) {
	session, err := s.store.Sessions().GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "failed to load session")
	}
	return session, nil
}

// CreateSession schedules a single session. A blockout rejects it outright;
// a time outside the instructor's availability fails with
// ErrInstructorUnavailable unless req.Override is set.
func (s *ScheduleService) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.LessonSession, error) {
	req.Weeks = 1
	sessions, err := s.schedule(ctx, req)
	if err != nil {
		return nil, err
	}
	return &sessions[0], nil
}

// CreateRecurring schedules req.Weeks sessions one week apart sharing a
// recurring group id. Every occurrence is checked; all are stored or none.
func (s *ScheduleService) CreateRecurring(ctx context.Context, req models.CreateSessionRequest) ([]models.LessonSession, error) {
	if req.Weeks < 1 {
		req.Weeks = 1
	}
	return s.schedule(ctx, req)
}

func (s *ScheduleService) schedule(ctx context.Context, req models.CreateSessionRequest) ([]models.LessonSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid session payload")
	}

	start, err := time.ParseInLocation(dateLayout+" "+clockLayout, req.Date+" "+req.StartTime, s.location)
	if err != nil {
		return nil, validationError(err, "invalid session date or start time")
	}

	classType, err := s.store.ClassTypes().GetByID(ctx, req.ClassTypeID)
	if err != nil {
		return nil, storageError(err, "failed to load class type")
	}
	instructor, err := s.store.Users().GetByID(ctx, req.InstructorID)
	if err != nil {
		return nil, storageError(err, "failed to load instructor")
	}
	if instructor.Role != models.RoleInstructor && instructor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sessions must be taught by an instructor")
	}

	capacity := req.Capacity
	if capacity <= 0 {
		capacity = classType.Capacity
	}
	if s.settings != nil {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return nil, err
		}
		if capacity > settings.PoolCapacity {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("capacity %d exceeds the pool capacity of %d", capacity, settings.PoolCapacity))
		}
	}

	availability, err := s.store.Availability().List(ctx, req.InstructorID)
	if err != nil {
		return nil, storageError(err, "failed to load availability")
	}
	blockouts, err := s.store.Blockouts().List(ctx, req.InstructorID)
	if err != nil {
		return nil, storageError(err, "failed to load blockouts")
	}

	var groupID *string
	if req.Weeks > 1 {
		id := uuid.NewString()
		groupID = &id
	}

	duration := time.Duration(classType.DurationMinutes) * time.Minute
	sessions := make([]models.LessonSession, 0, req.Weeks)
	for week := 0; week < req.Weeks; week++ {
		occurrence := start.AddDate(0, 0, 7*week)
		end := occurrence.Add(duration)
		if err := CheckSlot(occurrence, end, s.location, availability, blockouts, req.Override); err != nil {
			return nil, err
		}
		sessions = append(sessions, models.LessonSession{
			ID:               uuid.NewString(),
			ClassTypeID:      classType.ID,
			InstructorID:     instructor.ID,
			StartTime:        occurrence.UTC(),
			EndTime:          end.UTC(),
			Capacity:         capacity,
			RecurringGroupID: groupID,
			EnrolledUserIDs:  []string{},
		})
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		for i := range sessions {
			if err := tx.Sessions().Create(ctx, &sessions[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err, "failed to create sessions")
	}

	s.queries.Invalidate(ctx, ScopeSessions)
	for _, session := range sessions {
		s.events.Publish(ctx, EventSessionScheduled, sessionEvent(session, ""))
	}
	s.logger.Info("sessions scheduled",
		zap.String("instructor_id", instructor.ID),
		zap.String("class_type_id", classType.ID),
		zap.Int("count", len(sessions)),
		zap.Bool("override", req.Override))
	return sessions, nil
}

// UpdateCapacity changes the seat count of a session. It cannot drop below
// the number of enrolled clients.
func (s *ScheduleService) UpdateCapacity(ctx context.Context, id string, capacity int) (*models.LessonSession, error) {
	if capacity <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "capacity must be positive")
	}
	var session *models.LessonSession
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Sessions().GetByID(ctx, id)
		if err != nil {
			return err
		}
		current.Capacity = capacity
		if err := tx.Sessions().Update(ctx, current); err != nil {
			return err
		}
		session, err = tx.Sessions().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, storageError(err, "failed to update session")
	}
	s.queries.Invalidate(ctx, ScopeSessions)
	return session, nil
}

// Delete cancels a session and refunds one credit to each enrolled client.
// Deleting an unknown session is a no-op.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	var (
		cancelled *models.LessonSession
		refunds   int
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		session, err := tx.Sessions().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, appErrors.ErrNotFound) {
				return nil
			}
			return err
		}
		if refunds, err = refundSession(ctx, tx, *session); err != nil {
			return err
		}
		cancelled = session
		return tx.Sessions().Delete(ctx, id)
	})
	if err != nil {
		return storageError(err, "failed to delete session")
	}
	if cancelled == nil {
		return nil
	}

	s.metrics.RecordCredits(CreditReasonRefund, refunds)
	s.queries.Invalidate(ctx, ScopeSessions)
	s.events.Publish(ctx, EventSessionCancelled, sessionEvent(*cancelled, "session deleted"))
	s.logger.Info("session deleted", zap.String("session_id", id), zap.Int("refunds", refunds))
	return nil
}

// CheckSlot validates a session window against an instructor's blockouts
// and weekly availability, comparing wall-clock minutes in loc. Any overlap
// with a blockout fails with ErrBlockedTime, including blockouts on the
// following dates of a session that runs past midnight. When no
// availability window of that weekday contains the start minute the result
// is ErrInstructorUnavailable, unless override is set.
func CheckSlot(start, end time.Time, loc *time.Location, availability []models.Availability, blockouts []models.Blockout, override bool) error {
	if loc == nil {
		loc = time.UTC
	}
	local := start.In(loc)
	startMinute := local.Hour()*60 + local.Minute()
	endMinute := startMinute + int(end.Sub(start)/time.Minute)

	// Minute offset of every date the session touches, relative to the
	// start date's midnight.
	offsets := map[string]int{}
	for day := 0; day == 0 || day*minutesPerDay < endMinute; day++ {
		offsets[local.AddDate(0, 0, day).Format(dateLayout)] = day * minutesPerDay
	}

	for _, b := range blockouts {
		offset, ok := offsets[b.Date]
		if !ok {
			continue
		}
		from, err1 := clockMinutes(b.StartTime)
		to, err2 := clockMinutes(b.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if startMinute < to+offset && from+offset < endMinute {
			msg := fmt.Sprintf("instructor is blocked out on %s from %s to %s", b.Date, b.StartTime, b.EndTime)
			if b.Reason != "" {
				msg += " (" + b.Reason + ")"
			}
			return appErrors.Clone(appErrors.ErrBlockedTime, msg)
		}
	}

	if override {
		return nil
	}
	weekday := int(local.Weekday())
	for _, a := range availability {
		if a.DayOfWeek != weekday {
			continue
		}
		from, err1 := clockMinutes(a.StartTime)
		to, err2 := clockMinutes(a.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if from <= startMinute && startMinute < to {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrInstructorUnavailable,
		fmt.Sprintf("instructor is not normally available on %s at %s; confirm with override to schedule anyway",
			local.Weekday(), local.Format(clockLayout)))
}

func clockMinutes(value string) (int, error) {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
