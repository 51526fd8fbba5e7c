package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

type settingsReader interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// EnrollmentService books clients into sessions. Every enrollment consumes
// one package credit and every cancellation refunds it.
type EnrollmentService struct {
	store    repository.Store
	settings settingsReader
	queries  *QueryCache
	events   EventPublisher
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(store repository.Store, settings settingsReader, queries *QueryCache, events EventPublisher, metrics *MetricsService, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = noopEvents{}
	}
	return &EnrollmentService{store: store, settings: settings, queries: queries, events: events, metrics: metrics, logger: logger, now: time.Now}
}

// Enroll books userID into sessionID and debits one credit in the same
// transaction. Enrolling twice is a no-op without a second debit.
func (s *EnrollmentService) Enroll(ctx context.Context, sessionID, userID string) (*models.LessonSession, error) {
	var (
		session *models.LessonSession
		added   bool
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		added, err = enrollInTx(ctx, tx, sessionID, userID, s.now())
		if err != nil {
			return err
		}
		session, err = tx.Sessions().GetByID(ctx, sessionID)
		return err
	})
	if err != nil {
		s.metrics.RecordEnrollment(false)
		return nil, storageError(err, "failed to enroll")
	}

	if added {
		s.metrics.RecordEnrollment(true)
		s.metrics.RecordCredits(CreditReasonEnroll, 1)
		s.queries.Invalidate(ctx, ScopeSessions)
		s.events.Publish(ctx, EventEnrollmentCreated, map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
			"spots_left": session.SpotsLeft(),
		})
	}
	return session, nil
}

// Cancel releases the seat of userID and refunds the credit. When
// enforceWindow is set the cancellation must happen at least the configured
// number of hours before the session starts.
func (s *EnrollmentService) Cancel(ctx context.Context, sessionID, userID string, enforceWindow bool) (*models.LessonSession, error) {
	var cancelHours int
	if enforceWindow {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return nil, err
		}
		cancelHours = settings.CancellationHours
	}

	var (
		session  *models.LessonSession
		refunded bool
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if !current.HasEnrolled(userID) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		if enforceWindow {
			deadline := current.StartTime.Add(-time.Duration(cancelHours) * time.Hour)
			if !s.now().Before(deadline) {
				return appErrors.Clone(appErrors.ErrCancellationWindowClosed,
					fmt.Sprintf("cancellations close %d hours before the session starts", cancelHours))
			}
		}
		removed, err := tx.Sessions().Unenroll(ctx, sessionID, userID)
		if err != nil {
			return err
		}
		if removed {
			if refunded, err = refundUser(ctx, tx, userID); err != nil {
				return err
			}
		}
		session, err = tx.Sessions().GetByID(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, storageError(err, "failed to cancel enrollment")
	}

	if refunded {
		s.metrics.RecordCredits(CreditReasonRefund, 1)
	}
	s.queries.Invalidate(ctx, ScopeSessions)
	s.events.Publish(ctx, EventEnrollmentCancelled, map[string]interface{}{
		"session_id": sessionID,
		"user_id":    userID,
		"refunded":   refunded,
	})
	return session, nil
}

// enrollInTx runs the enrollment checks and writes against tx. It reports
// false when the user already held a seat.
func enrollInTx(ctx context.Context, tx repository.Store, sessionID, userID string, now time.Time) (bool, error) {
	session, err := tx.Sessions().GetByID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if session.HasEnrolled(userID) {
		return false, nil
	}
	if !session.StartTime.After(now) {
		return false, appErrors.Clone(appErrors.ErrValidation, "session has already started")
	}

	user, err := tx.Users().GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.Role != models.RoleClient {
		return false, appErrors.Clone(appErrors.ErrValidation, "only clients can be enrolled")
	}
	if session.IsFull() {
		return false, repository.SessionFull(sessionID)
	}

	if _, err := tx.Users().AdjustCredits(ctx, userID, -1); err != nil {
		return false, err
	}
	added, err := tx.Sessions().Enroll(ctx, sessionID, userID)
	if err != nil {
		return false, err
	}
	if !added {
		// A concurrent request won the seat; give the credit back.
		if _, err := tx.Users().AdjustCredits(ctx, userID, 1); err != nil {
			return false, err
		}
	}
	return added, nil
}

// refundSession returns one credit to every enrolled client of session and
// reports how many were refunded.
func refundSession(ctx context.Context, tx repository.Store, session models.LessonSession) (int, error) {
	refunded := 0
	for _, userID := range session.EnrolledUserIDs {
		ok, err := refundUser(ctx, tx, userID)
		if err != nil {
			return refunded, err
		}
		if ok {
			refunded++
		}
	}
	return refunded, nil
}

func refundUser(ctx context.Context, tx repository.Store, userID string) (bool, error) {
	user, err := tx.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.Role != models.RoleClient {
		return false, nil
	}
	if _, err := tx.Users().AdjustCredits(ctx, userID, 1); err != nil {
		return false, err
	}
	return true, nil
}

func sessionEvent(session models.LessonSession, reason string) map[string]interface{} {
	return map[string]interface{}{
		"session_id":    session.ID,
		"class_type_id": session.ClassTypeID,
		"instructor_id": session.InstructorID,
		"start_time":    session.StartTime,
		"enrolled":      session.EnrolledUserIDs,
		"reason":        reason,
	}
}
