package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lovableswim/swim-api/internal/booking"
	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

// SelectPackageRequest picks a package or pay-per-lesson in the wizard.
type SelectPackageRequest struct {
	PackageID    string `json:"package_id"`
	PayPerLesson bool   `json:"pay_per_lesson"`
}

// BookingService drives the booking wizard and commits confirmed drafts.
type BookingService struct {
	store   repository.Store
	drafts  *booking.DraftStore
	queries *QueryCache
	events  EventPublisher
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewBookingService constructs the booking service.
func NewBookingService(store repository.Store, drafts *booking.DraftStore, queries *QueryCache, events EventPublisher, metrics *MetricsService, logger *zap.Logger) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = noopEvents{}
	}
	return &BookingService{store: store, drafts: drafts, queries: queries, events: events, metrics: metrics, logger: logger, now: time.Now}
}

// Start opens a new draft for userID.
func (s *BookingService) Start(ctx context.Context, userID string) (*booking.Draft, error) {
	draft := booking.NewDraft(uuid.NewString(), userID, s.now().UTC())
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, storageError(err, "failed to save booking draft")
	}
	return draft, nil
}

// Get returns a draft owned by userID.
func (s *BookingService) Get(ctx context.Context, userID, draftID string) (*booking.Draft, error) {
	draft, err := s.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, storageError(err, "failed to load booking draft")
	}
	if draft.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "booking draft not found or expired")
	}
	return draft, nil
}

// SelectClass picks the class type.
func (s *BookingService) SelectClass(ctx context.Context, userID, draftID, classTypeID string) (*booking.Draft, error) {
	return s.step(ctx, userID, draftID, func(draft *booking.Draft, now time.Time) error {
		if _, err := s.store.ClassTypes().GetByID(ctx, classTypeID); err != nil {
			return err
		}
		return draft.ChooseClass(classTypeID, now)
	})
}

// SelectSession picks an upcoming, open session of the chosen class. The
// client's credit balance decides whether a package must be picked next.
func (s *BookingService) SelectSession(ctx context.Context, userID, draftID, sessionID string) (*booking.Draft, error) {
	return s.step(ctx, userID, draftID, func(draft *booking.Draft, now time.Time) error {
		if err := draft.Expect(booking.StepSelectSchedule, "choose a session"); err != nil {
			return err
		}
		session, err := s.store.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.ClassTypeID != draft.ClassTypeID {
			return appErrors.Clone(appErrors.ErrValidation, "session does not belong to the chosen class")
		}
		if !session.StartTime.After(now) {
			return appErrors.Clone(appErrors.ErrValidation, "session has already started")
		}
		if session.HasEnrolled(userID) {
			return appErrors.Clone(appErrors.ErrConflict, "already booked on this session")
		}
		if session.IsFull() {
			return repository.SessionFull(sessionID)
		}
		user, err := s.store.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		return draft.ChooseSession(sessionID, user.PackageCredits, now)
	})
}

// SelectPackage picks a package to buy, or pay-per-lesson.
func (s *BookingService) SelectPackage(ctx context.Context, userID, draftID string, req SelectPackageRequest) (*booking.Draft, error) {
	return s.step(ctx, userID, draftID, func(draft *booking.Draft, now time.Time) error {
		if err := draft.Expect(booking.StepSelectPackage, "choose a package"); err != nil {
			return err
		}
		if req.PayPerLesson {
			return draft.ChoosePayPerLesson(now)
		}
		if req.PackageID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "package_id or pay_per_lesson is required")
		}
		if _, err := s.store.Packages().GetByID(ctx, req.PackageID); err != nil {
			return err
		}
		return draft.ChoosePackage(req.PackageID, now)
	})
}

// Back returns to the previous step.
func (s *BookingService) Back(ctx context.Context, userID, draftID string) (*booking.Draft, error) {
	return s.step(ctx, userID, draftID, func(draft *booking.Draft, now time.Time) error {
		return draft.Back(now)
	})
}

// Cancel abandons a draft.
func (s *BookingService) Cancel(ctx context.Context, userID, draftID string) error {
	if _, err := s.Get(ctx, userID, draftID); err != nil {
		return err
	}
	if err := s.drafts.Delete(ctx, draftID); err != nil {
		return storageError(err, "failed to delete booking draft")
	}
	return nil
}

// Confirm commits the draft: the package purchase (or single lesson) and the
// enrollment run in one transaction. On failure nothing is written and the
// draft stays in CONFIRM with the error recorded.
func (s *BookingService) Confirm(ctx context.Context, userID, draftID string) (*booking.Result, error) {
	draft, err := s.Get(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}
	if err := draft.CanConfirm(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var (
		purchase *models.PurchaseResult
		session  *models.LessonSession
		balance  int
	)
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Sessions().GetByID(ctx, draft.SessionID)
		if err != nil {
			return err
		}
		if current.HasEnrolled(userID) {
			return appErrors.Clone(appErrors.ErrConflict, "already booked on this session")
		}

		switch {
		case draft.PackageID != "":
			pkg, err := tx.Packages().GetByID(ctx, draft.PackageID)
			if err != nil {
				return err
			}
			if purchase, err = purchaseInTx(ctx, tx, userID, pkg.ID, pkg.Name, pkg.Credits, pkg.Price, now); err != nil {
				return err
			}
		case draft.PayPerLesson:
			classType, err := tx.ClassTypes().GetByID(ctx, current.ClassTypeID)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("Single lesson: %s", classType.Name)
			if purchase, err = purchaseInTx(ctx, tx, userID, models.SingleLessonPackageID, name, 1, classType.PriceSingle, now); err != nil {
				return err
			}
		}

		added, err := enrollInTx(ctx, tx, draft.SessionID, userID, now)
		if err != nil {
			return err
		}
		if !added {
			return appErrors.Clone(appErrors.ErrConflict, "already booked on this session")
		}
		if session, err = tx.Sessions().GetByID(ctx, draft.SessionID); err != nil {
			return err
		}
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		balance = user.PackageCredits
		return nil
	})
	if err != nil {
		s.metrics.RecordEnrollment(false)
		draft.Fail(err, now)
		if saveErr := s.drafts.Save(ctx, draft); saveErr != nil {
			s.logger.Warn("failed to save failed booking draft", zap.String("draft_id", draftID), zap.Error(saveErr))
		}
		return nil, storageError(err, "failed to confirm booking")
	}

	if err := draft.Complete(now); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		s.logger.Warn("failed to save completed booking draft", zap.String("draft_id", draftID), zap.Error(err))
	}

	result := &booking.Result{Draft: draft, Session: *session, PackageCredits: balance}
	if purchase != nil {
		result.Purchase = &purchase.Purchase
		s.metrics.RecordCredits(CreditReasonPurchase, purchase.Purchase.Credits)
		s.events.Publish(ctx, EventPackagePurchased, map[string]interface{}{
			"purchase_id": purchase.Purchase.ID,
			"user_id":     userID,
			"package_id":  purchase.Purchase.PackageID,
			"credits":     purchase.Purchase.Credits,
			"price":       purchase.Purchase.Price,
		})
	}
	s.metrics.RecordEnrollment(true)
	s.metrics.RecordCredits(CreditReasonEnroll, 1)
	s.queries.Invalidate(ctx, ScopeSessions)
	s.events.Publish(ctx, EventBookingConfirmed, map[string]interface{}{
		"draft_id":   draft.ID,
		"user_id":    userID,
		"session_id": session.ID,
		"balance":    balance,
	})
	s.logger.Info("booking confirmed", zap.String("user_id", userID), zap.String("session_id", session.ID))
	return result, nil
}

func (s *BookingService) step(ctx context.Context, userID, draftID string, apply func(draft *booking.Draft, now time.Time) error) (*booking.Draft, error) {
	draft, err := s.Get(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}
	if err := apply(draft, s.now().UTC()); err != nil {
		return nil, storageError(err, "failed to update booking draft")
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, storageError(err, "failed to save booking draft")
	}
	return draft, nil
}
