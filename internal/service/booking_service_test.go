package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovableswim/swim-api/internal/booking"
	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

func startDraft(t *testing.T, f *fixture, userID, sessionID string) *booking.Draft {
	t.Helper()
	ctx := context.Background()
	draft, err := f.booking.Start(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, booking.StepSelectClass, draft.Step)

	draft, err = f.booking.SelectClass(ctx, userID, draft.ID, "c1")
	require.NoError(t, err)
	assert.Equal(t, booking.StepSelectSchedule, draft.Step)

	draft, err = f.booking.SelectSession(ctx, userID, draft.ID, sessionID)
	require.NoError(t, err)
	return draft
}

func TestBookingWithCredits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.session(t, "2025-11-03", "10:00", 0)

	draft := startDraft(t, f, "u1", session.ID)
	assert.Equal(t, booking.StepConfirm, draft.Step, "clients with credits skip the package step")

	result, err := f.booking.Confirm(ctx, "u1", draft.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StepCompleted, result.Draft.Step)
	assert.Nil(t, result.Purchase)
	assert.Equal(t, 4, result.PackageCredits)
	assert.Equal(t, []string{"u1"}, result.Session.EnrolledUserIDs)
	assert.Contains(t, f.events.types(), EventBookingConfirmed)

	stored, err := f.booking.Get(ctx, "u1", draft.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StepCompleted, stored.Step)

	_, err = f.booking.Confirm(ctx, "u1", draft.ID)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidTransition))
}

func TestBookingWithPackagePurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client(t, "u2", 0)
	session := f.session(t, "2025-11-03", "10:00", 0)

	draft := startDraft(t, f, "u2", session.ID)
	assert.Equal(t, booking.StepSelectPackage, draft.Step)

	draft, err := f.booking.SelectPackage(ctx, "u2", draft.ID, SelectPackageRequest{PackageID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, booking.StepConfirm, draft.Step)

	result, err := f.booking.Confirm(ctx, "u2", draft.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Purchase)
	assert.Equal(t, "p1", result.Purchase.PackageID)
	assert.Equal(t, 5, result.Purchase.Credits)
	assert.Equal(t, 4, result.PackageCredits, "five bought, one spent")
	assert.Equal(t, 4, f.credits(t, "u2"))
}

func TestBookingPayPerLesson(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client(t, "u2", 0)
	session := f.session(t, "2025-11-03", "10:00", 0)

	draft := startDraft(t, f, "u2", session.ID)
	draft, err := f.booking.SelectPackage(ctx, "u2", draft.ID, SelectPackageRequest{PayPerLesson: true})
	require.NoError(t, err)
	assert.True(t, draft.PayPerLesson)

	result, err := f.booking.Confirm(ctx, "u2", draft.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Purchase)
	assert.Equal(t, models.SingleLessonPackageID, result.Purchase.PackageID)
	assert.Equal(t, "Single lesson: Beginner Group", result.Purchase.PackageName)
	assert.Equal(t, 1, result.Purchase.Credits)
	assert.Equal(t, 40.0, result.Purchase.Price)
	assert.Equal(t, 0, result.PackageCredits)
}

func TestBookingCommitFailureKeepsConfirmStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client(t, "u2", 0)
	session := f.session(t, "2025-11-03", "10:00", 1)

	draft := startDraft(t, f, "u2", session.ID)
	draft, err := f.booking.SelectPackage(ctx, "u2", draft.ID, SelectPackageRequest{PackageID: "p1"})
	require.NoError(t, err)

	// Someone else takes the last seat before the draft is confirmed.
	_, err = f.enrollment.Enroll(ctx, session.ID, "u1")
	require.NoError(t, err)

	_, err = f.booking.Confirm(ctx, "u2", draft.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSessionFull))

	stored, err := f.booking.Get(ctx, "u2", draft.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StepConfirm, stored.Step)
	assert.Contains(t, stored.LastError, "Class full")

	assert.Equal(t, 0, f.credits(t, "u2"), "the package purchase rolled back")
	purchases, err := f.purchases.List(ctx, models.PurchaseFilter{UserID: "u2"})
	require.NoError(t, err)
	assert.Empty(t, purchases)
}

func TestBookingStepValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.session(t, "2025-11-03", "10:00", 0)

	draft, err := f.booking.Start(ctx, "u1")
	require.NoError(t, err)

	_, err = f.booking.SelectSession(ctx, "u1", draft.ID, session.ID)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidTransition), "class must be chosen first")

	_, err = f.booking.SelectClass(ctx, "u1", draft.ID, "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	draft, err = f.booking.SelectClass(ctx, "u1", draft.ID, "c2")
	require.NoError(t, err)
	_, err = f.booking.SelectSession(ctx, "u1", draft.ID, session.ID)
	assert.True(t, errors.Is(err, appErrors.ErrValidation), "session belongs to another class")

	draft, err = f.booking.Back(ctx, "u1", draft.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StepSelectClass, draft.Step)

	_, err = f.booking.Get(ctx, "u2", draft.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound), "drafts are private")

	require.NoError(t, f.booking.Cancel(ctx, "u1", draft.ID))
	_, err = f.booking.Get(ctx, "u1", draft.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestBookingRejectsAlreadyBookedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.session(t, "2025-11-03", "10:00", 0)

	draft := startDraft(t, f, "u1", session.ID)
	_, err := f.enrollment.Enroll(ctx, session.ID, "u1")
	require.NoError(t, err)

	_, err = f.booking.Confirm(ctx, "u1", draft.ID)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Equal(t, 4, f.credits(t, "u1"))
}

// seatTakenStore reports every enrollment as already held, as when another
// confirmation of the same draft commits first.
type seatTakenStore struct {
	repository.Store
}

func (s seatTakenStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(seatTakenStore{Store: tx})
	})
}

func (s seatTakenStore) Sessions() repository.SessionRepository {
	return seatTakenSessions{SessionRepository: s.Store.Sessions()}
}

type seatTakenSessions struct {
	repository.SessionRepository
}

func (seatTakenSessions) Enroll(context.Context, string, string) (bool, error) {
	return false, nil
}

func TestBookingConfirmLosingSeatRollsBackPurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client(t, "u2", 0)
	session := f.session(t, "2025-11-03", "10:00", 0)

	draft := startDraft(t, f, "u2", session.ID)
	draft, err := f.booking.SelectPackage(ctx, "u2", draft.ID, SelectPackageRequest{PayPerLesson: true})
	require.NoError(t, err)

	f.booking.store = seatTakenStore{Store: f.store}
	_, err = f.booking.Confirm(ctx, "u2", draft.ID)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	assert.Equal(t, 0, f.credits(t, "u2"))
	purchases, err := f.purchases.List(ctx, models.PurchaseFilter{UserID: "u2"})
	require.NoError(t, err)
	assert.Empty(t, purchases, "no second pay-per-lesson charge")

	stored, err := f.booking.Get(ctx, "u2", draft.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StepConfirm, stored.Step)
}
