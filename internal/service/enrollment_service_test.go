package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

func TestEnrollDebitsOneCredit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.session(t, "2025-11-03", "10:00", 0)

	updated, err := f.enrollment.Enroll(ctx, session.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, updated.EnrolledUserIDs)
	assert.Equal(t, 4, f.credits(t, "u1"))

	again, err := f.enrollment.Enroll(ctx, session.ID, "u1")
	require.NoError(t, err)
	assert.Len(t, again.EnrolledUserIDs, 1)
	assert.Equal(t, 4, f.credits(t, "u1"), "re-enrolling does not debit twice")

	snap := f.metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.Enrollments)
	assert.Equal(t, uint64(1), snap.CreditsDebited)
	assert.Equal(t, []string{EventSessionScheduled, EventEnrollmentCreated}, f.events.types())
}

func TestEnrollFullSessionKeepsCredits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.session(t, "2025-11-03", "10:00", 1)
	f.client(t, "u2", 1)

	_, err := f.enrollment.Enroll(ctx, session.ID, "u2")
	require.NoError(t, err)

	_, err = f.enrollment.Enroll(ctx, session.ID, "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSessionFull))
	assert.Contains(t, err.Error(), "Class full")
	assert.Equal(t, 5, f.credits(t, "u1"))
	assert.Equal(t, uint64(1), f.metrics.Snapshot().EnrollmentsRejected)
}

func TestEnrollWithoutCreditsFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.session(t, "2025-11-03", "10:00", 0)
	f.client(t, "u2", 0)

	_, err := f.enrollment.Enroll(ctx, session.ID, "u2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInsufficientCredits))

	stored, err := f.schedule.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.EnrolledUserIDs)
}

func TestEnrollRejectsNonClientsAndStartedSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.session(t, "2025-11-03", "10:00", 0)

	_, err := f.enrollment.Enroll(ctx, session.ID, "i1")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	f.enrollment.now = func() time.Time { return session.StartTime }
	_, err = f.enrollment.Enroll(ctx, session.ID, "u1")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, 5, f.credits(t, "u1"))

	_, err = f.enrollment.Enroll(ctx, "missing", "u1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestConcurrentEnrollmentNeverOverbooks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.session(t, "2025-11-03", "10:00", 3)
	ids := []string{"c01", "c02", "c03", "c04", "c05", "c06", "c07", "c08"}
	for _, id := range ids {
		f.client(t, id, 1)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = f.enrollment.Enroll(ctx, session.ID, id)
		}(id)
	}
	wg.Wait()

	stored, err := f.schedule.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, stored.EnrolledUserIDs, 3)

	remaining := 0
	for _, id := range ids {
		remaining += f.credits(t, id)
	}
	assert.Equal(t, len(ids)-3, remaining, "only seated clients are debited")
}

func TestCancelRefundsCredit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.session(t, "2025-11-03", "10:00", 0)
	_, err := f.enrollment.Enroll(ctx, session.ID, "u1")
	require.NoError(t, err)

	updated, err := f.enrollment.Cancel(ctx, session.ID, "u1", true)
	require.NoError(t, err)
	assert.Empty(t, updated.EnrolledUserIDs)
	assert.Equal(t, 5, f.credits(t, "u1"))
	assert.Equal(t, uint64(1), f.metrics.Snapshot().CreditsRefunded)
	assert.Contains(t, f.events.types(), EventEnrollmentCancelled)

	_, err = f.enrollment.Cancel(ctx, session.ID, "u1", true)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestCancelWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.session(t, "2025-11-03", "10:00", 0)
	_, err := f.enrollment.Enroll(ctx, session.ID, "u1")
	require.NoError(t, err)

	// 24 hours before the start the window has just closed.
	f.enrollment.now = func() time.Time { return session.StartTime.Add(-24 * time.Hour) }
	_, err = f.enrollment.Cancel(ctx, session.ID, "u1", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrCancellationWindowClosed))
	assert.Equal(t, 4, f.credits(t, "u1"))

	_, err = f.enrollment.Cancel(ctx, session.ID, "u1", false)
	require.NoError(t, err, "staff cancellations ignore the window")
	assert.Equal(t, 5, f.credits(t, "u1"))
}

func TestCancelWindowFollowsSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.session(t, "2025-11-03", "10:00", 0)
	_, err := f.enrollment.Enroll(ctx, session.ID, "u1")
	require.NoError(t, err)

	settings := testSettings()
	settings.CancellationHours = 2
	_, err = f.settings.Save(ctx, settings)
	require.NoError(t, err)

	f.enrollment.now = func() time.Time { return session.StartTime.Add(-3 * time.Hour) }
	_, err = f.enrollment.Cancel(ctx, session.ID, "u1", true)
	require.NoError(t, err)
}
