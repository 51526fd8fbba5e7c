package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

func newTestDashboard(f *fixture) *DashboardService {
	return NewDashboardService(DashboardServiceParams{
		Users:        NewUserService(f.store, f.queries, f.events, f.metrics, nil, nil),
		Schedule:     f.schedule,
		Availability: NewAvailabilityService(f.store, f.queries, nil, nil),
		Purchases:    f.purchases,
		Progress:     NewProgressService(f.store.Progress(), nil, nil),
	})
}

func TestClientDashboardSplitsSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.session(t, "2025-11-03", "10:00", 0)
	second := f.session(t, "2025-11-05", "10:00", 0)
	third := f.session(t, "2025-11-07", "10:00", 0)
	for _, s := range []string{first.ID, second.ID, third.ID} {
		_, err := f.enrollment.Enroll(ctx, s, "u1")
		require.NoError(t, err)
	}

	svc := newTestDashboard(f)
	svc.now = func() time.Time { return time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC) }

	dashboard, err := svc.Client(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, dashboard.User.PackageCredits)
	require.Len(t, dashboard.Upcoming, 1)
	assert.Equal(t, third.ID, dashboard.Upcoming[0].ID)
	require.Len(t, dashboard.Past, 2)
	assert.Equal(t, second.ID, dashboard.Past[0].ID, "most recent first")
	assert.Len(t, dashboard.Purchases, 1)
	assert.Len(t, dashboard.Progress, 5)
}

func TestInstructorDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.session(t, "2025-11-03", "10:00", 0)

	svc := newTestDashboard(f)
	dashboard, err := svc.Instructor(ctx, "i1")
	require.NoError(t, err)
	assert.Len(t, dashboard.Availability, 3)
	assert.Empty(t, dashboard.Blockouts)
	assert.Len(t, dashboard.Sessions, 1)

	_, err = svc.Instructor(ctx, "u1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
