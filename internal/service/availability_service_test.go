package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovableswim/swim-api/internal/models"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

func TestAvailabilityLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewAvailabilityService(f.store, f.queries, nil, nil)

	slots, err := svc.ListAvailability(ctx, "i1")
	require.NoError(t, err)
	assert.Len(t, slots, 3)

	created, err := svc.CreateAvailability(ctx, models.Availability{InstructorID: "i1", DayOfWeek: 2, StartTime: "07:00", EndTime: "09:00"})
	require.NoError(t, err)

	slots, err = svc.ListAvailability(ctx, "i1")
	require.NoError(t, err)
	assert.Len(t, slots, 4)

	updated, err := svc.UpdateAvailability(ctx, created.ID, models.Availability{InstructorID: "someone-else", DayOfWeek: 2, StartTime: "07:30", EndTime: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, "i1", updated.InstructorID, "owner is kept")
	assert.Equal(t, "07:30", updated.StartTime)

	require.NoError(t, svc.DeleteAvailability(ctx, created.ID))
	_, err = svc.GetAvailability(ctx, created.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAvailabilityValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewAvailabilityService(f.store, f.queries, nil, nil)

	_, err := svc.CreateAvailability(ctx, models.Availability{InstructorID: "i1", DayOfWeek: 2, StartTime: "09:00", EndTime: "09:00"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.CreateAvailability(ctx, models.Availability{InstructorID: "i1", DayOfWeek: 7, StartTime: "09:00", EndTime: "10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.CreateAvailability(ctx, models.Availability{InstructorID: "u1", DayOfWeek: 2, StartTime: "09:00", EndTime: "10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation), "clients have no availability")

	_, err = svc.CreateBlockout(ctx, models.Blockout{InstructorID: "i1", Date: "2025-13-01", StartTime: "09:00", EndTime: "10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestBlockoutLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewAvailabilityService(f.store, f.queries, nil, nil)

	blockout, err := svc.CreateBlockout(ctx, models.Blockout{InstructorID: "i1", Date: "2025-11-03", StartTime: "09:00", EndTime: "12:00", Reason: "Training"})
	require.NoError(t, err)

	listed, err := svc.ListBlockouts(ctx, "")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Training", listed[0].Reason)

	_, err = f.schedule.CreateSession(ctx, models.CreateSessionRequest{InstructorID: "i1", ClassTypeID: "c1", Date: "2025-11-03", StartTime: "11:00"})
	assert.True(t, errors.Is(err, appErrors.ErrBlockedTime))

	_, err = svc.UpdateBlockout(ctx, blockout.ID, models.Blockout{Date: "2025-11-03", StartTime: "09:00", EndTime: "10:00"})
	require.NoError(t, err)
	f.session(t, "2025-11-03", "11:00", 0)

	require.NoError(t, svc.DeleteBlockout(ctx, blockout.ID))
	listed, err = svc.ListBlockouts(ctx, "i1")
	require.NoError(t, err)
	assert.Empty(t, listed)
}
