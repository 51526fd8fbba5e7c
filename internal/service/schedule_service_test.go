package service

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovableswim/swim-api/internal/models"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

func TestCreateSessionWithinAvailability(t *testing.T) {
	f := newFixture(t)

	session := f.session(t, "2025-11-03", "10:00", 0)
	assert.Equal(t, 4, session.Capacity, "capacity defaults to the class type")
	assert.Equal(t, time.Date(2025, 11, 3, 10, 45, 0, 0, time.UTC), session.EndTime)
	assert.Nil(t, session.RecurringGroupID)
	assert.Empty(t, session.EnrolledUserIDs)
	assert.Contains(t, f.events.types(), EventSessionScheduled)

	listed, err := f.schedule.List(context.Background(), models.SessionFilter{InstructorID: "i1"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, session.ID, listed[0].ID)
}

func TestCreateSessionOutsideAvailabilityNeedsOverride(t *testing.T) {
	f := newFixture(t)
	req := models.CreateSessionRequest{InstructorID: "i1", ClassTypeID: "c1", Date: "2025-11-04", StartTime: "10:00"}

	_, err := f.schedule.CreateSession(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInstructorUnavailable))
	assert.True(t, appErrors.Warning(err))

	req.Override = true
	session, err := f.schedule.CreateSession(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, time.Tuesday, session.StartTime.Weekday())
}

func TestCreateSessionBlockedEvenWithOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Blockouts().Create(ctx, &models.Blockout{
		InstructorID: "i1", Date: "2025-11-03", StartTime: "09:30", EndTime: "10:15", Reason: "Dentist",
	}))

	_, err := f.schedule.CreateSession(ctx, models.CreateSessionRequest{
		InstructorID: "i1", ClassTypeID: "c1", Date: "2025-11-03", StartTime: "10:00", Override: true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBlockedTime))
	assert.Contains(t, err.Error(), "Dentist")

	session := f.session(t, "2025-11-03", "10:15", 0)
	assert.Equal(t, 10, session.StartTime.Hour())
}

func TestCreateSessionRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.schedule.CreateSession(ctx, models.CreateSessionRequest{InstructorID: "i1", ClassTypeID: "c1", Date: "03/11/2025", StartTime: "10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.schedule.CreateSession(ctx, models.CreateSessionRequest{InstructorID: "u1", ClassTypeID: "c1", Date: "2025-11-03", StartTime: "10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation), "clients cannot teach")

	_, err = f.schedule.CreateSession(ctx, models.CreateSessionRequest{InstructorID: "i1", ClassTypeID: "missing", Date: "2025-11-03", StartTime: "10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = f.schedule.CreateSession(ctx, models.CreateSessionRequest{InstructorID: "i1", ClassTypeID: "c1", Date: "2025-11-03", StartTime: "10:00", Capacity: 30})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), "pool capacity")
}

func TestCreateRecurringSharesGroup(t *testing.T) {
	f := newFixture(t)

	sessions, err := f.schedule.CreateRecurring(context.Background(), models.CreateSessionRequest{
		InstructorID: "i1", ClassTypeID: "c1", Date: "2025-11-03", StartTime: "09:00", Weeks: 4,
	})
	require.NoError(t, err)
	require.Len(t, sessions, 4)

	require.NotNil(t, sessions[0].RecurringGroupID)
	group := *sessions[0].RecurringGroupID
	for i, session := range sessions {
		require.NotNil(t, session.RecurringGroupID)
		assert.Equal(t, group, *session.RecurringGroupID)
		assert.Equal(t, sessions[0].StartTime.AddDate(0, 0, 7*i), session.StartTime)
	}
}

func TestCreateRecurringIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Blockouts().Create(ctx, &models.Blockout{
		InstructorID: "i1", Date: "2025-11-17", StartTime: "00:00", EndTime: "23:59",
	}))

	_, err := f.schedule.CreateRecurring(ctx, models.CreateSessionRequest{
		InstructorID: "i1", ClassTypeID: "c1", Date: "2025-11-03", StartTime: "09:00", Weeks: 4,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBlockedTime))

	sessions, err := f.store.Sessions().List(ctx, models.SessionFilter{})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestDeleteSessionRefundsEnrolledClients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.session(t, "2025-11-03", "10:00", 0)

	_, err := f.enrollment.Enroll(ctx, session.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, f.credits(t, "u1"))

	require.NoError(t, f.schedule.Delete(ctx, session.ID))
	assert.Equal(t, 5, f.credits(t, "u1"))
	_, err = f.schedule.Get(ctx, session.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Contains(t, f.events.types(), EventSessionCancelled)

	require.NoError(t, f.schedule.Delete(ctx, session.ID), "deleting twice is a no-op")
	assert.Equal(t, 5, f.credits(t, "u1"))
}

func TestUpdateCapacityCannotDropBelowEnrolled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.session(t, "2025-11-03", "10:00", 0)
	f.client(t, "u2", 1)
	_, err := f.enrollment.Enroll(ctx, session.ID, "u1")
	require.NoError(t, err)
	_, err = f.enrollment.Enroll(ctx, session.ID, "u2")
	require.NoError(t, err)

	_, err = f.schedule.UpdateCapacity(ctx, session.ID, 1)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	updated, err := f.schedule.UpdateCapacity(ctx, session.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Capacity)
	assert.Len(t, updated.EnrolledUserIDs, 2)
}

func TestUpcomingHidesFullSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	full := f.session(t, "2025-11-03", "10:00", 1)
	open := f.session(t, "2025-11-05", "10:00", 0)
	_, err := f.enrollment.Enroll(ctx, full.ID, "u1")
	require.NoError(t, err)

	all, err := f.schedule.Upcoming(ctx, models.SessionFilter{}, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	openOnly, err := f.schedule.Upcoming(ctx, models.SessionFilter{}, true)
	require.NoError(t, err)
	require.Len(t, openOnly, 1)
	assert.Equal(t, open.ID, openOnly[0].ID)
}

func TestCheckSlotMinutePrecision(t *testing.T) {
	availability := []models.Availability{{InstructorID: "i1", DayOfWeek: int(time.Monday), StartTime: "09:00", EndTime: "17:00"}}
	blockouts := []models.Blockout{{InstructorID: "i1", Date: "2025-11-03", StartTime: "12:00", EndTime: "12:30"}}
	at := func(hour, minute int) time.Time { return time.Date(2025, 11, 3, hour, minute, 0, 0, time.UTC) }

	cases := []struct {
		name  string
		start time.Time
		want  *appErrors.Error
	}{
		{"first minute", at(9, 0), nil},
		{"last minute", at(16, 59), nil},
		{"window end is exclusive", at(17, 0), appErrors.ErrInstructorUnavailable},
		{"one minute early", at(8, 59), appErrors.ErrInstructorUnavailable},
		{"ends as blockout starts", at(11, 30), nil},
		{"overlaps blockout by a minute", at(11, 31), appErrors.ErrBlockedTime},
		{"starts as blockout ends", at(12, 30), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckSlot(tc.start, tc.start.Add(30*time.Minute), time.UTC, availability, blockouts, false)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestCheckSlotUsesScheduleTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)
	availability := []models.Availability{{InstructorID: "i1", DayOfWeek: int(time.Monday), StartTime: "09:00", EndTime: "17:00"}}

	// 08:30 UTC is 09:30 in Amsterdam in November.
	start := time.Date(2025, 11, 3, 8, 30, 0, 0, time.UTC)
	assert.NoError(t, CheckSlot(start, start.Add(time.Hour), loc, availability, nil, false))
	assert.Error(t, CheckSlot(start, start.Add(time.Hour), time.UTC, availability, nil, false))
}

func TestCheckSlotAcrossMidnight(t *testing.T) {
	blockouts := []models.Blockout{{InstructorID: "i1", Date: "2025-11-04", StartTime: "00:00", EndTime: "01:00", Reason: "pool maintenance"}}
	start := time.Date(2025, 11, 3, 23, 30, 0, 0, time.UTC)

	err := CheckSlot(start, start.Add(45*time.Minute), time.UTC, nil, blockouts, true)
	assert.True(t, errors.Is(err, appErrors.ErrBlockedTime), "got %v", err)

	early := time.Date(2025, 11, 3, 23, 0, 0, 0, time.UTC)
	assert.NoError(t, CheckSlot(early, early.Add(time.Hour), time.UTC, nil, blockouts, true), "ends exactly at midnight")
}
