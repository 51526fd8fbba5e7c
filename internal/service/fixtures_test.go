package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lovableswim/swim-api/internal/booking"
	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
	"github.com/lovableswim/swim-api/internal/repository/local"
)

// Saturday; the seeded instructor works Monday, Wednesday and Friday.
var fixedNow = time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)

type recordedEvent struct {
	Type    string
	Payload interface{}
}

type recordingEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingEvents) Publish(_ context.Context, eventType string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Type: eventType, Payload: payload})
}

func (r *recordingEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store      *local.Store
	cache      *repository.MemoryCacheRepository
	queries    *QueryCache
	metrics    *MetricsService
	events     *recordingEvents
	settings   *SettingsService
	schedule   *ScheduleService
	enrollment *EnrollmentService
	purchases  *PurchaseService
	booking    *BookingService
}

func testSettings() models.Settings {
	return models.Settings{PoolCapacity: 25, CancellationHours: 24, ContactEmail: "admin@lovableswim.com"}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := local.Open(context.Background(), local.Options{Seed: local.DemoSeed("hash", testSettings())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cacheRepo := repository.NewMemoryCacheRepository()
	metrics := NewMetricsService()
	queries := NewQueryCache(NewCacheService(cacheRepo, metrics, time.Minute, nil, true), nil)
	events := &recordingEvents{}
	settings := NewSettingsService(store.Settings(), testSettings(), queries, nil, nil)

	f := &fixture{
		store:      store,
		cache:      cacheRepo,
		queries:    queries,
		metrics:    metrics,
		events:     events,
		settings:   settings,
		schedule:   NewScheduleService(store, settings, queries, events, metrics, nil, nil, time.UTC),
		enrollment: NewEnrollmentService(store, settings, queries, events, metrics, nil),
		purchases:  NewPurchaseService(store, events, metrics, nil),
		booking:    NewBookingService(store, booking.NewDraftStore(cacheRepo, time.Hour), queries, events, metrics, nil),
	}
	clock := func() time.Time { return fixedNow }
	f.schedule.now = clock
	f.enrollment.now = clock
	f.purchases.now = clock
	f.booking.now = clock
	return f
}

func (f *fixture) session(t *testing.T, date, start string, capacity int) *models.LessonSession {
	t.Helper()
	session, err := f.schedule.CreateSession(context.Background(), models.CreateSessionRequest{
		InstructorID: "i1",
		ClassTypeID:  "c1",
		Date:         date,
		StartTime:    start,
		Capacity:     capacity,
	})
	require.NoError(t, err)
	return session
}

func (f *fixture) client(t *testing.T, id string, credits int) {
	t.Helper()
	require.NoError(t, f.store.Users().Create(context.Background(), &models.User{
		ID: id, Name: "Client " + id, Email: id + "@example.com", Role: models.RoleClient, PackageCredits: credits,
	}))
}

func (f *fixture) credits(t *testing.T, id string) int {
	t.Helper()
	user, err := f.store.Users().GetByID(context.Background(), id)
	require.NoError(t, err)
	return user.PackageCredits
}
