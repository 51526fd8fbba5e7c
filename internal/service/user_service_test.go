package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
	"github.com/lovableswim/swim-api/internal/repository/local"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

func newTestUserService(t *testing.T) *UserService {
	t.Helper()
	store, err := local.Open(context.Background(), local.Options{Seed: local.DemoSeed("hash", testSettings())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewUserService(store, nil, nil, nil, nil, nil)
}

// racingStore runs race once, right after the first user read, and runs
// transactions without isolation so the write lands between read and update.
type racingStore struct {
	repository.Store
	once sync.Once
	race func()
}

func (s *racingStore) WithinTx(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(s)
}

func (s *racingStore) Users() repository.UserRepository {
	return &racingUsers{UserRepository: s.Store.Users(), store: s}
}

type racingUsers struct {
	repository.UserRepository
	store *racingStore
}

func (r *racingUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := r.UserRepository.GetByID(ctx, id)
	r.store.once.Do(r.store.race)
	return user, err
}

func TestUserListPaginates(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	users, page, err := svc.List(ctx, models.UserFilter{PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 1, page.Page)

	users, _, err = svc.List(ctx, models.UserFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, users, 1)

	users, _, err = svc.List(ctx, models.UserFilter{Page: 5, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, users)

	role := models.RoleInstructor
	users, _, err = svc.List(ctx, models.UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "i1", users[0].ID)
}

func TestUserCreateAndUpdate(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CreateUserRequest{
		Name: "Coach Kim", Email: "kim@example.com", Password: "secret1", Role: models.RoleInstructor,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.PasswordHash)

	_, err = svc.Create(ctx, models.CreateUserRequest{
		Name: "Other", Email: "KIM@example.com", Password: "secret1", Role: models.RoleClient,
	})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	credits := 8
	name := "Coach Kim Lee"
	updated, err := svc.Update(ctx, created.ID, models.UpdateUserRequest{Name: &name, PackageCredits: &credits})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, 8, updated.PackageCredits)

	email := "client@example.com"
	_, err = svc.Update(ctx, created.ID, models.UpdateUserRequest{Email: &email})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.Update(ctx, "missing", models.UpdateUserRequest{Name: &name})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestUserDeleteIsIdempotent(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "u1"))
	require.NoError(t, svc.Delete(ctx, "u1"))
	_, err := svc.Get(ctx, "u1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestEnsureAdmin(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "", "", ""))
	require.NoError(t, svc.EnsureAdmin(ctx, "root@example.com", "secret1", ""))
	require.NoError(t, svc.EnsureAdmin(ctx, "root@example.com", "secret1", ""), "second call is a no-op")

	role := models.RoleAdmin
	admins, _, err := svc.List(ctx, models.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.Len(t, admins, 2)
}

func TestUserUpdateKeepsInterleavedPurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.credits(t, "u1")

	store := &racingStore{Store: f.store}
	store.race = func() {
		_, err := f.purchases.Purchase(ctx, "u1", "p2")
		require.NoError(t, err)
	}
	svc := NewUserService(store, f.queries, f.events, f.metrics, nil, nil)

	name := "Renamed Client"
	updated, err := svc.Update(ctx, "u1", models.UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, before+10, updated.PackageCredits)
	assert.Equal(t, before+10, f.credits(t, "u1"))
}

func TestUserUpdateCreditsAppliesDifference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewUserService(f.store, f.queries, f.events, f.metrics, nil, nil)

	credits := 2
	updated, err := svc.Update(ctx, "u1", models.UpdateUserRequest{PackageCredits: &credits})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.PackageCredits)

	user, err := f.store.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	user.PackageCredits = 40
	require.NoError(t, f.store.Users().Update(ctx, user))
	assert.Equal(t, 2, f.credits(t, "u1"), "profile writes never touch the balance")
}

func TestDeleteInstructorRefundsEnrolledClients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.session(t, "2025-11-03", "10:00", 0)
	f.client(t, "swimmer", 2)
	_, err := f.enrollment.Enroll(ctx, session.ID, "swimmer")
	require.NoError(t, err)
	require.Equal(t, 1, f.credits(t, "swimmer"))

	listed, err := f.schedule.List(ctx, models.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	svc := NewUserService(f.store, f.queries, f.events, f.metrics, nil, nil)
	require.NoError(t, svc.Delete(ctx, "i1"))

	assert.Equal(t, 2, f.credits(t, "swimmer"))
	_, err = f.schedule.Get(ctx, session.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	listed, err = f.schedule.List(ctx, models.SessionFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)
	assert.Contains(t, f.events.types(), EventSessionCancelled)
}
