package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

type mockAuthRepo struct {
	users     map[string]*models.User
	createErr error
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	repo := &mockAuthRepo{users: map[string]*models.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockAuthRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, repository.NotFound("user", id)
}

func (m *mockAuthRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == models.NormalizeEmail(email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.NotFound("user", email)
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.Conflict("email taken")
		}
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func newTestAuthService(repo *mockAuthRepo) (*AuthService, *repository.MemoryCacheRepository) {
	revoked := repository.NewMemoryCacheRepository()
	svc := NewAuthService(repo, revoked, nil, nil, AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "swim-api-test",
	})
	return svc, revoked
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestSignUpCreatesClient(t *testing.T) {
	repo := newMockAuthRepo()
	svc, _ := newTestAuthService(repo)

	resp, err := svc.SignUp(context.Background(), models.SignUpRequest{Name: "Ana", Email: "Ana@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleClient, resp.User.Role)
	assert.Equal(t, "ana@example.com", resp.User.Email)
	assert.Equal(t, 0, resp.User.PackageCredits)

	stored := repo.users[resp.User.ID]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))

	_, err = svc.SignUp(context.Background(), models.SignUpRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.SignUp(context.Background(), models.SignUpRequest{Name: "Bo", Email: "not-an-email", Password: "secret1"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestSignIn(t *testing.T) {
	user := &models.User{ID: "u1", Name: "Demo Client", Email: "client@example.com", Role: models.RoleClient, PasswordHash: hashed(t, "password")}
	svc, _ := newTestAuthService(newMockAuthRepo(user))
	ctx := context.Background()

	resp, err := svc.SignIn(ctx, models.SignInRequest{Email: "CLIENT@example.com", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)

	claims, err := svc.ValidateToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleClient, claims.Role)
	assert.Equal(t, "swim-api-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	_, err = svc.SignIn(ctx, models.SignInRequest{Email: "client@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.SignIn(ctx, models.SignInRequest{Email: "nobody@example.com", Password: "password"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestSignOutRevokesToken(t *testing.T) {
	user := &models.User{ID: "u1", Name: "Demo Client", Email: "client@example.com", Role: models.RoleClient, PasswordHash: hashed(t, "password")}
	svc, revoked := newTestAuthService(newMockAuthRepo(user))
	ctx := context.Background()

	resp, err := svc.SignIn(ctx, models.SignInRequest{Email: "client@example.com", Password: "password"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, claims))
	var flag bool
	require.NoError(t, revoked.Get(ctx, revokedKey(claims.ID), &flag))
	assert.True(t, flag)

	_, err = svc.ValidateToken(ctx, resp.AccessToken)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	assert.True(t, errors.Is(svc.SignOut(ctx, &models.JWTClaims{}), appErrors.ErrUnauthorized))
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	user := &models.User{ID: "u1", Name: "Demo Client", Email: "client@example.com", Role: models.RoleClient, PasswordHash: hashed(t, "password")}
	repo := newMockAuthRepo(user)
	svc, _ := newTestAuthService(repo)
	other := NewAuthService(repo, nil, nil, nil, AuthConfig{AccessTokenSecret: "other"})

	resp, err := other.SignIn(context.Background(), models.SignInRequest{Email: "client@example.com", Password: "password"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), resp.AccessToken)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
	_, err = svc.ValidateToken(context.Background(), "garbage")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestCurrentUserForDeletedAccount(t *testing.T) {
	svc, _ := newTestAuthService(newMockAuthRepo())
	_, err := svc.CurrentUser(context.Background(), "gone")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
