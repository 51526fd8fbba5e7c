package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lovableswim/swim-api/internal/models"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(_ context.Context, token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func serve(router *gin.Engine, method, path, authHeader string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestJWTMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator := stubValidator{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleClient}}

	router := gin.New()
	router.GET("/me", JWT(validator), func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).UserID)
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
		{"scheme is case insensitive", "bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, "/me", tc.header)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if tc.status == http.StatusOK && rec.Body.String() != "u1" {
				t.Fatalf("unexpected body %q", rec.Body.String())
			}
		})
	}
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator := stubValidator{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleClient}}

	router := gin.New()
	router.GET("/", OptionalJWT(validator), func(c *gin.Context) {
		if Claims(c) == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, Claims(c).UserID)
	})

	if got := serve(router, http.MethodGet, "/", "Bearer nope").Body.String(); got != "anonymous" {
		t.Fatalf("expected anonymous, got %q", got)
	}
	if got := serve(router, http.MethodGet, "/", "Bearer good").Body.String(); got != "u1" {
		t.Fatalf("expected u1, got %q", got)
	}
}

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}
}

func TestRBACSelf(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	build := func(claims *models.JWTClaims) *gin.Engine {
		router := gin.New()
		router.GET("/users/:id", withClaims(claims), RBAC(string(models.RoleAdmin), RoleSelf), ok)
		return router
	}

	client := &models.JWTClaims{UserID: "u1", Role: models.RoleClient}
	if rec := serve(build(client), http.MethodGet, "/users/u1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("self access denied: %d", rec.Code)
	}
	if rec := serve(build(client), http.MethodGet, "/users/u2", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %d", rec.Code)
	}
	admin := &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}
	if rec := serve(build(admin), http.MethodGet, "/users/u2", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("admin denied: %d", rec.Code)
	}
	if rec := serve(build(nil), http.MethodGet, "/users/u1", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", rec.Code)
	}
}

func TestIsStaff(t *testing.T) {
	if !IsStaff(models.RoleAdmin) || !IsStaff(models.RoleInstructor) {
		t.Fatal("admins and instructors are staff")
	}
	if IsStaff(models.RoleClient) || IsStaff(models.RoleGuest) {
		t.Fatal("clients and guests are not staff")
	}
}
