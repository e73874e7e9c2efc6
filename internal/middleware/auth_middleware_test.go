package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"attendance-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

type stubValidator struct {
	claims *jwt.Claims
	err    error
}

func (s *stubValidator) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	return s.claims, s.err
}

func newRouter(v TokenValidator, register func(r *gin.Engine, m *AuthMiddleware)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r, NewAuthMiddleware(v))
	return r
}

func adminClaims(role string) *jwt.Claims {
	c := &jwt.Claims{
		IdentityID: 7,
		Username:   "gate1",
		Role:       role,
		Device:     "attendctl",
	}
	c.ID = "jti-1"
	return c
}

func doRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMissingToken(t *testing.T) {
	r := newRouter(&stubValidator{}, func(r *gin.Engine, m *AuthMiddleware) {
		r.GET("/protected", m.Auth(), func(c *gin.Context) { c.Status(http.StatusOK) })
	})

	if w := doRequest(r, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthInvalidToken(t *testing.T) {
	r := newRouter(&stubValidator{err: errors.New("token revoked")}, func(r *gin.Engine, m *AuthMiddleware) {
		r.GET("/protected", m.Auth(), func(c *gin.Context) { c.Status(http.StatusOK) })
	})

	if w := doRequest(r, "Bearer bad-token"); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthSetsContext(t *testing.T) {
	var gotID int64
	var gotJTI string

	r := newRouter(&stubValidator{claims: adminClaims("admin")}, func(r *gin.Engine, m *AuthMiddleware) {
		r.GET("/protected", m.Auth(), func(c *gin.Context) {
			gotID = MustGetIdentityID(c)
			gotJTI = MustGetJTI(c)
			c.Status(http.StatusOK)
		})
	})

	if w := doRequest(r, "Bearer good-token"); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotID != 7 {
		t.Errorf("identity id = %d, want 7", gotID)
	}
	if gotJTI != "jti-1" {
		t.Errorf("jti = %q, want jti-1", gotJTI)
	}
}

func TestAuthTokenFromQueryParam(t *testing.T) {
	r := newRouter(&stubValidator{claims: adminClaims("admin")}, func(r *gin.Engine, m *AuthMiddleware) {
		r.GET("/protected", m.Auth(), func(c *gin.Context) { c.Status(http.StatusOK) })
	})

	req := httptest.NewRequest(http.MethodGet, "/protected?token=good-token", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 via query token", w.Code)
	}
}

func TestAdminOnly(t *testing.T) {
	cases := []struct {
		role string
		want int
	}{
		{"admin", http.StatusOK},
		{"superadmin", http.StatusOK},
		{"unknown", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			r := newRouter(&stubValidator{claims: adminClaims(tc.role)}, func(r *gin.Engine, m *AuthMiddleware) {
				handlers := append(m.AdminOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })
				r.GET("/protected", handlers...)
			})

			if w := doRequest(r, "Bearer tok"); w.Code != tc.want {
				t.Errorf("role %s: status = %d, want %d", tc.role, w.Code, tc.want)
			}
		})
	}
}

func TestSuperAdminOnly(t *testing.T) {
	cases := []struct {
		role string
		want int
	}{
		{"superadmin", http.StatusOK},
		{"admin", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			r := newRouter(&stubValidator{claims: adminClaims(tc.role)}, func(r *gin.Engine, m *AuthMiddleware) {
				handlers := append(m.SuperAdminOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })
				r.GET("/protected", handlers...)
			})

			if w := doRequest(r, "Bearer tok"); w.Code != tc.want {
				t.Errorf("role %s: status = %d, want %d", tc.role, w.Code, tc.want)
			}
		})
	}
}
