package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func token(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := NewAuth([]byte("s3cret"))

	r := gin.New()
	r.GET("/admin", auth.RequireRole(RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, Actor(c))
	})

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, ""},
		{"malformed", "Token abc", http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + token(t, "other", jwt.MapClaims{"role": RoleAdmin}), http.StatusUnauthorized, ""},
		{"wrong role", "Bearer " + token(t, "s3cret", jwt.MapClaims{"role": RoleRequester}), http.StatusForbidden, ""},
		{"email actor", "Bearer " + token(t, "s3cret", jwt.MapClaims{"role": RoleAdmin, "sub": "u1", "email": "boss@corp.test"}), http.StatusOK, "boss@corp.test"},
		{"subject actor", "Bearer " + token(t, "s3cret", jwt.MapClaims{"role": RoleAdmin, "sub": "u1"}), http.StatusOK, "u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}
