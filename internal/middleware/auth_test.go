package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"garage/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var secret = []byte("middleware-secret")

func TestParseToken(t *testing.T) {
	id := uuid.New()
	token, err := IssueToken(secret, id, model.RoleStores)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	actor, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if actor.EmployeeID != id || actor.Role != model.RoleStores {
		t.Errorf("unexpected actor %+v", actor)
	}

	if _, err := ParseToken([]byte("other"), token); err == nil {
		t.Errorf("token signed with another secret accepted")
	}

	bad := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": id.String(), "role": "MECHANIC"})
	signed, _ := bad.SignedString(secret)
	if _, err := ParseToken(secret, signed); err != errUnknownRole {
		t.Errorf("expected errUnknownRole, got %v", err)
	}
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/audit", Authenticate(secret), RequireRole(model.RoleAdmin), func(c *gin.Context) {
		actor, _ := ActorFrom(c)
		c.String(http.StatusOK, string(actor.Role))
	})

	adminToken, _ := IssueToken(secret, uuid.New(), model.RoleAdmin)
	techToken, _ := IssueToken(secret, uuid.New(), model.RoleTechnician)

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + adminToken, "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
		{"wrong role", "Bearer " + techToken, "", http.StatusForbidden},
		{"header", "Bearer " + adminToken, "", http.StatusOK},
		{"cookie", "", adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/audit", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}
