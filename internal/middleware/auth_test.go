package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backoffice/internal/auth"
	"backoffice/internal/model"
	"backoffice/internal/permission"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var secret = []byte("middleware-secret")

type fakeUsers map[uint]*model.User

func (f fakeUsers) GetByID(_ context.Context, id uint) (*model.User, error) {
	if id == 500 {
		return nil, errors.New("connection refused")
	}
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func token(t *testing.T, u *model.User) string {
	t.Helper()
	tok, _, err := auth.Issue(u, secret, time.Hour, time.Now())
	require.NoError(t, err)
	return tok
}

func newRouter(users UserLoader, gate gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", Authenticate(secret, users), gate, func(c *gin.Context) {
		u := CurrentUser(c)
		if UserFromContext(c.Request.Context()) != u {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, u.Email)
	})
	return r
}

func TestAuthenticate(t *testing.T) {
	clerk := &model.User{ID: 1, Email: "clerk@example.com", Level: model.LevelUser}
	users := fakeUsers{1: clerk}
	r := newRouter(users, func(c *gin.Context) { c.Next() })

	tests := []struct {
		name   string
		setup  func(req *http.Request)
		status int
	}{
		{"missing token", func(*http.Request) {}, http.StatusUnauthorized},
		{"malformed header", func(req *http.Request) { req.Header.Set("Authorization", "Token abc") }, http.StatusUnauthorized},
		{"bad signature", func(req *http.Request) { req.Header.Set("Authorization", "Bearer abc.def.ghi") }, http.StatusUnauthorized},
		{"deleted user", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token(t, &model.User{ID: 2, Level: model.LevelUser}))
		}, http.StatusUnauthorized},
		{"database down", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token(t, &model.User{ID: 500, Level: model.LevelUser}))
		}, http.StatusInternalServerError},
		{"bearer token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token(t, clerk)) }, http.StatusOK},
		{"cookie token", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: token(t, clerk)})
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRequire(t *testing.T) {
	clerk := &model.User{ID: 1, Email: "clerk@example.com", Level: model.LevelUser, Permissions: map[string]bool{permission.CustomersWrite: true}}
	admin := &model.User{ID: 2, Email: "admin@example.com", Level: model.LevelAdmin, Permissions: map[string]bool{}}
	boss := &model.User{ID: 3, Email: "boss@example.com", Level: model.LevelAdmin, Permissions: map[string]bool{permission.CustomersWrite: true}}
	root := &model.User{ID: 4, Email: "root@example.com", Level: model.LevelSuperAdmin}
	users := fakeUsers{1: clerk, 2: admin, 3: boss, 4: root}

	both := Require(permission.Rule{Role: model.LevelAdmin, Capability: permission.CustomersWrite})
	r := newRouter(users, both)

	tests := []struct {
		user   *model.User
		status int
	}{
		{clerk, http.StatusForbidden}, // capability without role
		{admin, http.StatusForbidden}, // role without capability
		{boss, http.StatusOK},
		{root, http.StatusOK}, // super admin bypasses both
	}
	for _, tt := range tests {
		t.Run(tt.user.Email, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+token(t, tt.user))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRequire_WithoutAuthenticate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/open", RequireRole(model.LevelUser), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
