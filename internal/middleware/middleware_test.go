package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/org-membership-api/internal/constants"
	"github.com/yukikurage/org-membership-api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequireAuth(t *testing.T) {
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.GET("/login", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(constants.ContextKeyUserID, "user-1")
		require.NoError(t, session.Save())
		c.Status(http.StatusNoContent)
	})
	r.GET("/private", RequireAuth(), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		require.True(t, ok)
		c.String(http.StatusOK, userID)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	login := httptest.NewRecorder()
	r.ServeHTTP(login, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusNoContent, login.Code)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "user-1", w.Body.String())
}

func TestGetUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	require.False(t, ok)

	c.Set(constants.ContextKeyUserID, 42)
	_, ok = GetUserID(c)
	require.False(t, ok)

	c.Set(constants.ContextKeyUserID, "user-1")
	id, ok := GetUserID(c)
	require.True(t, ok)
	require.Equal(t, "user-1", id)
}

func TestRequireOrganizationRole(t *testing.T) {
	tests := []struct {
		name       string
		membership *models.Membership
		handler    gin.HandlerFunc
		want       int
	}{
		{name: "no membership", handler: RequireOrganizationManager(), want: http.StatusForbidden},
		{name: "member as manager", membership: &models.Membership{Role: models.RoleMember}, handler: RequireOrganizationManager(), want: http.StatusForbidden},
		{name: "admin as manager", membership: &models.Membership{Role: models.RoleAdmin}, handler: RequireOrganizationManager(), want: http.StatusOK},
		{name: "admin as owner", membership: &models.Membership{Role: models.RoleAdmin}, handler: RequireOrganizationOwner(), want: http.StatusForbidden},
		{name: "owner as owner", membership: &models.Membership{Role: models.RoleOwner}, handler: RequireOrganizationOwner(), want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) {
				if tt.membership != nil {
					c.Set(constants.ContextKeyMembership, *tt.membership)
				}
				c.Next()
			}, tt.handler, func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := buf.String()
	require.True(t, strings.Contains(out, "WARN"), out)
	require.Contains(t, out, "/missing")
	require.Contains(t, out, "404 Not Found")
}

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/things/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	labels := []string{http.MethodGet, "/things/:id", "200"}
	before := testutil.ToFloat64(requestTotal.WithLabelValues(labels...))

	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	require.Equal(t, before+2, testutil.ToFloat64(requestTotal.WithLabelValues(labels...)))
}
