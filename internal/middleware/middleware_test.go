package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchensync/internal/config"
	"kitchensync/internal/kitchen"
	"kitchensync/internal/session"
	"kitchensync/internal/storage"
)

var production = &config.Config{Environment: "production", AllowedOrigins: "https://kitchen.example"}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRateLimitOnlyCountsSubmissions(t *testing.T) {
	r := gin.New()
	r.Use(AuthRateLimit(production))
	r.Any("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/login", nil)).Code)
	}

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/login", nil)).Code, "attempt %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest(http.MethodPost, "/login", nil)).Code)
}

func TestRateLimitSkippedInDevelopment(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(&config.Config{Environment: "development"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestNotFoundGuardBlocksRepeatedMisses(t *testing.T) {
	r := gin.New()
	r.Use(NotFoundGuard(production))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusNotFound, serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil)).Code)
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Too many invalid requests")
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(" https://kitchen.example , http://localhost:5173"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://kitchen.example")
	w := serve(r, req)
	assert.Equal(t, "https://kitchen.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = serve(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)
}

func TestSecurityHeaders(t *testing.T) {
	for _, tc := range []struct {
		env     string
		wantCSP bool
	}{
		{"development", false},
		{"production", true},
	} {
		t.Run(tc.env, func(t *testing.T) {
			r := gin.New()
			r.Use(SecurityHeaders(&config.Config{Environment: tc.env}))
			r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, tc.wantCSP, w.Header().Get("Content-Security-Policy") != "")
		})
	}
}

func TestTrimSpacesLeavesPasswords(t *testing.T) {
	r := gin.New()
	r.Use(TrimSpaces())

	var got url.Values
	r.POST("/", func(c *gin.Context) {
		_ = c.Request.ParseForm()
		got = c.Request.PostForm
		c.Status(http.StatusOK)
	})

	form := url.Values{"username": {"  alice "}, "password": {" pw "}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, serve(r, req).Code)

	assert.Equal(t, "alice", got.Get("username"))
	assert.Equal(t, " pw ", got.Get("password"))
}

func TestAuthGuards(t *testing.T) {
	backend := storage.NewMemory()
	identity, err := session.NewProvider(backend, session.WithSleep(func(time.Duration) {}))
	require.NoError(t, err)
	k := kitchen.New(identity, backend, nil)

	r := gin.New()
	r.GET("/private", AuthRequired(k), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	r.GET("/login", GuestOnly(k), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/about", AuthOptional(k), func(c *gin.Context) {
		_, ok := c.Get("user")
		c.JSON(http.StatusOK, gin.H{"signedIn": ok})
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/login", nil)).Code)
	assert.JSONEq(t, `{"signedIn":false}`, serve(r, httptest.NewRequest(http.MethodGet, "/about", nil)).Body.String())

	_, err = identity.Login("alice", "pw")
	require.NoError(t, err)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, session.UserID("alice"), w.Body.String())
	assert.Equal(t, http.StatusFound, serve(r, httptest.NewRequest(http.MethodGet, "/login", nil)).Code)
	assert.JSONEq(t, `{"signedIn":true}`, serve(r, httptest.NewRequest(http.MethodGet, "/about", nil)).Body.String())
}
