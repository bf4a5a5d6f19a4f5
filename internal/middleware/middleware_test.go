package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-core/pkg/auth"
	"github.com/jwalitptl/clinic-core/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestIDEchoesOrMints(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID(zerolog.Nop()))
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w := serve(engine, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "abc-123", w.Body.String())

	w = serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
	assert.Equal(t, w.Header().Get(HeaderXRequestID), w.Body.String())

	for _, bad := range []string{strings.Repeat("a", maxRequestIDLen+1), "has space", "tab\tid"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderXRequestID, bad)
		w := serve(engine, req)
		assert.NotEqual(t, bad, w.Body.String())
		_, err := uuid.Parse(w.Body.String())
		assert.NoError(t, err, "replacement for %q", bad)
	}
}

func TestRequestIDTagsContextLogger(t *testing.T) {
	var buf bytes.Buffer
	engine := gin.New()
	engine.Use(RequestID(zerolog.New(&buf)))
	engine.GET("/", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("booked")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "rid-42")
	serve(engine, req)
	assert.Contains(t, buf.String(), `"request_id":"rid-42"`)
	assert.Contains(t, buf.String(), "booked")
}

func TestAuthenticate(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", "clinic", time.Hour)
	engine := gin.New()
	engine.Use(NewAuthMiddleware(jwtSvc).Authenticate())
	engine.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextPhysicianID))
	})

	token, err := jwtSvc.GenerateAccessToken("p1", "alice@clinic.test")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(engine, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "p1", w.Body.String())
			}
		})
	}
}

func TestRateLimitIsPerCaller(t *testing.T) {
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Physician"); id != "" {
			c.Set(ContextPhysicianID, id)
		}
		c.Next()
	})
	engine.Use(NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2}).RateLimit())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	as := func(physician string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if physician != "" {
			req.Header.Set("X-Physician", physician)
		}
		return serve(engine, req).Code
	}

	assert.Equal(t, http.StatusOK, as("p1"))
	assert.Equal(t, http.StatusOK, as("p1"))
	assert.Equal(t, http.StatusTooManyRequests, as("p1"))

	// Another physician and an anonymous caller have their own buckets.
	assert.Equal(t, http.StatusOK, as("p2"))
	assert.Equal(t, http.StatusOK, as(""))
	assert.Equal(t, http.StatusOK, as(""))
	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRecoveryReturns500(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID(zerolog.Nop()), Recovery(zerolog.Nop()), Logger(zerolog.Nop()))
	engine.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestMetricsCountsByRouteTemplate(t *testing.T) {
	m := metrics.New("clinic", prometheus.NewRegistry())
	engine := gin.New()
	engine.Use(Metrics(m))
	engine.GET("/physicians/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(engine, httptest.NewRequest(http.MethodGet, "/physicians/p1", nil))
	serve(engine, httptest.NewRequest(http.MethodGet, "/physicians/p2", nil))
	serve(engine, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/physicians/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "unmatched", "404")))
}
