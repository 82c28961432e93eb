package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/cppla/articles/policy"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterPerClient(t *testing.T) {
	limiter := NewRateLimiter(4)
	r := gin.New()
	r.GET("/", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	// burst is half the per-minute allowance
	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, code)
		}
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other client limited: %d", code)
	}
}

func TestAuthRequiredAndAnonymous(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-User") != "" {
			c.Set(ContextActorKey, policy.Actor{UserID: 1, Username: "u", Authenticated: true})
		}
		c.Next()
	})
	r.GET("/open", func(c *gin.Context) {
		if GetActor(c).Authenticated {
			c.Status(http.StatusAccepted)
			return
		}
		c.Status(http.StatusOK)
	})
	r.GET("/closed", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		path   string
		user   bool
		status int
	}{
		{"/open", false, http.StatusOK},
		{"/open", true, http.StatusAccepted},
		{"/closed", false, http.StatusUnauthorized},
		{"/closed", true, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.user {
			req.Header.Set("X-Test-User", "1")
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Fatalf("%s user=%v: expected %d, got %d", tc.path, tc.user, tc.status, w.Code)
		}
		if w.Code == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
			t.Fatalf("401 without WWW-Authenticate")
		}
	}
}
