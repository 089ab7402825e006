package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		allowedOrigins []string
		want           bool
	}{
		{
			name:           "exact match",
			origin:         "https://app.pricelens.io",
			allowedOrigins: []string{"https://app.pricelens.io"},
			want:           true,
		},
		{
			name:           "wildcard match",
			origin:         "http://localhost:5173",
			allowedOrigins: []string{"http://localhost:*"},
			want:           true,
		},
		{
			name:           "multiple allowed origins - matches first",
			origin:         "http://localhost:5173",
			allowedOrigins: []string{"http://localhost:*", "https://app.pricelens.io"},
			want:           true,
		},
		{
			name:           "multiple allowed origins - matches second",
			origin:         "https://app.pricelens.io",
			allowedOrigins: []string{"http://localhost:*", "https://app.pricelens.io"},
			want:           true,
		},
		{
			name:           "no match",
			origin:         "http://evil.com",
			allowedOrigins: []string{"http://localhost:*"},
			want:           false,
		},
		{
			name:           "exact entry does not match by prefix",
			origin:         "https://app.pricelens.io.evil.com",
			allowedOrigins: []string{"https://app.pricelens.io"},
			want:           false,
		},
		{
			name:           "empty origin",
			origin:         "",
			allowedOrigins: []string{"http://localhost:*"},
			want:           false,
		},
		{
			name:           "empty allowed list",
			origin:         "https://app.pricelens.io",
			allowedOrigins: []string{},
			want:           false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isAllowedOrigin(tt.origin, tt.allowedOrigins)
			if got != tt.want {
				t.Errorf("isAllowedOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		origin     string
		method     string
		wantStatus int
		wantCORS   bool
	}{
		{
			name:       "allowed origin - GET request",
			origin:     "https://app.pricelens.io",
			method:     "GET",
			wantStatus: http.StatusOK,
			wantCORS:   true,
		},
		{
			name:       "allowed origin - OPTIONS request",
			origin:     "https://app.pricelens.io",
			method:     "OPTIONS",
			wantStatus: http.StatusNoContent,
			wantCORS:   true,
		},
		{
			name:       "disallowed origin",
			origin:     "http://evil.com",
			method:     "GET",
			wantStatus: http.StatusOK,
			wantCORS:   false,
		},
		{
			name:       "no origin header",
			origin:     "",
			method:     "GET",
			wantStatus: http.StatusOK,
			wantCORS:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware([]string{"https://app.pricelens.io"}))
			router.GET("/test", func(c *gin.Context) {
				c.String(http.StatusOK, "OK")
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}

			corsHeader := w.Header().Get("Access-Control-Allow-Origin")
			if tt.wantCORS {
				if corsHeader != tt.origin {
					t.Errorf("Access-Control-Allow-Origin = %s, want %s", corsHeader, tt.origin)
				}
				if w.Header().Get("Access-Control-Expose-Headers") != "Location" {
					t.Errorf("Access-Control-Expose-Headers should expose Location")
				}
			} else if corsHeader != "" {
				t.Errorf("Access-Control-Allow-Origin should not be set for disallowed origin, got %s", corsHeader)
			}
		})
	}
}

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	router := gin.New()
	router.Use(LoggerMiddleware(zerolog.New(&buf)))
	router.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["method"] != "GET" || entry["path"] != "/missing" {
		t.Errorf("unexpected request fields: %v", entry)
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Errorf("status = %v, want 404", entry["status"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RecoveryMiddleware(zerolog.Nop()))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if body.Error != "internal server error" {
		t.Errorf("error = %q, want internal server error", body.Error)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(perMinute int) *gin.Engine {
		router := gin.New()
		router.Use(RateLimitMiddleware(perMinute))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})
		return router
	}

	request := func(router *gin.Engine, remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("rejects requests over the burst", func(t *testing.T) {
		router := newRouter(2)

		for i := 0; i < 2; i++ {
			if code := request(router, "10.0.0.1:1234"); code != http.StatusOK {
				t.Fatalf("request %d: Status = %d, want %d", i, code, http.StatusOK)
			}
		}
		if code := request(router, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
			t.Errorf("Status = %d, want %d", code, http.StatusTooManyRequests)
		}
	})

	t.Run("limits each client separately", func(t *testing.T) {
		router := newRouter(1)

		if code := request(router, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", code, http.StatusOK)
		}
		if code := request(router, "10.0.0.2:1234"); code != http.StatusOK {
			t.Errorf("second client: Status = %d, want %d", code, http.StatusOK)
		}
	})

	t.Run("zero disables limiting", func(t *testing.T) {
		router := newRouter(0)

		for i := 0; i < 5; i++ {
			if code := request(router, "10.0.0.1:1234"); code != http.StatusOK {
				t.Fatalf("request %d: Status = %d, want %d", i, code, http.StatusOK)
			}
		}
	})
}

func TestIPLimiter_DropsIdleClients(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	l := newIPLimiter(60)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	l.get("10.0.0.1")
	l.get("10.0.0.2")
	if len(l.limiters) != 2 {
		t.Fatalf("tracked clients = %d, want 2", len(l.limiters))
	}

	now = now.Add(30 * time.Second)
	active := l.get("10.0.0.2")
	if len(l.limiters) != 2 {
		t.Fatalf("tracked clients before sweep = %d, want 2", len(l.limiters))
	}

	now = now.Add(40 * time.Second)
	l.get("10.0.0.3")
	if len(l.limiters) != 2 {
		t.Errorf("tracked clients after sweep = %d, want 2", len(l.limiters))
	}
	if _, ok := l.limiters["10.0.0.1"]; ok {
		t.Error("idle client 10.0.0.1 should have been dropped")
	}
	if got := l.get("10.0.0.2"); got != active {
		t.Error("recently seen client should keep its bucket")
	}
}

func TestIPLimiter_BoundedUnderManyClients(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	l := newIPLimiter(60)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	for round := 0; round < 5; round++ {
		for i := 0; i < 100; i++ {
			l.get(fmt.Sprintf("10.%d.0.%d", round, i))
		}
		now = now.Add(2 * time.Minute)
	}
	if len(l.limiters) > 100 {
		t.Errorf("tracked clients = %d, want at most 100", len(l.limiters))
	}
}
