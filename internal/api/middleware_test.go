package api

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newMiddlewareRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func TestTimeoutMiddlewareRejectsSlowRequests(t *testing.T) {
	r := newMiddlewareRouter(TimeoutMiddleware(20 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		time.Sleep(100 * time.Millisecond)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	if w.Code != http.StatusRequestTimeout {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusRequestTimeout)
	}
}

func TestTimeoutMiddlewareHandlerGoroutineExits(t *testing.T) {
	r := newMiddlewareRouter(TimeoutMiddleware(10 * time.Millisecond))
	done := make(chan struct{})
	r.GET("/slow", func(c *gin.Context) {
		time.Sleep(50 * time.Millisecond)
		close(done)
	})

	before := runtime.NumGoroutine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	if w.Code != http.StatusRequestTimeout {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusRequestTimeout)
	}
	<-done

	// The handler goroutine must be able to complete its final send and
	// exit once the handler returns after the timeout has fired.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= before {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("goroutines = %d, want at most %d after handler returned", runtime.NumGoroutine(), before)
}

func TestRequestIDMiddlewareAssignsID(t *testing.T) {
	r := newMiddlewareRouter(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Errorf("no X-Request-ID assigned")
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("X-Request-ID = %q, want the caller's fixed-id", got)
	}
}
