package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"redis-queue/pkg/queue"

	"github.com/gin-gonic/gin"
)

func TestHealthReflectsConnection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	q := queue.NewMockQueue("router_test")
	r := SetupRouter(q, nil, time.Minute)

	health := func() string {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		var body struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode health: %v", err)
		}
		return body.Status
	}

	if got := health(); got != "disconnected" {
		t.Fatalf("health before connect = %q", got)
	}
	if err := q.Connect(context.Background(), nil); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer q.Close()
	if got := health(); got != "ok" {
		t.Fatalf("health after connect = %q", got)
	}
}

func TestArchiveRoutesOnlyWithArchive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := SetupRouter(queue.NewMockQueue("router_test"), nil, time.Minute)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/results/abc", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("archive route without archive: %d", w.Code)
	}
}

func TestMetricsExposeRequestCounts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := SetupRouter(queue.NewMockQueue("router_test"), nil, time.Minute)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `route="/api/health"`) {
		t.Fatalf("request metric for /api/health missing")
	}
}
