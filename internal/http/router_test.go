package http

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/uniprot-graph/internal/http/handlers"
	"github.com/yungbote/uniprot-graph/internal/http/response"
	"github.com/yungbote/uniprot-graph/internal/observability"
)

func serve(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, path, nil))
	return rec
}

func TestHealthcheckAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()
	r := NewRouter(RouterConfig{
		Metrics:       m,
		HealthHandler: httpH.NewHealthHandler(nil),
	})

	if rec := serve(t, r, "/healthcheck"); rec.Code != nethttp.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: %d %q", rec.Code, rec.Body.String())
	}
	if rec := serve(t, r, "/healthcheck"); rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
	rec := serve(t, r, "/metrics")
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `uniprot_graph_http_requests_total{method="GET",route="/healthcheck",status="200"} 2`) {
		t.Fatalf("healthcheck requests not counted:\n%s", rec.Body.String())
	}
}

func TestMetricsDisabledAnswers503(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterConfig{})
	if rec := serve(t, r, "/metrics"); rec.Code != nethttp.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReadyReportsFailingDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ok := httpH.PingFunc(func(context.Context) error { return nil })
	down := httpH.PingFunc(func(context.Context) error { return errors.New("connection refused") })

	r := NewRouter(RouterConfig{HealthHandler: httpH.NewHealthHandler(map[string]httpH.Pinger{
		"neo4j":    down,
		"temporal": ok,
	})})
	rec := serve(t, r, "/readyz")
	if rec.Code != nethttp.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "not_ready" || env.Error.Details["neo4j"] != "connection refused" {
		t.Fatalf("unexpected body %+v", env)
	}
	if _, bad := env.Error.Details["temporal"]; bad {
		t.Fatalf("healthy dependency reported as failing")
	}
}

func TestReadyWhenAllDependenciesAnswer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ok := httpH.PingFunc(func(context.Context) error { return nil })
	r := NewRouter(RouterConfig{HealthHandler: httpH.NewHealthHandler(map[string]httpH.Pinger{"neo4j": ok})})
	if rec := serve(t, r, "/readyz"); rec.Code != nethttp.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}
