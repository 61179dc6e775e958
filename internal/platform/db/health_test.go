package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runHealth(t *testing.T, pingErr error, stats *PoolStats) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := healthHandler(
		func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected ping context to carry a deadline")
			}
			return pingErr
		},
		func() *PoolStats { return stats },
	)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec, body
}

func TestHealthHandler_Healthy(t *testing.T) {
	rec, body := runHealth(t, nil, &PoolStats{TotalConns: 2, MaxConns: 20, Healthy: true})

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "healthy" || body["success"] != true {
		t.Errorf("unexpected body %v", body)
	}
	pool, ok := body["pool"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected pool object, got %v", body["pool"])
	}
	if pool["maxConns"] != float64(20) {
		t.Errorf("expected maxConns 20, got %v", pool["maxConns"])
	}
}

func TestHealthHandler_PingFailure(t *testing.T) {
	rec, body := runHealth(t, errors.New("connection refused"), &PoolStats{TotalConns: 1, Healthy: true})

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if body["status"] != "unhealthy" || body["success"] != false {
		t.Errorf("unexpected body %v", body)
	}
	if body["message"] != "connection refused" {
		t.Errorf("expected ping error in message, got %v", body["message"])
	}
	pool := body["pool"].(map[string]interface{})
	if pool["healthy"] != false {
		t.Error("expected pool to be reported unhealthy after failed ping")
	}
}

func TestSchemaPattern(t *testing.T) {
	valid := []string{"public", "kc_test_1", "_scratch"}
	invalid := []string{"", "1abc", "drop table;", "a-b", "a.b"}
	for _, s := range valid {
		if !schemaPattern.MatchString(s) {
			t.Errorf("expected %q to be a valid schema name", s)
		}
	}
	for _, s := range invalid {
		if schemaPattern.MatchString(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

type fakeQuerier struct{ Querier }

func TestConn_UsesQuerierFromContext(t *testing.T) {
	fq := &fakeQuerier{}
	ctx := ContextWithQuerier(context.Background(), fq)
	if got := Conn(ctx, nil); got != fq {
		t.Errorf("expected querier from context, got %T", got)
	}
}
