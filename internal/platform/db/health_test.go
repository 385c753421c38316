package db

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestHealthBody_OK(t *testing.T) {
	stats := DBStats{OpenConns: 4, IdleConns: 3, AcquiredConns: 1, MaxConns: 10, WaitTime: "12ms"}

	code, body := healthBody(nil, stats)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Status != "ok" {
		t.Errorf("expected status ok, got %q", body.Status)
	}
	if body.Error != "" {
		t.Errorf("expected no error, got %q", body.Error)
	}
	if body.Database.AcquiredConns != 1 || body.Database.MaxConns != 10 {
		t.Errorf("pool snapshot not carried through: %+v", body.Database)
	}
}

func TestHealthBody_PingFailure(t *testing.T) {
	code, body := healthBody(errors.New("connection refused"), DBStats{MaxConns: 10})
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if body.Status != "unavailable" {
		t.Errorf("expected status unavailable, got %q", body.Status)
	}
	if body.Error != "connection refused" {
		t.Errorf("expected ping error in body, got %q", body.Error)
	}
}

func TestHealthBody_ErrorOmittedWhenHealthy(t *testing.T) {
	_, body := healthBody(nil, DBStats{OpenConns: 2})

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), `"error"`) {
		t.Errorf("healthy body should omit the error field: %s", raw)
	}
	if !strings.Contains(string(raw), `"open_conns":2`) {
		t.Errorf("expected pool stats in body: %s", raw)
	}
}
