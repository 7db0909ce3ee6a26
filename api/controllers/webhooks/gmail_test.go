package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
)

type fakeSweeper struct {
	stored int
	err    error
	calls  int
}

func (f *fakeSweeper) Sweep(ctx context.Context) (int, error) {
	f.calls++
	return f.stored, f.err
}

func discardLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "webhooks-test", Output: io.Discard})
}

func TestGmailPushTriggersSweep(t *testing.T) {
	sweeper := &fakeSweeper{stored: 3}
	handler := GmailPush(sweeper, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/gmail", strings.NewReader(`{"message":{"data":"e30="}}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if sweeper.calls != 1 {
		t.Fatalf("expected one sweep, got %d", sweeper.calls)
	}

	var envelope struct {
		Data map[string]int `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["stored"] != 3 {
		t.Fatalf("expected stored count 3 got %d", envelope.Data["stored"])
	}
}

func TestGmailPushSweepFailure(t *testing.T) {
	handler := GmailPush(&fakeSweeper{err: errors.New("gmail unavailable")}, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/gmail", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}
