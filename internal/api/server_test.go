package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/cache"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/profile"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/recorder"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/store"
)

type fakeEditStore struct {
	edits []store.StyleEdit
}

func (f *fakeEditStore) InsertStyleEdit(_ context.Context, e store.StyleEdit) error {
	f.edits = append(f.edits, e)
	return nil
}

func testServer(token string) (*Server, *fakeEditStore, *cache.TTLCache) {
	fs := &fakeEditStore{}
	c := cache.NewTTL(5 * time.Minute)
	rec := recorder.New(fs, slog.Default())
	srv := NewServer(8760, token, nil, c, rec, nil, nil, slog.Default())
	return srv, fs, c
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := testServer("")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, _, _ := testServer("")

	req := httptest.NewRequest("GET", "/api/v1/styled/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["service"] != "styled" {
		t.Errorf("expected service styled, got %q", body["service"])
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv, _, _ := testServer("")

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	srv, _, _ := testServer("secret-token")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret-token", http.StatusUnauthorized},
		{"wrong token", "Bearer wrong", http.StatusUnauthorized},
		{"correct token", "Bearer secret-token", http.StatusBadRequest}, // passes auth, fails validation
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/styled/guidance", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("code = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRecordApprovalEndpoint(t *testing.T) {
	srv, fs, _ := testServer("")

	body := `{
		"clinician_id": "c1",
		"letter_id": "l1",
		"subspecialty": "cardiology",
		"draft_text": "Plan:\nStart aspirin.",
		"final_text": "Plan:\nStart aspirin and a statin."
	}`
	req := httptest.NewRequest("POST", "/api/v1/styled/approvals", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp ApprovalResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.EditsRecorded != 1 {
		t.Errorf("edits recorded = %d, want 1", resp.EditsRecorded)
	}
	if len(fs.edits) != 1 {
		t.Errorf("persisted edits = %d, want 1", len(fs.edits))
	}
}

func TestRecordApprovalMissingFields(t *testing.T) {
	srv, _, _ := testServer("")

	req := httptest.NewRequest("POST", "/api/v1/styled/approvals", strings.NewReader(`{"clinician_id": "c1"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestGuidanceServedFromCache(t *testing.T) {
	srv, _, c := testServer("")

	c.Set("c1", "cardiology", &profile.Profile{
		ClinicianID:      "c1",
		Subspecialty:     "cardiology",
		GreetingStyle:    "Dear Dr {referrer},",
		Confidence:       profile.Confidence{Greeting: 0.9},
		LearningStrength: 1,
	})

	req := httptest.NewRequest("GET", "/api/v1/styled/guidance?clinician_id=c1&subspecialty=cardiology&base_prompt=Write+the+letter.", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var g struct {
		Prompt string `json:"prompt"`
		Source string `json:"source"`
	}
	if err := json.NewDecoder(w.Body).Decode(&g); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if g.Source != "learned_profile" {
		t.Errorf("source = %q, want learned_profile", g.Source)
	}
	if !strings.Contains(g.Prompt, "Dear Dr {referrer},") {
		t.Errorf("guidance missing greeting: %q", g.Prompt)
	}
}

func TestUpdateStrengthRejectsOutOfRange(t *testing.T) {
	srv, _, _ := testServer("")

	for _, bad := range []string{`{"learning_strength": 1.5}`, `{"learning_strength": -0.2}`} {
		req := httptest.NewRequest("PUT", "/api/v1/styled/profiles/c1/cardiology/strength", strings.NewReader(bad))
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", bad, w.Code)
		}
		if !strings.Contains(w.Body.String(), "between 0 and 1") {
			t.Errorf("error message not explicit: %s", w.Body.String())
		}
	}
}
