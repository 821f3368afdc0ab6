package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark4carter/codewarsbot/internal/bot"
	"github.com/mark4carter/codewarsbot/internal/domain"
	"github.com/mark4carter/codewarsbot/internal/store"
)

type stubRepo struct {
	settings *domain.Settings
	loadErr  error
}

func (r *stubRepo) LoadSettings(ctx context.Context) (*domain.Settings, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if r.settings == nil {
		return nil, store.ErrNotConfigured
	}
	return r.settings, nil
}

func (r *stubRepo) SaveSettings(ctx context.Context, s *domain.Settings) error { return nil }
func (r *stubRepo) RandomJoke(ctx context.Context) (string, error)             { return "", nil }
func (r *stubRepo) AddJoke(ctx context.Context, joke string) error             { return nil }
func (r *stubRepo) LastRun(ctx context.Context) (time.Time, bool, error)       { return time.Time{}, false, nil }
func (r *stubRepo) TouchLastRun(ctx context.Context, now time.Time) error      { return nil }
func (r *stubRepo) Ping(ctx context.Context) error                             { return nil }
func (r *stubRepo) Close() error                                               { return nil }

func serveStatus(t *testing.T, repo store.Repository, sessions *bot.SessionManager) map[string]interface{} {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(repo, sessions).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestStatusUnconfigured(t *testing.T) {
	body := serveStatus(t, &stubRepo{}, bot.NewSessionManager())
	if body["configured"] != false {
		t.Errorf("configured = %v, want false", body["configured"])
	}
}

func TestStatusConfiguredWithSessions(t *testing.T) {
	repo := &stubRepo{settings: &domain.Settings{Token: "X", Language: "javascript", Strategy: "kyu_8_workout"}}
	sessions := bot.NewSessionManager()
	sessions.Get("C1")

	body := serveStatus(t, repo, sessions)
	if body["configured"] != true {
		t.Errorf("configured = %v, want true", body["configured"])
	}
	list, ok := body["sessions"].([]interface{})
	if !ok || len(list) != 1 {
		t.Fatalf("sessions = %v, want one entry", body["sessions"])
	}
	info := list[0].(map[string]interface{})
	if info["channel"] != "C1" || info["state"] != "ready" {
		t.Errorf("session info = %v", info)
	}
}
