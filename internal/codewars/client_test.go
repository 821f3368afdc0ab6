package codewars

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark4carter/codewarsbot/internal/domain"
)

func testSettings() *domain.Settings {
	return &domain.Settings{Token: "tok-123", Language: "javascript", Strategy: "kyu_8_workout"}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, Settings: testSettings()})
}

func TestFetchDecodesChallenge(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/code-challenges/kyu_8_workout/train" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "tok-123" {
			t.Errorf("auth header = %q", got)
		}
		w.Write([]byte(`{
			"slug": "multiply",
			"name": "Multiply",
			"description": "Return a * b.",
			"session": {"projectId": "p1", "solutionId": "s1", "setup": "function multiply(a, b) {}"}
		}`))
	})

	ch, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if ch.Slug != "multiply" || ch.Title != "Multiply" || ch.Language != "javascript" {
		t.Errorf("challenge = %+v", ch)
	}
	if ch.Instructions != "Return a * b." {
		t.Errorf("instructions = %q", ch.Instructions)
	}
}

func TestAcceptReturnsSessionIDs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/code-challenges/multiply/javascript/train" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"slug": "multiply", "name": "Multiply", "session": {"projectId": "p1", "solutionId": "s1"}}`))
	})

	res, err := client.Accept(context.Background(), "multiply")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if res.ProjectID != "p1" || res.SolutionID != "s1" {
		t.Errorf("result = %+v", res)
	}
}

func TestAttemptPostsCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/code-challenges/projects/p1/solutions/s1/attempt" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content type = %q", got)
		}
		w.Write([]byte(`{"success": true, "dmid": "dm-42"}`))
	})

	res, err := client.Attempt(context.Background(), "p1", "s1", "code")
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if !res.Success || res.SubmissionID != "dm-42" {
		t.Errorf("result = %+v", res)
	}
}

func TestPollNotReadyThenReady(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/deferred/dm-42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		calls++
		if calls == 1 {
			w.Write([]byte(`{"success": false}`))
			return
		}
		w.Write([]byte(`{
			"success": true, "valid": true,
			"output": ["ok"],
			"summary": {"passed": 3, "failed": 0, "errors": 0},
			"wall_time": 57
		}`))
	})

	first, err := client.Poll(context.Background(), "dm-42")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if first.Ready {
		t.Errorf("first poll must not be ready")
	}

	second, err := client.Poll(context.Background(), "dm-42")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !second.Ready || !second.Valid || second.Summary.Passed != 3 {
		t.Errorf("verdict = %+v", second)
	}
	if got := second.RenderSummary(); got != "3 passed, 0 failed, 0 errors in 57ms" {
		t.Errorf("summary = %q", got)
	}
}

func TestFinalize(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/code-challenges/projects/p1/solutions/s1/finalize" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"success": true}`))
	})

	res, err := client.Finalize(context.Background(), "p1", "s1")
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !res.Success {
		t.Errorf("result = %+v", res)
	}
}

func TestAPIErrorCarriesReason(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"reason": "unauthorized"}`))
	})

	_, err := client.Fetch(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Reason != "unauthorized" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if apiErr.Op != "fetch" {
		t.Errorf("op = %q, want fetch", apiErr.Op)
	}
}

func TestTestUsesReadOnlyEndpoint(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Write([]byte(`{"slug": "valid-braces"}`))
	})

	if err := client.Test(context.Background()); err != nil {
		t.Fatalf("Test: %v", err)
	}
}
