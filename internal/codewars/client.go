package codewars

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mark4carter/codewarsbot/internal/domain"
)

// testSlug is a long-standing public kata used for the connectivity check.
const testSlug = "valid-braces"

// Client talks to the Codewars API over HTTP JSON. All calls take a
// context and return a typed result or an *APIError.
type Client struct {
	baseURL  string
	token    string
	language string
	strategy string
	httpc    *http.Client
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Settings *domain.Settings
}

// New creates a Client bound to the given installation settings.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  opts.BaseURL,
		token:    opts.Settings.Token,
		language: opts.Settings.Language,
		strategy: opts.Settings.Strategy,
		httpc:    &http.Client{Timeout: timeout},
	}
}

// Test performs a read-only round trip to verify connectivity and the
// configured token.
func (c *Client) Test(ctx context.Context) error {
	var body struct {
		Slug string `json:"slug"`
	}
	if err := c.do(ctx, "test", http.MethodGet, "/code-challenges/"+testSlug, nil, &body); err != nil {
		return err
	}
	return nil
}

// Fetch retrieves the next challenge for the configured strategy without
// starting it. The session decides whether to accept it.
func (c *Client) Fetch(ctx context.Context) (*domain.Challenge, error) {
	path := fmt.Sprintf("/code-challenges/%s/train?peek=true", url.PathEscape(c.strategy))

	var body challengePayload
	if err := c.do(ctx, "fetch", http.MethodPost, path, nil, &body); err != nil {
		return nil, err
	}
	return body.toChallenge(c.language), nil
}

// Accept starts training the named challenge and returns the grading
// session identifiers needed by Attempt and Finalize.
func (c *Client) Accept(ctx context.Context, slug string) (*TrainResult, error) {
	path := fmt.Sprintf("/code-challenges/%s/%s/train",
		url.PathEscape(slug), url.PathEscape(c.language))

	var body challengePayload
	if err := c.do(ctx, "accept", http.MethodPost, path, nil, &body); err != nil {
		return nil, err
	}
	return &TrainResult{
		Slug:       body.Slug,
		Name:       body.Name,
		Language:   c.language,
		ProjectID:  body.Session.ProjectID,
		SolutionID: body.Session.SolutionID,
	}, nil
}

// Attempt submits a candidate solution for non-final grading.
func (c *Client) Attempt(ctx context.Context, projectID, solutionID, code string) (*AttemptResult, error) {
	path := fmt.Sprintf("/code-challenges/projects/%s/solutions/%s/attempt",
		url.PathEscape(projectID), url.PathEscape(solutionID))

	payload := map[string]string{"code": code}
	var body AttemptResult
	if err := c.do(ctx, "attempt", http.MethodPost, path, payload, &body); err != nil {
		return nil, err
	}
	return &body, nil
}

// Poll queries the deferred grading endpoint for a submitted attempt.
// The returned Verdict has Ready=false while grading is still running.
func (c *Client) Poll(ctx context.Context, submissionID string) (*Verdict, error) {
	path := "/deferred/" + url.PathEscape(submissionID)

	var body Verdict
	if err := c.do(ctx, "poll", http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	return &body, nil
}

// Finalize closes out a challenge whose last attempt was valid.
func (c *Client) Finalize(ctx context.Context, projectID, solutionID string) (*FinalizeResult, error) {
	path := fmt.Sprintf("/code-challenges/projects/%s/solutions/%s/finalize",
		url.PathEscape(projectID), url.PathEscape(solutionID))

	var body FinalizeResult
	if err := c.do(ctx, "finalize", http.MethodPost, path, nil, &body); err != nil {
		return nil, err
	}
	return &body, nil
}

// challengePayload mirrors the wire shape of train responses.
type challengePayload struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Session     struct {
		ProjectID  string `json:"projectId"`
		SolutionID string `json:"solutionId"`
		Setup      string `json:"setup"`
	} `json:"session"`
}

func (p *challengePayload) toChallenge(language string) *domain.Challenge {
	return &domain.Challenge{
		Slug:         p.Slug,
		Title:        p.Name,
		Instructions: p.Description,
		Language:     language,
		Description:  p.Session.Setup,
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, payload, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("codewars %s: %w", op, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("failed to close response body", "op", op, "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Op: op, StatusCode: resp.StatusCode}
		var failure struct {
			Reason string `json:"reason"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&failure); decodeErr == nil {
			apiErr.Reason = failure.Reason
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	return nil
}
