// Package codewars implements the HTTP client for the Codewars training API.
package codewars

import (
	"fmt"
	"strings"
)

// TrainResult is returned when a challenge is started for training. The
// project/solution pair identifies the grading session for later attempt
// and finalize calls.
type TrainResult struct {
	Slug       string
	Name       string
	Language   string
	ProjectID  string
	SolutionID string
}

// AttemptResult is the response to a non-final solution submission.
type AttemptResult struct {
	Success      bool   `json:"success"`
	SubmissionID string `json:"dmid"`
	Reason       string `json:"reason"`
}

// Summary carries the per-attempt test counts.
type Summary struct {
	Passed int `json:"passed"`
	Failed int `json:"failed"`
	Errors int `json:"errors"`
}

// Verdict is the graded result of an attempt. Ready is false while the
// grader is still running; the remaining fields are meaningful only once
// Ready is true.
type Verdict struct {
	Ready      bool     `json:"success"`
	Valid      bool     `json:"valid"`
	Reason     string   `json:"reason"`
	Output     []string `json:"output"`
	Summary    Summary  `json:"summary"`
	WallTimeMs int      `json:"wall_time"`
}

// RenderSummary formats the pass/fail/error counts the way the bot
// reports them to the channel.
func (v *Verdict) RenderSummary() string {
	return fmt.Sprintf("%d passed, %d failed, %d errors in %dms",
		v.Summary.Passed, v.Summary.Failed, v.Summary.Errors, v.WallTimeMs)
}

// RenderOutput joins the grader's output lines for display.
func (v *Verdict) RenderOutput() string {
	return strings.Join(v.Output, "\n")
}

// FinalizeResult is the response to the terminal submit operation.
type FinalizeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// APIError describes a failed remote call. Session state is never
// mutated when one of these is returned.
type APIError struct {
	Op         string
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("codewars %s: %s (status %d)", e.Op, e.Reason, e.StatusCode)
	}
	return fmt.Sprintf("codewars %s: status %d", e.Op, e.StatusCode)
}
