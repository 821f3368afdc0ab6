package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark4carter/codewarsbot/internal/codewars"
)

// ErrPollTimeout is returned when the poll budget is exhausted before the
// grader produced a terminal verdict.
var ErrPollTimeout = errors.New("grading did not finish within the polling budget")

// PollClient is the single judging-service call the poller needs.
type PollClient interface {
	Poll(ctx context.Context, submissionID string) (*codewars.Verdict, error)
}

// Poller repeatedly queries the deferred grading endpoint until a
// terminal verdict, with a fixed cadence and a bounded attempt budget.
type Poller struct {
	client   PollClient
	interval time.Duration
	budget   int
}

// NewPoller creates a poller. interval is the delay between polls, budget
// the maximum number of poll calls.
func NewPoller(client PollClient, interval time.Duration, budget int) *Poller {
	return &Poller{client: client, interval: interval, budget: budget}
}

// Run polls until the verdict is ready, the budget is exhausted
// (ErrPollTimeout), a remote call fails, or ctx is cancelled. One poll is
// outstanding at a time.
func (p *Poller) Run(ctx context.Context, submissionID string) (*codewars.Verdict, error) {
	for attempt := 0; attempt < p.budget; attempt++ {
		verdict, err := p.client.Poll(ctx, submissionID)
		if err != nil {
			return nil, fmt.Errorf("poll attempt %d: %w", attempt+1, err)
		}
		if verdict.Ready {
			return verdict, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.interval):
		}
	}
	return nil, ErrPollTimeout
}
