// Package bot implements the command router, the per-channel challenge
// session state machine, and the grading poller.
package bot

import (
	"context"
	"sync"

	"github.com/mark4carter/codewarsbot/internal/domain"
)

// State is the challenge lifecycle state of a session.
type State int

const (
	// StateReady means the channel is configured and has no active challenge.
	StateReady State = iota
	// StateAwaitingDecision means a yes/no decision is pending. The
	// decision tag distinguishes what yes resolves to.
	StateAwaitingDecision
	// StateInProgress means a challenge is accepted and unsolved.
	StateInProgress
	// StatePolling means an attempt was submitted and its verdict is pending.
	StatePolling
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateAwaitingDecision:
		return "awaiting_decision"
	case StateInProgress:
		return "in_progress"
	case StatePolling:
		return "polling"
	}
	return "unknown"
}

// decision tags a pending yes/no prompt so yes dispatches correctly.
type decision int

const (
	decisionNone decision = iota
	// decisionAccept: yes accepts the offered challenge.
	decisionAccept
	// decisionDiscard: yes discards the active challenge and refetches.
	decisionDiscard
)

// Session holds the challenge lifecycle for one channel. All fields are
// guarded by mu; the router and the poller completion callback are the
// only mutators.
type Session struct {
	mu sync.Mutex

	ChannelID string

	state    State
	decision decision

	// offered is the fetched challenge awaiting an accept decision.
	offered *domain.Challenge
	// active is the accepted challenge being worked on.
	active     *domain.Challenge
	projectID  string
	solutionID string

	pendingSubmission string
	lastVerdictValid  bool

	cancelPoll context.CancelFunc
}

// NewSession creates a session for a channel in the ready state.
func NewSession(channelID string) *Session {
	return &Session{ChannelID: channelID, state: StateReady}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active returns the accepted challenge, or nil.
func (s *Session) Active() *domain.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// offerChallenge records a fetched challenge and moves to the accept
// decision. Caller holds mu.
func (s *Session) offerChallenge(ch *domain.Challenge) {
	s.offered = ch
	s.state = StateAwaitingDecision
	s.decision = decisionAccept
}

// promptDiscard moves an in-progress session to the discard confirmation.
// Caller holds mu.
func (s *Session) promptDiscard() {
	s.state = StateAwaitingDecision
	s.decision = decisionDiscard
}

// acceptOffered promotes the offered challenge to active with its grading
// session identifiers. Caller holds mu.
func (s *Session) acceptOffered(projectID, solutionID string) {
	s.active = s.offered
	s.offered = nil
	s.projectID = projectID
	s.solutionID = solutionID
	s.state = StateInProgress
	s.decision = decisionNone
	s.lastVerdictValid = false
}

// keepActive cancels a discard confirmation, keeping the current
// challenge. Caller holds mu.
func (s *Session) keepActive() {
	s.state = StateInProgress
	s.decision = decisionNone
}

// reset clears all challenge state and returns to ready. Caller holds mu.
func (s *Session) reset() {
	if s.cancelPoll != nil {
		s.cancelPoll()
		s.cancelPoll = nil
	}
	s.offered = nil
	s.active = nil
	s.projectID = ""
	s.solutionID = ""
	s.pendingSubmission = ""
	s.lastVerdictValid = false
	s.state = StateReady
	s.decision = decisionNone
}

// beginPolling records an accepted attempt submission. Caller holds mu.
func (s *Session) beginPolling(submissionID string, cancel context.CancelFunc) {
	s.pendingSubmission = submissionID
	s.cancelPoll = cancel
	s.state = StatePolling
}

// finishPolling returns to in-progress after a verdict or a poll failure.
// It reports whether the given submission was still the pending one; a
// stale delivery is dropped by the caller. Caller holds mu.
func (s *Session) finishPolling(submissionID string, valid bool) bool {
	if s.state != StatePolling || s.pendingSubmission != submissionID {
		return false
	}
	s.pendingSubmission = ""
	s.cancelPoll = nil
	s.lastVerdictValid = valid
	s.state = StateInProgress
	return true
}
