package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mark4carter/codewarsbot/internal/codewars"
	"github.com/mark4carter/codewarsbot/internal/domain"
	"github.com/mark4carter/codewarsbot/internal/store"
)

// Message is an inbound chat message, already resolved by the transport.
type Message struct {
	Channel string
	User    string
	Text    string
	// FileURL is set when the message carries a file attachment.
	FileURL string
}

// Sender posts text to a channel. Implemented by the chat transport.
type Sender interface {
	Send(ctx context.Context, channelID, text string) error
}

// FileFetcher resolves a file attachment to its raw text.
type FileFetcher interface {
	FetchFile(ctx context.Context, fileURL string) (string, error)
}

// Judge is the judging-service surface the router needs. Implemented by
// *codewars.Client.
type Judge interface {
	Test(ctx context.Context) error
	Fetch(ctx context.Context) (*domain.Challenge, error)
	Accept(ctx context.Context, slug string) (*codewars.TrainResult, error)
	Attempt(ctx context.Context, projectID, solutionID, code string) (*codewars.AttemptResult, error)
	Poll(ctx context.Context, submissionID string) (*codewars.Verdict, error)
	Finalize(ctx context.Context, projectID, solutionID string) (*codewars.FinalizeResult, error)
}

// JudgeFactory builds a Judge bound to the current settings. Settings can
// change at runtime via setup, so the judge is rebuilt per command.
type JudgeFactory func(settings *domain.Settings) Judge

// Options configures a Router.
type Options struct {
	Repo         store.Repository
	Sender       Sender
	Files        FileFetcher
	JudgeFor     JudgeFactory
	Trigger      string
	BotName      string
	PollInterval time.Duration
	PollBudget   int
}

// Router parses inbound chat text, enforces the configured guard, and
// drives the per-channel challenge sessions.
type Router struct {
	repo         store.Repository
	sessions     *SessionManager
	sender       Sender
	files        FileFetcher
	judgeFor     JudgeFactory
	trigger      string
	botName      string
	pollInterval time.Duration
	pollBudget   int

	wg sync.WaitGroup
}

// NewRouter creates a Router. Trigger and bot name are matched
// case-insensitively.
func NewRouter(opts Options) *Router {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	budget := opts.PollBudget
	if budget <= 0 {
		budget = 300
	}
	return &Router{
		repo:         opts.Repo,
		sessions:     NewSessionManager(),
		sender:       opts.Sender,
		files:        opts.Files,
		judgeFor:     opts.JudgeFor,
		trigger:      strings.ToLower(opts.Trigger),
		botName:      strings.ToLower(opts.BotName),
		pollInterval: interval,
		pollBudget:   budget,
	}
}

// Sessions exposes the session manager for the status endpoint.
func (r *Router) Sessions() *SessionManager {
	return r.sessions
}

// Wait blocks until all in-flight poll goroutines have finished. Used
// during shutdown and in tests.
func (r *Router) Wait() {
	r.wg.Wait()
}

// HandleMessage routes one inbound chat message. Every failure is
// converted to an outbound reply; nothing propagates to the caller.
func (r *Router) HandleMessage(ctx context.Context, msg Message) {
	// A mention outranks the command path: mentioning the bot always
	// earns a joke, even when the trigger keyword appears too.
	lower := strings.ToLower(msg.Text)
	if r.mentionsBot(lower) {
		r.replyWithJoke(ctx, msg.Channel)
		return
	}
	if !strings.Contains(lower, r.trigger) {
		return
	}

	// A pipe-delimited message whose third segment mentions verify is a
	// file-share verification: resolve the attachment and synthesize an
	// equivalent verify command.
	if segs := strings.Split(msg.Text, "|"); len(segs) > 2 &&
		strings.Contains(strings.ToLower(segs[2]), r.trigger+" verify") && msg.FileURL != "" {
		body, err := r.files.FetchFile(ctx, msg.FileURL)
		if err != nil {
			slog.Error("fetch shared file", "channel", msg.Channel, "error", err)
			r.send(ctx, msg.Channel, fmt.Sprintf("Could not download your file: %v", err))
			return
		}
		msg.Text = r.trigger + " verify " + body
	}

	verb, ok := extractVerb(msg.Text)
	if !ok {
		r.send(ctx, msg.Channel, replyUnknown(strings.TrimSpace(msg.Text)))
		return
	}

	settings, err := r.repo.LoadSettings(ctx)
	if err != nil && !errors.Is(err, store.ErrNotConfigured) {
		slog.Error("load settings", "channel", msg.Channel, "error", err)
		r.send(ctx, msg.Channel, "Could not read settings, please try again.")
		return
	}
	if settings == nil && verb != VerbSetup && verb != VerbHelp {
		r.send(ctx, msg.Channel, replyRunSetup)
		return
	}

	switch verb {
	case VerbSetup:
		r.handleSetup(ctx, msg)
	case VerbTest:
		r.handleTest(ctx, msg, settings)
	case VerbTrain:
		r.handleTrain(ctx, msg, settings)
	case VerbVerify:
		r.handleVerify(ctx, msg, settings)
	case VerbSubmit:
		r.handleSubmit(ctx, msg, settings)
	case VerbPrint:
		r.handlePrint(ctx, msg)
	case VerbYes:
		r.handleYes(ctx, msg, settings)
	case VerbNo:
		r.handleNo(ctx, msg)
	case VerbHelp:
		r.send(ctx, msg.Channel, codeBlock(usageText))
	case VerbUnknown:
		r.send(ctx, msg.Channel, replyUnknown(strings.TrimSpace(msg.Text)))
	default:
		// Unreachable as long as the switch covers the verb enum.
		slog.Error("unhandled verb", "verb", int(verb), "channel", msg.Channel)
		r.send(ctx, msg.Channel, replyUnknown(strings.TrimSpace(msg.Text)))
	}
}

// Welcome posts the first-run greeting and records the startup time.
func (r *Router) Welcome(ctx context.Context, channelID string) error {
	_, seen, err := r.repo.LastRun(ctx)
	if err != nil {
		return fmt.Errorf("check last run: %w", err)
	}
	if !seen && channelID != "" {
		r.send(ctx, channelID, welcomeMessage)
	}
	if err := r.repo.TouchLastRun(ctx, time.Now()); err != nil {
		return fmt.Errorf("record last run: %w", err)
	}
	return nil
}

func (r *Router) handleSetup(ctx context.Context, msg Message) {
	args := parseSetupArgs(msg.Text)
	if args.Token == "" {
		r.send(ctx, msg.Channel, replySetupMissingToken)
		return
	}
	if !domain.SupportedLanguage(args.Language) {
		r.send(ctx, msg.Channel, replyUnsupportedLanguage(args.Language))
		return
	}

	settings := &domain.Settings{
		Token:    args.Token,
		Language: args.Language,
		Strategy: args.Strategy,
	}
	if err := r.repo.SaveSettings(ctx, settings); err != nil {
		slog.Error("save settings", "channel", msg.Channel, "error", err)
		r.send(ctx, msg.Channel, "Saving settings failed, there seems to be an issue.")
		return
	}
	slog.Info("settings saved", "language", settings.Language, "strategy", settings.Strategy)
	r.send(ctx, msg.Channel, replySetupSaved)
}

func (r *Router) handleTest(ctx context.Context, msg Message, settings *domain.Settings) {
	r.send(ctx, msg.Channel, replyTesting)
	if err := r.judgeFor(settings).Test(ctx); err != nil {
		r.send(ctx, msg.Channel, replyRemoteFailure(err))
		return
	}
	r.send(ctx, msg.Channel, replyTestSuccess)
}

func (r *Router) handleTrain(ctx context.Context, msg Message, settings *domain.Settings) {
	s := r.sessions.Get(msg.Channel)
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state == StatePolling:
		r.send(ctx, msg.Channel, replyGradingBusy)
	case s.state == StateInProgress && s.active != nil:
		s.promptDiscard()
		r.send(ctx, msg.Channel, replyDismissPrompt)
	default:
		r.fetchAndOfferLocked(ctx, s, settings)
	}
}

// fetchAndOfferLocked fetches the next challenge and presents it. On
// failure the session keeps its pre-call state. Caller holds s.mu.
func (r *Router) fetchAndOfferLocked(ctx context.Context, s *Session, settings *domain.Settings) {
	r.send(ctx, s.ChannelID, replyFindingChallenge)

	ch, err := r.judgeFor(settings).Fetch(ctx)
	if err != nil {
		slog.Error("fetch challenge", "channel", s.ChannelID, "error", err)
		r.send(ctx, s.ChannelID, replyRemoteFailure(err))
		return
	}

	s.offerChallenge(ch)
	r.send(ctx, s.ChannelID, ch.Render()+replyTakeChallenge)
}

func (r *Router) handleYes(ctx context.Context, msg Message, settings *domain.Settings) {
	s := r.sessions.Get(msg.Channel)
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.decision {
	case decisionDiscard:
		s.reset()
		r.send(ctx, msg.Channel, replyNewChallenge)
		r.fetchAndOfferLocked(ctx, s, settings)
	case decisionAccept:
		res, err := r.judgeFor(settings).Accept(ctx, s.offered.Slug)
		if err != nil {
			slog.Error("accept challenge", "channel", msg.Channel, "slug", s.offered.Slug, "error", err)
			r.send(ctx, msg.Channel, replyRemoteFailure(err))
			return
		}
		s.acceptOffered(res.ProjectID, res.SolutionID)
		r.send(ctx, msg.Channel, s.active.AcceptedMessage())
	default:
		r.send(ctx, msg.Channel, replyTrainFirst)
	}
}

func (r *Router) handleNo(ctx context.Context, msg Message) {
	s := r.sessions.Get(msg.Channel)
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.decision {
	case decisionDiscard:
		s.keepActive()
		r.send(ctx, msg.Channel, replyKeepChallenge)
	case decisionAccept:
		s.reset()
		r.send(ctx, msg.Channel, replyDismissed)
	default:
		r.send(ctx, msg.Channel, replyTrainFirst)
	}
}

func (r *Router) handleVerify(ctx context.Context, msg Message, settings *domain.Settings) {
	s := r.sessions.Get(msg.Channel)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StatePolling {
		r.send(ctx, msg.Channel, replyGradingBusy)
		return
	}
	if s.state != StateInProgress || s.active == nil {
		r.send(ctx, msg.Channel, replyNoChallenge)
		return
	}

	code := extractSolution(msg.Text)
	if code == "" {
		r.send(ctx, msg.Channel, "Nothing to verify. Paste your solution after the verify keyword.")
		return
	}
	r.send(ctx, msg.Channel, codeBlock(code))

	judge := r.judgeFor(settings)
	res, err := judge.Attempt(ctx, s.projectID, s.solutionID, code)
	if err != nil {
		slog.Error("submit attempt", "channel", msg.Channel, "error", err)
		r.send(ctx, msg.Channel, replyRemoteFailure(err))
		return
	}
	if !res.Success {
		r.send(ctx, msg.Channel, fmt.Sprintf("Attempt rejected: %s", res.Reason))
		return
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	s.beginPolling(res.SubmissionID, cancel)
	slog.Info("attempt submitted", "channel", msg.Channel, "submission_id", res.SubmissionID)

	r.wg.Add(1)
	go r.pollVerdict(pollCtx, s, res.SubmissionID, judge)
}

// pollVerdict runs the grading poller and delivers the verdict back into
// the session. A verdict for a submission the session no longer tracks is
// discarded.
func (r *Router) pollVerdict(ctx context.Context, s *Session, submissionID string, judge Judge) {
	defer r.wg.Done()

	poller := NewPoller(judge, r.pollInterval, r.pollBudget)
	verdict, err := poller.Run(ctx, submissionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	bg := context.Background()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if !s.finishPolling(submissionID, false) {
			return
		}
		slog.Error("grading poll failed", "channel", s.ChannelID, "submission_id", submissionID, "error", err)
		if errors.Is(err, ErrPollTimeout) {
			r.send(bg, s.ChannelID, replyGradingTimedOut)
		} else {
			r.send(bg, s.ChannelID, replyRemoteFailure(err))
		}
		return
	}

	if !s.finishPolling(submissionID, verdict.Valid) {
		slog.Warn("discarding stale verdict", "channel", s.ChannelID, "submission_id", submissionID)
		return
	}

	if verdict.Valid {
		r.send(bg, s.ChannelID, replySolutionValid)
	} else {
		r.send(bg, s.ChannelID, replySolutionInvalid(verdict.Reason))
		if out := verdict.RenderOutput(); out != "" {
			r.send(bg, s.ChannelID, out)
		}
	}
	r.send(bg, s.ChannelID, verdict.RenderSummary())
}

func (r *Router) handleSubmit(ctx context.Context, msg Message, settings *domain.Settings) {
	s := r.sessions.Get(msg.Channel)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StatePolling {
		r.send(ctx, msg.Channel, replyGradingBusy)
		return
	}
	if s.state != StateInProgress || s.active == nil {
		r.send(ctx, msg.Channel, replyNoChallenge)
		return
	}
	if !s.lastVerdictValid {
		r.send(ctx, msg.Channel, replyVerifyFirst)
		return
	}

	res, err := r.judgeFor(settings).Finalize(ctx, s.projectID, s.solutionID)
	if err != nil {
		slog.Error("finalize", "channel", msg.Channel, "error", err)
		r.send(ctx, msg.Channel, replyRemoteFailure(err))
		return
	}
	if !res.Success {
		r.send(ctx, msg.Channel, res.Message)
		return
	}

	r.send(ctx, msg.Channel, replyKataCompleted)
	r.send(ctx, msg.Channel, "See more solutions here: "+s.active.SolutionsURL())
	slog.Info("kata completed", "channel", msg.Channel, "slug", s.active.Slug)
	s.reset()
}

func (r *Router) handlePrint(ctx context.Context, msg Message) {
	s := r.sessions.Get(msg.Channel)
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.active != nil:
		r.send(ctx, msg.Channel, s.active.RenderFull())
	case s.offered != nil:
		r.send(ctx, msg.Channel, s.offered.RenderFull())
	default:
		r.send(ctx, msg.Channel, replyNoChallenge)
	}
}

func (r *Router) mentionsBot(lower string) bool {
	if strings.Contains(lower, "chuck norris") {
		return true
	}
	return r.botName != "" && strings.Contains(lower, r.botName)
}

func (r *Router) replyWithJoke(ctx context.Context, channelID string) {
	joke, err := r.repo.RandomJoke(ctx)
	if err != nil {
		slog.Error("fetch joke", "channel", channelID, "error", err)
		r.send(ctx, channelID, replyNoJoke)
		return
	}
	r.send(ctx, channelID, joke)
}

func (r *Router) send(ctx context.Context, channelID, text string) {
	if err := r.sender.Send(ctx, channelID, text); err != nil {
		slog.Error("send message", "channel", channelID, "error", err)
	}
}
