package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/proctored-quiz/internal/integrity"
	"github.com/mind-engage/proctored-quiz/internal/metrics"
	"github.com/mind-engage/proctored-quiz/internal/quiz"
)

type Phase string

const (
	PhaseIdle   Phase = "idle"
	PhaseActive Phase = "active"
	PhaseGraded Phase = "graded"
)

var (
	ErrNotActive       = errors.New("session is not active")
	ErrAlreadyGraded   = errors.New("session already graded")
	ErrBlocked         = errors.New("a prompt must be answered first")
	ErrEmptySubmission = errors.New("nothing to submit")
	ErrNoPendingSubmit = errors.New("no submission awaiting confirmation")
	ErrSubmitCancelled = errors.New("submission cancelled")
	ErrNoWarning       = errors.New("no integrity warning to resume from")
	ErrNotAcknowledged = errors.New("prompt cannot be acknowledged")
	ErrNotGraded       = errors.New("session not graded yet")
)

// IntegrityState is the read-only integrity view for the UI.
type IntegrityState struct {
	ViolationCount int             `json:"violation_count"`
	MaxViolations  int             `json:"max_violations"`
	SessionActive  bool            `json:"session_active"`
	WarningVisible bool            `json:"warning_visible"`
	Monitor        integrity.State `json:"monitor"`
	Degraded       bool            `json:"degraded"`
}

// Result is what a graded session reveals.
type Result struct {
	Stats       quiz.Stats
	Correctness quiz.Correctness
	Report      PersistReport
}

// Progress is the part of the stats that reveals nothing about correctness.
type Progress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// Snapshot is a consistent copy of the session taken under one lock.
// Stats and Correct are only set once graded.
type Snapshot struct {
	UserID    string           `json:"user_id"`
	Phase     Phase            `json:"phase"`
	Graded    bool             `json:"graded"`
	Prompt    Prompt           `json:"prompt"`
	Integrity IntegrityState   `json:"integrity"`
	Progress  Progress         `json:"progress"`
	Stats     *quiz.Stats      `json:"stats,omitempty"`
	Answers   map[int][]string `json:"answers"`
	Correct   []int            `json:"correct,omitempty"`
}

type Option func(*Session)

// WithRandomizer replaces quiz.Randomize, e.g. to count re-randomizations.
func WithRandomizer(fn func([]quiz.Question) []quiz.Question) Option {
	return func(s *Session) { s.randomize = fn }
}

func WithUserIDs(fn func() string) Option { return func(s *Session) { s.newUserID = fn } }

func WithPipeline(p *Pipeline) Option { return func(s *Session) { s.pipeline = p } }

func WithLogger(l *zap.Logger) Option { return func(s *Session) { s.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Session) { s.metrics = m } }

func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// WithMonitorOptions configures the integrity monitor (limit, coalescing).
func WithMonitorOptions(opts ...integrity.Option) Option {
	return func(s *Session) { s.monitorOpts = append(s.monitorOpts, opts...) }
}

// Session owns one quiz incarnation at a time: its question order, answers,
// integrity monitor and grading. One mutex serialises every event.
type Session struct {
	mu sync.Mutex

	corpus      []quiz.Question
	randomize   func([]quiz.Question) []quiz.Question
	newUserID   func() string
	pipeline    *Pipeline
	log         *zap.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
	monitorOpts []integrity.Option
	monitor     *integrity.Monitor

	incarnation uint64
	userID      string
	questions   []quiz.Question
	answers     *quiz.AnswerStore
	phase       Phase
	prompt      Prompt
	correctness quiz.Correctness
	stats       quiz.Stats
	report      *PersistReport
}

// New builds a session over corpus observing platform. Without WithPipeline
// submissions are kept in an in-process memory store.
func New(corpus []quiz.Question, platform integrity.Platform, opts ...Option) *Session {
	s := &Session{
		corpus:    corpus,
		randomize: quiz.Randomize,
		newUserID: NewUserID,
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.pipeline == nil {
		s.pipeline = NewPipeline(quiz.NewMemoryStore(), nil, s.log, s.metrics)
	}
	s.monitor = integrity.NewMonitor(platform, append([]integrity.Option{integrity.WithLogger(s.log)}, s.monitorOpts...)...)
	s.reincarnate()
	return s
}

// Start activates the monitor and opens the quiz for answers.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case PhaseGraded:
		return ErrAlreadyGraded
	case PhaseActive:
		return nil
	}
	s.monitor.Start(ctx, s.HandleSignal)
	s.phase = PhaseActive
	s.prompt = NoPrompt()
	s.metrics.SessionStarted()
	s.log.Info("session started",
		zap.String("user_id", s.userID),
		zap.Int("questions", len(s.questions)),
		zap.Bool("degraded", s.monitor.Degraded()))
	return nil
}

// HandleSignal is the platform subscriber. Signals outside an active session
// are dropped.
func (s *Session) HandleSignal(sig integrity.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return
	}
	switch s.monitor.Observe(sig) {
	case integrity.VerdictWarn:
		s.metrics.Violation(string(sig.Kind))
		s.prompt = FullscreenWarning(s.monitor.Count(), s.monitor.Max())
	case integrity.VerdictRestart:
		s.metrics.Violation(string(sig.Kind))
		s.metrics.ForcedRestart()
		count := s.monitor.Count()
		s.log.Warn("violation limit reached, restarting session",
			zap.String("user_id", s.userID),
			zap.Int("violations", count))
		s.reincarnate()
		s.prompt = RestartNotice(count)
	}
}

// ReportFullscreenError marks the monitor degraded after the client failed to
// enter fullscreen.
func (s *Session) ReportFullscreenError(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseActive {
		s.monitor.MarkDegraded(reason)
	}
}

// Resume dismisses the integrity warning and re-requests fullscreen. A denied
// request leaves the session running degraded.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prompt.Kind != PromptFullscreenWarning {
		return ErrNoWarning
	}
	s.prompt = NoPrompt()
	// a denial is logged by the monitor and leaves it degraded
	_ = s.monitor.Resume(ctx)
	return nil
}

// Abandon leaves the active quiz for the start screen. Answers, question
// order and user id are kept; the violation count starts over.
func (s *Session) Abandon(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return ErrNotActive
	}
	s.monitor.Abandon(ctx)
	s.phase = PhaseIdle
	s.prompt = NoPrompt()
	s.log.Info("session abandoned", zap.String("user_id", s.userID))
	return nil
}

// Acknowledge clears an informational prompt.
func (s *Session) Acknowledge() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.prompt.Dismissible() {
		return ErrNotAcknowledged
	}
	s.prompt = NoPrompt()
	return nil
}

// ToggleAnswer applies one option click. It reports whether the selection
// changed; unknown questions and options are ignored.
func (s *Session) ToggleAnswer(questionID int, option string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive {
		return false, ErrNotActive
	}
	if s.prompt.Blocking() {
		return false, ErrBlocked
	}
	return s.answers.Toggle(questionID, option), nil
}

func (s *Session) CurrentStats() quiz.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, st := s.evaluate()
	return st
}

func (s *Session) CurrentCorrectness() quiz.Correctness {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _ := s.evaluate()
	return c
}

// RequestSubmit opens the confirmation gate. With no answers it shows the
// empty-submission prompt instead and returns ErrEmptySubmission.
func (s *Session) RequestSubmit() (Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.phase == PhaseGraded:
		return s.prompt, ErrAlreadyGraded
	case s.phase != PhaseActive:
		return s.prompt, ErrNotActive
	case s.prompt.Kind == PromptFullscreenWarning:
		return s.prompt, ErrBlocked
	}
	if s.answers.Size() == 0 {
		s.prompt = EmptySubmission()
		return s.prompt, ErrEmptySubmission
	}
	s.prompt = SubmitConfirm(s.answers.Size(), len(s.questions))
	return s.prompt, nil
}

// CancelSubmit closes the confirmation gate; the session stays active.
func (s *Session) CancelSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prompt.Kind != PromptSubmitConfirm {
		return ErrNoPendingSubmit
	}
	s.prompt = NoPrompt()
	return nil
}

// ConfirmSubmit grades the session and persists it. Grading happens in one
// critical section before any write; persistence failures are reported but
// never undo it. A graded session returns its result without writing again.
func (s *Session) ConfirmSubmit(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.phase == PhaseGraded {
		res := s.result()
		s.mu.Unlock()
		return res, nil
	}
	if s.prompt.Kind != PromptSubmitConfirm {
		s.mu.Unlock()
		return Result{}, ErrNoPendingSubmit
	}
	s.correctness, s.stats = quiz.Evaluate(s.questions, s.answers)
	s.phase = PhaseGraded
	s.prompt = NoPrompt()
	violations := s.monitor.History()
	s.monitor.Stop()
	inc := s.incarnation
	sub := Submission{
		UserID:      s.userID,
		Answers:     s.answers.Entries(),
		Correctness: copyCorrectness(s.correctness),
		Stats:       s.stats,
		Violations:  violations,
		SubmittedAt: s.now().UTC(),
	}
	s.metrics.Submitted(s.stats.Percentage)
	s.log.Info("session graded",
		zap.String("user_id", s.userID),
		zap.Int("correct", s.stats.Correct),
		zap.Int("total", s.stats.Total),
		zap.Int("percentage", s.stats.Percentage))
	s.mu.Unlock()

	rep := s.pipeline.Persist(ctx, sub)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incarnation == inc {
		s.report = &rep
	}
	return Result{Stats: sub.Stats, Correctness: sub.Correctness, Report: rep}, nil
}

// Submit runs the whole protocol for callers without a UI: confirm=false
// cancels at the gate.
func (s *Session) Submit(ctx context.Context, confirm bool) (Result, error) {
	s.mu.Lock()
	if s.phase == PhaseGraded {
		res := s.result()
		s.mu.Unlock()
		return res, nil
	}
	s.mu.Unlock()

	if _, err := s.RequestSubmit(); err != nil {
		return Result{}, err
	}
	if !confirm {
		if err := s.CancelSubmit(); err != nil {
			return Result{}, err
		}
		return Result{}, ErrSubmitCancelled
	}
	return s.ConfirmSubmit(ctx)
}

// Reset starts a new incarnation at the start screen, leaving fullscreen if
// the quiz was running.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.monitor.State() == integrity.StateActive {
		s.monitor.Abandon(ctx)
	}
	s.log.Info("session reset", zap.String("previous_user_id", s.userID))
	s.reincarnate()
}

func (s *Session) IntegrityState() IntegrityState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.integrityState()
}

func (s *Session) Prompt() Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Questions returns the incarnation's question order with options as shown.
func (s *Session) Questions() []quiz.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]quiz.Question(nil), s.questions...)
}

// Report returns the persistence outcome once a submission finished writing.
func (s *Session) Report() (PersistReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return PersistReport{}, false
	}
	return *s.report, true
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		UserID:    s.userID,
		Phase:     s.phase,
		Graded:    s.phase == PhaseGraded,
		Prompt:    s.prompt,
		Integrity: s.integrityState(),
		Progress:  Progress{Answered: s.answers.Size(), Total: len(s.questions)},
		Answers:   map[int][]string{},
	}
	for _, e := range s.answers.Entries() {
		snap.Answers[e.QuestionID] = e.Selected
	}
	if snap.Graded {
		st := s.stats
		snap.Stats = &st
		snap.Correct = copyCorrectness(s.correctness).IDs()
	}
	return snap
}

func (s *Session) integrityState() IntegrityState {
	return IntegrityState{
		ViolationCount: s.monitor.Count(),
		MaxViolations:  s.monitor.Max(),
		SessionActive:  s.phase == PhaseActive,
		WarningVisible: s.prompt.Kind == PromptFullscreenWarning,
		Monitor:        s.monitor.State(),
		Degraded:       s.monitor.Degraded(),
	}
}

// evaluate returns the frozen result once graded, the live view otherwise.
func (s *Session) evaluate() (quiz.Correctness, quiz.Stats) {
	if s.phase == PhaseGraded {
		return copyCorrectness(s.correctness), s.stats
	}
	return quiz.Evaluate(s.questions, s.answers)
}

func (s *Session) result() Result {
	res := Result{Stats: s.stats, Correctness: copyCorrectness(s.correctness)}
	if s.report != nil {
		res.Report = *s.report
	}
	return res
}

// reincarnate discards all per-incarnation state. Callers hold mu.
func (s *Session) reincarnate() {
	s.monitor.Reset()
	s.incarnation++
	s.userID = s.newUserID()
	s.questions = s.randomize(s.corpus)
	s.answers = quiz.NewAnswerStore(s.questions)
	s.phase = PhaseIdle
	s.prompt = NoPrompt()
	s.correctness = nil
	s.stats = quiz.Stats{}
	s.report = nil
}

func copyCorrectness(c quiz.Correctness) quiz.Correctness {
	out := make(quiz.Correctness, len(c))
	for id := range c {
		out[id] = struct{}{}
	}
	return out
}
