package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/proctored-quiz/internal/integrity"
	"github.com/mind-engage/proctored-quiz/internal/metrics"
	"github.com/mind-engage/proctored-quiz/internal/quiz"
	syncx "github.com/mind-engage/proctored-quiz/internal/sync"
)

const (
	stageAttempt   = "attempt"
	stageResponses = "responses"
	stageAudit     = "audit"
)

// Submission is the graded state handed to the pipeline.
type Submission struct {
	UserID      string
	Answers     []quiz.Entry
	Correctness quiz.Correctness
	Stats       quiz.Stats
	Violations  []integrity.Violation
	SubmittedAt time.Time
}

// PersistReport records the outcome of each write. A nil error with a zero
// AttemptID means the stage was never reached.
type PersistReport struct {
	AttemptID    int64
	AttemptErr   error
	ResponsesErr error
	AuditErr     error
}

func (r PersistReport) AttemptPersisted() bool { return r.AttemptErr == nil && r.AttemptID != 0 }

func (r PersistReport) ResponsesPersisted() bool {
	return r.AttemptPersisted() && r.ResponsesErr == nil
}

type auditPayload struct {
	AttemptID   int64                 `json:"attempt_id"`
	Stats       quiz.Stats            `json:"stats"`
	Correct     []int                 `json:"correct"`
	Violations  []integrity.Violation `json:"violations"`
	SubmittedAt time.Time             `json:"submitted_at"`
}

// Pipeline writes a graded submission: the attempt first, then its responses
// and the audit event only once the attempt has a durable id.
type Pipeline struct {
	store   quiz.Store
	events  syncx.Appender
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewPipeline wires the persistence sinks. events and m may be nil.
func NewPipeline(store quiz.Store, events syncx.Appender, log *zap.Logger, m *metrics.Metrics) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{store: store, events: events, log: log, metrics: m}
}

// Persist never fails the submission; every error is logged and reported.
// The writes are not bound to the caller's cancellation.
func (p *Pipeline) Persist(ctx context.Context, sub Submission) PersistReport {
	ctx = context.WithoutCancel(ctx)
	log := p.log.With(zap.String("user_id", sub.UserID))
	var rep PersistReport

	att, err := p.store.CreateAttempt(ctx, quiz.AttemptInput{
		UserID:         sub.UserID,
		Score:          sub.Stats.Correct,
		TotalQuestions: sub.Stats.Total,
	})
	if err == nil && att.ID == 0 {
		err = quiz.ErrAttemptNotPersisted
	}
	if err != nil {
		rep.AttemptErr = err
		p.metrics.PersistenceFailure(stageAttempt)
		log.Error("persist attempt failed, responses skipped", zap.Error(err))
		return rep
	}
	rep.AttemptID = att.ID
	log = log.With(zap.Int64("attempt_id", att.ID))

	if len(sub.Answers) > 0 {
		rs := make([]quiz.Response, 0, len(sub.Answers))
		for _, e := range sub.Answers {
			rs = append(rs, quiz.Response{
				AttemptID:       att.ID,
				QuestionNumber:  e.QuestionID,
				SelectedOptions: e.Selected,
				IsCorrect:       sub.Correctness.Has(e.QuestionID),
			})
		}
		if err := p.store.CreateResponses(ctx, rs); err != nil {
			rep.ResponsesErr = err
			p.metrics.PersistenceFailure(stageResponses)
			log.Error("persist responses failed", zap.Int("responses", len(rs)), zap.Error(err))
		}
	}

	if p.events != nil {
		rep.AuditErr = p.audit(ctx, att.ID, sub)
		if rep.AuditErr != nil {
			p.metrics.PersistenceFailure(stageAudit)
			log.Error("append audit event failed", zap.Error(rep.AuditErr))
		}
	}

	log.Info("submission persisted",
		zap.Int("score", sub.Stats.Correct),
		zap.Int("total", sub.Stats.Total),
		zap.Bool("responses_ok", rep.ResponsesErr == nil))
	return rep
}

func (p *Pipeline) audit(ctx context.Context, attemptID int64, sub Submission) error {
	violations := sub.Violations
	if violations == nil {
		violations = []integrity.Violation{}
	}
	ev, err := syncx.NewEvent(syncx.TypeAttemptSubmitted, sub.UserID, auditPayload{
		AttemptID:   attemptID,
		Stats:       sub.Stats,
		Correct:     sub.Correctness.IDs(),
		Violations:  violations,
		SubmittedAt: sub.SubmittedAt,
	})
	if err != nil {
		return err
	}
	return p.events.Append(ctx, ev)
}
