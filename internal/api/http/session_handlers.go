package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	auth "github.com/mind-engage/proctored-quiz/internal/auth/middleware"
	"github.com/mind-engage/proctored-quiz/internal/integrity"
	"github.com/mind-engage/proctored-quiz/internal/quiz"
	"github.com/mind-engage/proctored-quiz/internal/session"
)

type sessionView struct {
	session.Snapshot
	Directives []integrity.Directive `json:"directives"`
}

type reportView struct {
	AttemptID          int64  `json:"attempt_id,omitempty"`
	AttemptPersisted   bool   `json:"attempt_persisted"`
	ResponsesPersisted bool   `json:"responses_persisted"`
	Error              string `json:"error,omitempty"`
}

type resultView struct {
	Stats   quiz.Stats `json:"stats"`
	Correct []int      `json:"correct"`
	Report  reportView `json:"report"`
}

func newReportView(r session.PersistReport) reportView {
	v := reportView{
		AttemptID:          r.AttemptID,
		AttemptPersisted:   r.AttemptPersisted(),
		ResponsesPersisted: r.ResponsesPersisted(),
	}
	// the attempt error wins; it means nothing else was written
	for _, err := range []error{r.AuditErr, r.ResponsesErr, r.AttemptErr} {
		if err != nil {
			v.Error = err.Error()
		}
	}
	return v
}

// POST /session/start  { "entry_code": "..." }
func StartSessionHandler(sess *session.Session, authSvc *auth.AuthService, gate *auth.EntryGate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			EntryCode string `json:"entry_code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := gate.Check(req.EntryCode); err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		if err := sess.Start(r.Context()); err != nil {
			respondErr(w, err)
			return
		}
		snap := sess.Snapshot()
		tok, exp, err := authSvc.IssueJWT(snap.UserID)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, struct {
			Token     string           `json:"token"`
			ExpiresAt time.Time        `json:"expires_at"`
			UserID    string           `json:"user_id"`
			Session   session.Snapshot `json:"session"`
		}{tok, exp, snap.UserID, snap})
	}
}

// GET /session  read-only state; pending directives are left in place.
func GetSessionHandler(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, sess.Snapshot())
	}
}

// GET /session/directives  state plus the fullscreen directives the quiz
// client must run. Reading consumes them.
func DirectivesHandler(sess *session.Session, platform *integrity.RemotePlatform) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dirs := platform.Drain()
		if dirs == nil {
			dirs = []integrity.Directive{}
		}
		respondJSON(w, http.StatusOK, sessionView{Snapshot: sess.Snapshot(), Directives: dirs})
	}
}

// POST /session/ack  dismiss a restart or empty-submission notice.
func AcknowledgeHandler(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sess.Acknowledge(); err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, sess.Prompt())
	}
}

type questionView struct {
	quiz.Question
	Select string `json:"select"` // quiz.TypeSingle renders radios, quiz.TypeMulti checkboxes
}

// GET /session/questions  answer keys stay hidden until graded.
func QuestionsHandler(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		graded := sess.Phase() == session.PhaseGraded
		qs := sess.Questions()
		out := make([]questionView, 0, len(qs))
		for _, q := range qs {
			v := questionView{Question: q, Select: q.Type()}
			if !graded {
				v.Question = q.Public()
			}
			out = append(out, v)
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// POST /session/answers  { "question_id": 3, "option": "..." }
func ToggleAnswerHandler(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID int    `json:"question_id"`
			Option     string `json:"option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		changed, err := sess.ToggleAnswer(req.QuestionID, req.Option)
		if err != nil {
			respondErr(w, err)
			return
		}
		snap := sess.Snapshot()
		respondJSON(w, http.StatusOK, map[string]any{
			"changed":  changed,
			"selected": snap.Answers[req.QuestionID],
			"answered": snap.Progress.Answered,
		})
	}
}

// GET /session/stats  progress only until graded.
func StatsHandler(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := sess.Snapshot()
		if snap.Stats == nil {
			respondJSON(w, http.StatusOK, snap.Progress)
			return
		}
		respondJSON(w, http.StatusOK, snap.Stats)
	}
}

// GET /session/correctness
func CorrectnessHandler(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess.Phase() != session.PhaseGraded {
			respondErr(w, session.ErrNotGraded)
			return
		}
		respondJSON(w, http.StatusOK, map[string][]int{"correct": sess.CurrentCorrectness().IDs()})
	}
}

// POST /session/submit  opens the confirmation gate.
func RequestSubmitHandler(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := sess.RequestSubmit()
		if errors.Is(err, session.ErrEmptySubmission) {
			respondJSON(w, http.StatusUnprocessableEntity, p)
			return
		}
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, p)
	}
}

// POST /session/submit/confirm
func ConfirmSubmitHandler(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := sess.ConfirmSubmit(r.Context())
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, resultView{
			Stats:   res.Stats,
			Correct: res.Correctness.IDs(),
			Report:  newReportView(res.Report),
		})
	}
}

// POST /session/submit/cancel
func CancelSubmitHandler(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sess.CancelSubmit(); err != nil {
			respondErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /session/resume
func ResumeHandler(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sess.Resume(r.Context()); err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, sess.IntegrityState())
	}
}

// POST /session/abandon
func AbandonHandler(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sess.Abandon(r.Context()); err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, sess.Snapshot())
	}
}

// POST /session/reset  the caller's token is void afterwards.
func ResetHandler(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess.Reset(r.Context())
		respondJSON(w, http.StatusOK, sess.Snapshot())
	}
}
