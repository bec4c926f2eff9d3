package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, now: time.Now}
}

func (s *SQLStore) CreateAttempt(ctx context.Context, in AttemptInput) (Attempt, error) {
	a := Attempt{UserID: in.UserID, Score: in.Score, TotalQuestions: in.TotalQuestions}
	var created int64
	err := s.db.QueryRowContext(ctx, `INSERT INTO quiz_attempts (user_id,score,total_questions,created_at)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at`,
		in.UserID, in.Score, in.TotalQuestions, s.now().Unix()).Scan(&a.ID, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotPersisted
		}
		return Attempt{}, errors.Wrapf(err, "insert attempt for %s", in.UserID)
	}
	a.CreatedAt = time.Unix(created, 0).UTC()
	return a, nil
}

// CreateResponses writes all rows with one multi-row insert.
func (s *SQLStore) CreateResponses(ctx context.Context, rs []Response) error {
	if len(rs) == 0 {
		return nil
	}
	var (
		sb   strings.Builder
		args = make([]any, 0, len(rs)*5)
		now  = s.now().Unix()
	)
	sb.WriteString(`INSERT INTO question_responses (attempt_id,question_number,selected_options,is_correct,created_at) VALUES `)
	for i, r := range rs {
		sel, err := json.Marshal(r.SelectedOptions)
		if err != nil {
			return errors.Wrapf(err, "encode selection for question %d", r.QuestionNumber)
		}
		if i > 0 {
			sb.WriteString(",")
		}
		n := len(args)
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4, n+5)
		args = append(args, r.AttemptID, r.QuestionNumber, string(sel), r.IsCorrect, now)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin responses tx")
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "insert %d responses", len(rs))
	}
	return errors.Wrap(tx.Commit(), "commit responses")
}

func (s *SQLStore) GetAttempt(ctx context.Context, id int64) (Attempt, error) {
	var (
		a       Attempt
		created int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id,user_id,score,total_questions,created_at FROM quiz_attempts WHERE id=$1`, id).
		Scan(&a.ID, &a.UserID, &a.Score, &a.TotalQuestions, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, errors.Wrapf(err, "get attempt %d", id)
	}
	a.CreatedAt = time.Unix(created, 0).UTC()
	return a, nil
}

func (s *SQLStore) ListResponses(ctx context.Context, attemptID int64) ([]Response, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT attempt_id,question_number,selected_options,is_correct
		FROM question_responses WHERE attempt_id=$1 ORDER BY id`, attemptID)
	if err != nil {
		return nil, errors.Wrapf(err, "list responses of attempt %d", attemptID)
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		var (
			r   Response
			sel string
		)
		if err := rows.Scan(&r.AttemptID, &r.QuestionNumber, &sel, &r.IsCorrect); err != nil {
			return nil, errors.Wrap(err, "scan response")
		}
		if err := json.Unmarshal([]byte(sel), &r.SelectedOptions); err != nil {
			return nil, errors.Wrapf(err, "decode selection of question %d", r.QuestionNumber)
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "iterate responses")
}
