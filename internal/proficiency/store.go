package proficiency

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/wimarka-uic/lakra/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const questionColumns = `id, language, type, question, options, correct_answer,
	explanation, difficulty, is_active, created_at, updated_at, created_by`

func scanQuestion(scanner interface {
	Scan(dest ...interface{}) error
}) (models.ProficiencyQuestion, error) {
	var q models.ProficiencyQuestion
	var options []byte
	err := scanner.Scan(&q.ID, &q.Language, &q.Type, &q.Question, &options,
		&q.CorrectAnswer, &q.Explanation, &q.Difficulty, &q.IsActive,
		&q.CreatedAt, &q.UpdatedAt, &q.CreatedBy)
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return q, fmt.Errorf("decode options for question %d: %w", q.ID, err)
	}
	return q, nil
}

// ── Question bank ───────────────────────────────────────

// QuestionsByLanguages returns active questions for the given languages,
// ordered by language then id so tests are presented language by language.
func (s *Store) QuestionsByLanguages(ctx context.Context, languages []string) ([]models.ProficiencyQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+`
		 FROM language_proficiency_questions
		 WHERE language = ANY($1) AND is_active = TRUE
		 ORDER BY language, id`,
		pq.Array(languages),
	)
	if err != nil {
		return nil, fmt.Errorf("questions by languages: %w", err)
	}
	defer rows.Close()

	return collectQuestions(rows)
}

func (s *Store) QuestionsByIDs(ctx context.Context, ids []int64) (map[int64]models.ProficiencyQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+`
		 FROM language_proficiency_questions
		 WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("questions by ids: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]models.ProficiencyQuestion, len(ids))
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out[q.ID] = q
	}
	return out, rows.Err()
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (*models.ProficiencyQuestion, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM language_proficiency_questions WHERE id = $1`, id,
	))
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuestions applies optional language/type/difficulty filters; the admin
// surface sees inactive questions too.
func (s *Store) ListQuestions(ctx context.Context, language, qtype, difficulty string) ([]models.ProficiencyQuestion, error) {
	query := `SELECT ` + questionColumns + ` FROM language_proficiency_questions`
	var conditions []string
	var args []interface{}

	if language != "" {
		args = append(args, language)
		conditions = append(conditions, fmt.Sprintf("language = $%d", len(args)))
	}
	if qtype != "" {
		args = append(args, qtype)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if difficulty != "" {
		args = append(args, difficulty)
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY language, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	return collectQuestions(rows)
}

func (s *Store) CreateQuestion(ctx context.Context, req models.ProficiencyQuestionCreate, createdBy int64) (*models.ProficiencyQuestion, error) {
	options, err := json.Marshal(req.Options)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`INSERT INTO language_proficiency_questions
		 (language, type, question, options, correct_answer, explanation, difficulty, is_active, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+questionColumns,
		req.Language, req.Type, req.Question, options, req.CorrectAnswer,
		req.Explanation, req.Difficulty, isActive, createdBy,
	))
	if err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return &q, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, id int64, req models.ProficiencyQuestionUpdate) (*models.ProficiencyQuestion, error) {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Language != nil {
		add("language", *req.Language)
	}
	if req.Type != nil {
		add("type", *req.Type)
	}
	if req.Question != nil {
		add("question", *req.Question)
	}
	if req.Options != nil {
		options, err := json.Marshal(req.Options)
		if err != nil {
			return nil, fmt.Errorf("encode options: %w", err)
		}
		add("options", options)
	}
	if req.CorrectAnswer != nil {
		add("correct_answer", *req.CorrectAnswer)
	}
	if req.Explanation != nil {
		add("explanation", *req.Explanation)
	}
	if req.Difficulty != nil {
		add("difficulty", *req.Difficulty)
	}
	if req.IsActive != nil {
		add("is_active", *req.IsActive)
	}

	if len(sets) == 0 {
		return s.GetQuestion(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE language_proficiency_questions SET %s WHERE id = $%d RETURNING `+questionColumns,
		strings.Join(sets, ", "), len(args),
	)

	q, err := scanQuestion(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return &q, nil
}

// DeactivateQuestion soft-deletes so past answers keep their reference.
func (s *Store) DeactivateQuestion(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE language_proficiency_questions SET is_active = FALSE, updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deactivate question: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func collectQuestions(rows *sql.Rows) ([]models.ProficiencyQuestion, error) {
	var questions []models.ProficiencyQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ── Answers and onboarding outcome ──────────────────────

func (s *Store) SaveAnswers(ctx context.Context, userID int64, answers []models.UserQuestionAnswer, sessionID string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, ans := range answers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_question_answers (user_id, question_id, selected_answer, is_correct, answered_at, test_session_id)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			userID, ans.QuestionID, ans.SelectedAnswer, ans.IsCorrect, now, sessionID,
		); err != nil {
			return fmt.Errorf("save answer: %w", err)
		}
	}

	return tx.Commit()
}

// UpdateOnboarding records the test outcome on the user row and returns the
// updated user.
func (s *Store) UpdateOnboarding(ctx context.Context, userID int64, status string, score float64, now time.Time) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		`UPDATE users
		 SET onboarding_status = $1, onboarding_score = $2, onboarding_completed_at = $3
		 WHERE id = $4
		 RETURNING id, email, username, first_name, last_name, preferred_language,
		           is_active, is_admin, is_evaluator, guidelines_seen,
		           onboarding_status, onboarding_score, onboarding_completed_at, created_at`,
		status, score, now, userID,
	).Scan(&user.ID, &user.Email, &user.Username, &user.FirstName, &user.LastName,
		&user.PreferredLanguage, &user.IsActive, &user.IsAdmin, &user.IsEvaluator,
		&user.GuidelinesSeen, &user.OnboardingStatus, &user.OnboardingScore,
		&user.OnboardingCompletedAt, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("update onboarding: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT language FROM user_languages WHERE user_id = $1 ORDER BY id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var lang string
		if err := rows.Scan(&lang); err != nil {
			return nil, err
		}
		user.Languages = append(user.Languages, lang)
	}

	return &user, rows.Err()
}

// AnswerHistory returns a user's stored answers joined with their question's
// language, oldest session first.
func (s *Store) AnswerHistory(ctx context.Context, userID int64) ([]models.UserQuestionAnswer, map[int64]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.question_id, a.selected_answer, a.is_correct, a.answered_at,
		        COALESCE(a.test_session_id, ''), q.language
		 FROM user_question_answers a
		 JOIN language_proficiency_questions q ON q.id = a.question_id
		 WHERE a.user_id = $1
		 ORDER BY a.answered_at, a.id`,
		userID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("answer history: %w", err)
	}
	defer rows.Close()

	var answers []models.UserQuestionAnswer
	languages := make(map[int64]string)
	for rows.Next() {
		var ans models.UserQuestionAnswer
		var language string
		if err := rows.Scan(&ans.ID, &ans.QuestionID, &ans.SelectedAnswer,
			&ans.IsCorrect, &ans.AnsweredAt, &ans.TestSessionID, &language); err != nil {
			return nil, nil, err
		}
		ans.UserID = userID
		languages[ans.QuestionID] = language
		answers = append(answers, ans)
	}
	return answers, languages, rows.Err()
}
