package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/wimarka-uic/lakra/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Service creates and loads accounts. Account creation is shared between the
// plain register endpoint and the registration wizard's post-test path.
type Service struct {
	db  *sql.DB
	now func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// CreateAccount persists a new user, their language set, and, when the
// request carries proficiency-test results, the answer provenance and
// onboarding outcome, all in one transaction.
func (s *Service) CreateAccount(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if req.Email == "" || req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("email, username, and password are required")
	}
	if len(req.Languages) == 0 {
		return nil, fmt.Errorf("at least one language is required")
	}
	if req.PreferredLanguage == "" {
		req.PreferredLanguage = req.Languages[0]
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	onboardingStatus := models.OnboardingPending
	if req.IsEvaluator {
		// Evaluators have no proficiency test to take.
		onboardingStatus = models.OnboardingCompleted
	} else if req.OnboardingPassed {
		onboardingStatus = models.OnboardingCompleted
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()

	var user models.User
	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (email, username, hashed_password, first_name, last_name, preferred_language,
		                    is_evaluator, onboarding_status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, email, username, first_name, last_name, preferred_language,
		           is_active, is_admin, is_evaluator, guidelines_seen, onboarding_status, created_at`,
		req.Email, req.Username, string(hashedPassword), req.FirstName, req.LastName,
		req.PreferredLanguage, req.IsEvaluator, onboardingStatus, now,
	).Scan(&user.ID, &user.Email, &user.Username, &user.FirstName, &user.LastName,
		&user.PreferredLanguage, &user.IsActive, &user.IsAdmin, &user.IsEvaluator,
		&user.GuidelinesSeen, &user.OnboardingStatus, &user.CreatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return nil, fmt.Errorf("An account with this email already exists")
		}
		if strings.Contains(err.Error(), "users_username_key") {
			return nil, fmt.Errorf("This username is already taken")
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	for _, lang := range req.Languages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_languages (user_id, language) VALUES ($1, $2)`,
			user.ID, lang,
		); err != nil {
			return nil, fmt.Errorf("failed to save languages: %w", err)
		}
	}
	user.Languages = req.Languages

	if req.OnboardingPassed && len(req.TestAnswers) > 0 {
		score, err := s.saveTestAnswers(ctx, tx, user.ID, req.TestAnswers, req.TestSessionID, now)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET onboarding_score = $1, onboarding_completed_at = $2 WHERE id = $3`,
			score, now, user.ID,
		); err != nil {
			return nil, fmt.Errorf("failed to record onboarding result: %w", err)
		}
		user.OnboardingScore = &score
		user.OnboardingCompletedAt = &now
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return &user, nil
}

// saveTestAnswers grades each answer against the stored question and inserts
// the provenance rows. Correctness is always recomputed here; the values a
// client sends are never trusted.
func (s *Service) saveTestAnswers(ctx context.Context, tx *sql.Tx, userID int64, answers []models.UserQuestionAnswer, sessionID string, now time.Time) (float64, error) {
	correct := 0
	for _, ans := range answers {
		var correctAnswer int
		if err := tx.QueryRowContext(ctx,
			`SELECT correct_answer FROM language_proficiency_questions WHERE id = $1`,
			ans.QuestionID,
		).Scan(&correctAnswer); err != nil {
			return 0, fmt.Errorf("failed to grade answer for question %d: %w", ans.QuestionID, err)
		}

		isCorrect := ans.SelectedAnswer == correctAnswer
		if isCorrect {
			correct++
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_question_answers (user_id, question_id, selected_answer, is_correct, answered_at, test_session_id)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			userID, ans.QuestionID, ans.SelectedAnswer, isCorrect, now, sessionID,
		); err != nil {
			return 0, fmt.Errorf("failed to save test answers: %w", err)
		}
	}

	return float64(correct) / float64(len(answers)) * 100, nil
}

// LoadUser fetches a user and their language set.
func (s *Service) LoadUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, username, first_name, last_name, preferred_language,
		        is_active, is_admin, is_evaluator, guidelines_seen,
		        onboarding_status, onboarding_score, onboarding_completed_at, created_at
		 FROM users WHERE id = $1`,
		userID,
	).Scan(&user.ID, &user.Email, &user.Username, &user.FirstName, &user.LastName,
		&user.PreferredLanguage, &user.IsActive, &user.IsAdmin, &user.IsEvaluator,
		&user.GuidelinesSeen, &user.OnboardingStatus, &user.OnboardingScore,
		&user.OnboardingCompletedAt, &user.CreatedAt)
	if err != nil {
		return nil, err
	}

	langs, err := s.loadLanguages(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Languages = langs

	return &user, nil
}

func (s *Service) loadLanguages(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT language FROM user_languages WHERE user_id = $1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var langs []string
	for rows.Next() {
		var lang string
		if err := rows.Scan(&lang); err != nil {
			return nil, err
		}
		langs = append(langs, lang)
	}
	return langs, rows.Err()
}
