package proficiency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wimarka-uic/lakra/internal/models"
)

// Storage is what the service needs from the question store.
type Storage interface {
	QuestionsByLanguages(ctx context.Context, languages []string) ([]models.ProficiencyQuestion, error)
	QuestionsByIDs(ctx context.Context, ids []int64) (map[int64]models.ProficiencyQuestion, error)
	SaveAnswers(ctx context.Context, userID int64, answers []models.UserQuestionAnswer, sessionID string, now time.Time) error
	UpdateOnboarding(ctx context.Context, userID int64, status string, score float64, now time.Time) (*models.User, error)
	AnswerHistory(ctx context.Context, userID int64) ([]models.UserQuestionAnswer, map[int64]string, error)
}

type Service struct {
	store Storage
	now   func() time.Time
}

func NewService(store Storage) *Service {
	return &Service{store: store, now: time.Now}
}

// QuestionsByLanguages returns the active test questions for a language set.
// Languages arrive lower-cased from drafts; the question bank stores them
// capitalized.
func (s *Service) QuestionsByLanguages(ctx context.Context, languages []string) ([]models.ProficiencyQuestion, error) {
	capitalized := make([]string, len(languages))
	for i, lang := range languages {
		capitalized[i] = capitalize(lang)
	}
	return s.store.QuestionsByLanguages(ctx, capitalized)
}

// ScoreAnswers grades an answer list against the stored questions without
// persisting anything. This is the validate-only path used during
// registration, before any account exists.
func (s *Service) ScoreAnswers(ctx context.Context, answers []models.UserQuestionAnswer, sessionID string, languages []string) (*models.TestResult, error) {
	_, result, err := s.grade(ctx, answers, sessionID)
	return result, err
}

// SubmitAnswers grades and persists a test attempt for an existing user and
// records the onboarding outcome on their account.
func (s *Service) SubmitAnswers(ctx context.Context, userID int64, req models.SubmitAnswersRequest) (*models.TestResult, error) {
	graded, result, err := s.grade(ctx, req.Answers, req.TestSessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.store.SaveAnswers(ctx, userID, graded, req.TestSessionID, now); err != nil {
		return nil, fmt.Errorf("failed to save test answers: %w", err)
	}

	status := models.OnboardingFailed
	if result.Passed {
		status = models.OnboardingCompleted
	}
	user, err := s.store.UpdateOnboarding(ctx, userID, status, result.Score, now)
	if err != nil {
		return nil, err
	}
	result.UpdatedUser = user

	return result, nil
}

// grade recomputes correctness server-side for every answer. Client-supplied
// is_correct values are ignored.
func (s *Service) grade(ctx context.Context, answers []models.UserQuestionAnswer, sessionID string) ([]models.UserQuestionAnswer, *models.TestResult, error) {
	if len(answers) == 0 {
		return nil, nil, fmt.Errorf("Test validation failed: no answers submitted")
	}

	ids := make([]int64, len(answers))
	for i, ans := range answers {
		ids[i] = ans.QuestionID
	}

	questions, err := s.store.QuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("Failed to validate test answers: %w", err)
	}

	result := &models.TestResult{
		TotalQuestions: len(answers),
		ByLanguage:     make(map[string]models.LanguageBreakdown),
		SessionID:      sessionID,
	}

	graded := make([]models.UserQuestionAnswer, len(answers))
	for i, ans := range answers {
		q, ok := questions[ans.QuestionID]
		if !ok {
			return nil, nil, fmt.Errorf("Test validation failed: question %d not found", ans.QuestionID)
		}

		isCorrect := ans.SelectedAnswer == q.CorrectAnswer
		ans.IsCorrect = &isCorrect
		graded[i] = ans

		breakdown := result.ByLanguage[q.Language]
		breakdown.Total++
		if isCorrect {
			breakdown.Correct++
			result.CorrectAnswers++
		}
		result.ByLanguage[q.Language] = breakdown
	}

	for lang, breakdown := range result.ByLanguage {
		breakdown.Score = float64(breakdown.Correct) / float64(breakdown.Total) * 100
		result.ByLanguage[lang] = breakdown
	}

	result.Score = float64(result.CorrectAnswers) / float64(result.TotalQuestions) * 100
	result.Passed = result.Score >= models.PassingScore

	return graded, result, nil
}

// SessionResults reconstructs a user's past attempts by grouping stored
// answers per test session.
func (s *Service) SessionResults(ctx context.Context, userID int64) ([]models.TestSessionResult, error) {
	answers, questionLanguages, err := s.store.AnswerHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*models.TestSessionResult)
	var order []string
	for _, ans := range answers {
		session, ok := grouped[ans.TestSessionID]
		if !ok {
			session = &models.TestSessionResult{
				SessionID:  ans.TestSessionID,
				Language:   questionLanguages[ans.QuestionID],
				AnsweredAt: ans.AnsweredAt,
			}
			grouped[ans.TestSessionID] = session
			order = append(order, ans.TestSessionID)
		}

		session.TotalQuestions++
		if ans.IsCorrect != nil && *ans.IsCorrect {
			session.CorrectAnswers++
		}
		if lang := questionLanguages[ans.QuestionID]; lang != session.Language {
			session.Language = "Multiple"
		}
	}

	results := make([]models.TestSessionResult, 0, len(order))
	for _, id := range order {
		session := grouped[id]
		session.Score = float64(session.CorrectAnswers) / float64(session.TotalQuestions) * 100
		session.Passed = session.Score >= models.PassingScore
		results = append(results, *session)
	}
	return results, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
