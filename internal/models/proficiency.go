package models

import "time"

// Question types and difficulties for language proficiency questions.
var (
	ValidQuestionTypes = map[string]bool{
		"grammar": true, "vocabulary": true, "translation": true,
		"cultural": true, "comprehension": true,
	}
	ValidDifficulties = map[string]bool{
		"basic": true, "intermediate": true, "advanced": true,
	}
)

// PassingScore is the minimum proficiency-test percentage that activates an
// annotator account. A score of exactly 70.0 passes.
const PassingScore = 70.0

type ProficiencyQuestion struct {
	ID            int64     `json:"id"`
	Language      string    `json:"language"`
	Type          string    `json:"type"`
	Question      string    `json:"question"`
	Options       []string  `json:"options"`
	CorrectAnswer int       `json:"correct_answer"`
	Explanation   string    `json:"explanation"`
	Difficulty    string    `json:"difficulty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CreatedBy     *int64    `json:"created_by,omitempty"`
}

type ProficiencyQuestionCreate struct {
	Language      string   `json:"language"`
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

type ProficiencyQuestionUpdate struct {
	Language      *string  `json:"language,omitempty"`
	Type          *string  `json:"type,omitempty"`
	Question      *string  `json:"question,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer *int     `json:"correct_answer,omitempty"`
	Explanation   *string  `json:"explanation,omitempty"`
	Difficulty    *string  `json:"difficulty,omitempty"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

type UserQuestionAnswer struct {
	ID             int64     `json:"id,omitempty"`
	UserID         int64     `json:"user_id,omitempty"`
	QuestionID     int64     `json:"question_id"`
	SelectedAnswer int       `json:"selected_answer"`
	IsCorrect      *bool     `json:"is_correct,omitempty"`
	AnsweredAt     time.Time `json:"answered_at,omitempty"`
	TestSessionID  string    `json:"test_session_id,omitempty"`
}

type SubmitAnswersRequest struct {
	Answers       []UserQuestionAnswer `json:"answers"`
	TestSessionID string               `json:"test_session_id"`
	Languages     []string             `json:"languages"`
}

// LanguageBreakdown summarizes test performance within one language.
type LanguageBreakdown struct {
	Total   int     `json:"total"`
	Correct int     `json:"correct"`
	Score   float64 `json:"score"`
}

type TestResult struct {
	TotalQuestions int                          `json:"total_questions"`
	CorrectAnswers int                          `json:"correct_answers"`
	Score          float64                      `json:"score"`
	Passed         bool                         `json:"passed"`
	ByLanguage     map[string]LanguageBreakdown `json:"questions_by_language"`
	SessionID      string                       `json:"session_id"`
	UpdatedUser    *User                        `json:"updated_user,omitempty"`
}

// TestSessionResult is one historical proficiency-test attempt, reconstructed
// by grouping stored answers on their test session id.
type TestSessionResult struct {
	SessionID      string    `json:"session_id"`
	Language       string    `json:"language"`
	TotalQuestions int       `json:"total_questions"`
	CorrectAnswers int       `json:"correct_answers"`
	Score          float64   `json:"score"`
	Passed         bool      `json:"passed"`
	AnsweredAt     time.Time `json:"answered_at"`
}

type OnboardingTest struct {
	ID          int64                 `json:"id"`
	UserID      int64                 `json:"user_id"`
	Language    string                `json:"language"`
	TestData    []ProficiencyQuestion `json:"test_data"`
	Score       *float64              `json:"score,omitempty"`
	Status      string                `json:"status"`
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}
