package models

import (
	"strings"
	"time"
)

// Onboarding status values for annotator accounts.
const (
	OnboardingPending    = "pending"
	OnboardingInProgress = "in_progress"
	OnboardingCompleted  = "completed"
	OnboardingFailed     = "failed"
)

type User struct {
	ID                    int64      `json:"id"`
	Email                 string     `json:"email"`
	Username              string     `json:"username"`
	Password              string     `json:"-"`
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	PreferredLanguage     string     `json:"preferred_language"`
	Languages             []string   `json:"languages"`
	IsActive              bool       `json:"is_active"`
	IsAdmin               bool       `json:"is_admin"`
	IsEvaluator           bool       `json:"is_evaluator"`
	GuidelinesSeen        bool       `json:"guidelines_seen"`
	OnboardingStatus      string     `json:"onboarding_status"`
	OnboardingScore       *float64   `json:"onboarding_score,omitempty"`
	OnboardingCompletedAt *time.Time `json:"onboarding_completed_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

// FullName returns "First Last" with surrounding whitespace trimmed.
func (u User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

type RegisterRequest struct {
	Email             string               `json:"email"`
	Username          string               `json:"username"`
	Password          string               `json:"password"`
	FirstName         string               `json:"first_name"`
	LastName          string               `json:"last_name"`
	PreferredLanguage string               `json:"preferred_language"`
	Languages         []string             `json:"languages"`
	IsEvaluator       bool                 `json:"is_evaluator"`
	UserType          string               `json:"user_type"`
	OnboardingPassed  bool                 `json:"onboarding_passed"`
	TestAnswers       []UserQuestionAnswer `json:"test_answers,omitempty"`
	TestSessionID     string               `json:"test_session_id,omitempty"`
}

type LoginRequest struct {
	// Email accepts either an email address or a username.
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"access_token"`
	Type  string `json:"token_type"`
	User  User   `json:"user"`
}

type ProfileUpdateRequest struct {
	FirstName         *string  `json:"first_name,omitempty"`
	LastName          *string  `json:"last_name,omitempty"`
	PreferredLanguage *string  `json:"preferred_language,omitempty"`
	Languages         []string `json:"languages,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
