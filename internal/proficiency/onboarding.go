package proficiency

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/wimarka-uic/lakra/internal/middleware"
	"github.com/wimarka-uic/lakra/internal/models"
)

// Legacy single-language onboarding tests. Each test snapshots its question
// set at creation time so later edits to the bank never change a test in
// progress.

func (s *Store) CreateOnboardingTest(ctx context.Context, userID int64, language string, questions []models.ProficiencyQuestion) (*models.OnboardingTest, error) {
	testData, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("encode test data: %w", err)
	}

	var test models.OnboardingTest
	var raw []byte
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO onboarding_tests (user_id, language, test_data, status)
		 VALUES ($1, $2, $3, 'in_progress')
		 RETURNING id, user_id, language, test_data, score, status, started_at, completed_at`,
		userID, language, testData,
	).Scan(&test.ID, &test.UserID, &test.Language, &raw, &test.Score,
		&test.Status, &test.StartedAt, &test.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("create onboarding test: %w", err)
	}
	if err := json.Unmarshal(raw, &test.TestData); err != nil {
		return nil, fmt.Errorf("decode test data: %w", err)
	}
	return &test, nil
}

func (s *Store) GetOnboardingTest(ctx context.Context, id, userID int64) (*models.OnboardingTest, error) {
	var test models.OnboardingTest
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, language, test_data, score, status, started_at, completed_at
		 FROM onboarding_tests WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&test.ID, &test.UserID, &test.Language, &raw, &test.Score,
		&test.Status, &test.StartedAt, &test.CompletedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &test.TestData); err != nil {
		return nil, fmt.Errorf("decode test data: %w", err)
	}
	return &test, nil
}

func (s *Store) ListOnboardingTests(ctx context.Context, userID int64) ([]models.OnboardingTest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, language, test_data, score, status, started_at, completed_at
		 FROM onboarding_tests WHERE user_id = $1 ORDER BY started_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list onboarding tests: %w", err)
	}
	defer rows.Close()

	var tests []models.OnboardingTest
	for rows.Next() {
		var test models.OnboardingTest
		var raw []byte
		if err := rows.Scan(&test.ID, &test.UserID, &test.Language, &raw,
			&test.Score, &test.Status, &test.StartedAt, &test.CompletedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &test.TestData); err != nil {
			return nil, fmt.Errorf("decode test data: %w", err)
		}
		tests = append(tests, test)
	}
	return tests, rows.Err()
}

func (s *Store) CompleteOnboardingTest(ctx context.Context, id, userID int64, score float64, status string, now time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE onboarding_tests SET score = $1, status = $2, completed_at = $3
		 WHERE id = $4 AND user_id = $5 AND status = 'in_progress'`,
		score, status, now, id, userID,
	)
	if err != nil {
		return fmt.Errorf("complete onboarding test: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ── HTTP surface ────────────────────────────────────────

func (h *Handler) StartOnboardingTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	var req struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Language == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "language is required"})
		return
	}

	questions, err := h.service.QuestionsByLanguages(r.Context(), []string{req.Language})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load questions"})
		return
	}
	if len(questions) == 0 {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No questions available for this language"})
		return
	}

	test, err := h.store.CreateOnboardingTest(r.Context(), userID, capitalize(req.Language), questions)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to start test"})
		return
	}

	// Strip answer keys from the snapshot before returning it.
	for i := range test.TestData {
		test.TestData[i].CorrectAnswer = 0
		test.TestData[i].Explanation = ""
	}
	writeJSON(w, http.StatusCreated, test)
}

func (h *Handler) GetOnboardingTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid test id"})
		return
	}

	test, err := h.store.GetOnboardingTest(r.Context(), id, userID)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Test not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load test"})
		return
	}

	if test.Status == "in_progress" {
		for i := range test.TestData {
			test.TestData[i].CorrectAnswer = 0
			test.TestData[i].Explanation = ""
		}
	}
	writeJSON(w, http.StatusOK, test)
}

func (h *Handler) ListOnboardingTests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	tests, err := h.store.ListOnboardingTests(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load tests"})
		return
	}
	if tests == nil {
		tests = []models.OnboardingTest{}
	}
	writeJSON(w, http.StatusOK, tests)
}

// SubmitOnboardingTest grades a snapshot test against the stored question
// bank and records the outcome on both the test row and the user.
func (h *Handler) SubmitOnboardingTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid test id"})
		return
	}

	var req models.SubmitAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	test, err := h.store.GetOnboardingTest(r.Context(), id, userID)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Test not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load test"})
		return
	}
	if test.Status != "in_progress" {
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Test already completed"})
		return
	}

	if req.TestSessionID == "" {
		req.TestSessionID = fmt.Sprintf("onboarding_%d", test.ID)
	}
	result, err := h.service.SubmitAnswers(r.Context(), userID, req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	status := "failed"
	if result.Passed {
		status = "completed"
	}
	if err := h.store.CompleteOnboardingTest(r.Context(), id, userID, result.Score, status, h.service.now()); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to record result"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}
