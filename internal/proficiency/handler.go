package proficiency

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/wimarka-uic/lakra/internal/middleware"
	"github.com/wimarka-uic/lakra/internal/models"
)

type Handler struct {
	service *Service
	store   *Store
}

func NewHandler(service *Service, store *Store) *Handler {
	return &Handler{service: service, store: store}
}

// GetByLanguages serves the question set for a comma-separated language
// list. Correct answers and explanations are stripped; grading happens
// server-side only.
func (h *Handler) GetByLanguages(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("languages")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "languages query parameter is required"})
		return
	}

	var languages []string
	for _, lang := range strings.Split(raw, ",") {
		if lang = strings.TrimSpace(lang); lang != "" {
			languages = append(languages, lang)
		}
	}

	questions, err := h.service.QuestionsByLanguages(r.Context(), languages)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load questions"})
		return
	}

	type publicQuestion struct {
		ID         int64    `json:"id"`
		Language   string   `json:"language"`
		Type       string   `json:"type"`
		Question   string   `json:"question"`
		Options    []string `json:"options"`
		Difficulty string   `json:"difficulty"`
	}

	out := make([]publicQuestion, len(questions))
	for i, q := range questions {
		out[i] = publicQuestion{
			ID: q.ID, Language: q.Language, Type: q.Type,
			Question: q.Question, Options: q.Options, Difficulty: q.Difficulty,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Submit grades an authenticated user's test attempt and updates their
// onboarding status.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	var req models.SubmitAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	result, err := h.service.SubmitAnswers(r.Context(), userID, req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) MyResults(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	results, err := h.service.SessionResults(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load results"})
		return
	}
	if results == nil {
		results = []models.TestSessionResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// ── Admin question management ───────────────────────────

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	questions, err := h.store.ListQuestions(r.Context(),
		query.Get("language"), query.Get("type"), query.Get("difficulty"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load questions"})
		return
	}
	if questions == nil {
		questions = []models.ProficiencyQuestion{}
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r)

	var req models.ProficiencyQuestionCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if msg := validateQuestion(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}

	question, err := h.store.CreateQuestion(r.Context(), req, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create question"})
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid question id"})
		return
	}

	var req models.ProficiencyQuestionUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Type != nil && !models.ValidQuestionTypes[*req.Type] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid question type"})
		return
	}
	if req.Difficulty != nil && !models.ValidDifficulties[*req.Difficulty] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid difficulty"})
		return
	}
	if req.Options != nil && len(req.Options) < 2 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "At least two options are required"})
		return
	}
	if req.CorrectAnswer != nil && req.Options != nil &&
		(*req.CorrectAnswer < 0 || *req.CorrectAnswer >= len(req.Options)) {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "correct_answer must index an option"})
		return
	}

	question, err := h.store.UpdateQuestion(r.Context(), id, req)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Question not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update question"})
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid question id"})
		return
	}

	if err := h.store.DeactivateQuestion(r.Context(), id); err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Question not found"})
		return
	} else if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to delete question"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Question deactivated"})
}

func validateQuestion(req models.ProficiencyQuestionCreate) string {
	if req.Language == "" || req.Question == "" {
		return "language and question are required"
	}
	if !models.ValidQuestionTypes[req.Type] {
		return "Invalid question type"
	}
	if !models.ValidDifficulties[req.Difficulty] {
		return "Invalid difficulty"
	}
	if len(req.Options) < 2 {
		return "At least two options are required"
	}
	if req.CorrectAnswer < 0 || req.CorrectAnswer >= len(req.Options) {
		return "correct_answer must index an option"
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
