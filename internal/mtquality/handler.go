package mtquality

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/wimarka-uic/lakra/internal/middleware"
	"github.com/wimarka-uic/lakra/internal/models"
)

type Handler struct {
	db    *sql.DB
	store *Store
}

func NewHandler(db *sql.DB, store *Store) *Handler {
	return &Handler{db: db, store: store}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	var req models.MTQualityCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.SentenceID == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "sentence_id is required"})
		return
	}
	if msg := validateScores(req.FluencyScore, req.AdequacyScore, req.OverallQualityScore); msg != "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}

	assessment, err := h.store.Create(r.Context(), userID, req)
	if err != nil {
		if strings.Contains(err.Error(), "mt_quality_assessments_sentence_id_evaluator_id_key") {
			writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "You have already assessed this sentence"})
			return
		}
		log.Printf("[mtquality] create failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create assessment"})
		return
	}
	writeJSON(w, http.StatusCreated, assessment)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid assessment id"})
		return
	}

	evaluatorID, err := h.store.EvaluatorID(r.Context(), id)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Assessment not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load assessment"})
		return
	}
	if evaluatorID != userID {
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "Not your assessment"})
		return
	}

	var req models.MTQualityUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if msg := validateScores(req.FluencyScore, req.AdequacyScore, req.OverallQualityScore); msg != "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}

	assessment, err := h.store.Update(r.Context(), id, req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update assessment"})
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid assessment id"})
		return
	}

	assessment, err := h.store.Get(r.Context(), id)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Assessment not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load assessment"})
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	query := r.URL.Query()
	assessments, err := h.store.ListByEvaluator(r.Context(), userID,
		intQueryParam(query, "skip", 0), intQueryParam(query, "limit", 50))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load assessments"})
		return
	}
	if assessments == nil {
		assessments = []models.MTQualityAssessment{}
	}
	writeJSON(w, http.StatusOK, assessments)
}

func (h *Handler) ListBySentence(w http.ResponseWriter, r *http.Request) {
	sentenceID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid sentence id"})
		return
	}

	assessments, err := h.store.ListBySentence(r.Context(), sentenceID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load assessments"})
		return
	}
	if assessments == nil {
		assessments = []models.MTQualityAssessment{}
	}
	writeJSON(w, http.StatusOK, assessments)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	skip := intQueryParam(query, "skip", 0)
	limit := intQueryParam(query, "limit", 50)

	assessments, total, err := h.store.AdminList(r.Context(), query.Get("status"), skip, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load assessments"})
		return
	}
	if assessments == nil {
		assessments = []models.MTQualityAssessment{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":       total,
		"skip":        skip,
		"limit":       limit,
		"assessments": assessments,
	})
}

func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	languages, err := h.userLanguages(r, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load languages"})
		return
	}

	query := r.URL.Query()
	sentences, err := h.store.PendingSentences(r.Context(), userID, languages,
		intQueryParam(query, "skip", 0), intQueryParam(query, "limit", 50))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load pending sentences"})
		return
	}
	if sentences == nil {
		sentences = []models.Sentence{}
	}
	writeJSON(w, http.StatusOK, sentences)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	stats, err := h.store.Stats(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) userLanguages(r *http.Request, userID int64) ([]string, error) {
	rows, err := h.db.QueryContext(r.Context(),
		`SELECT language FROM user_languages WHERE user_id = $1`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var languages []string
	for rows.Next() {
		var lang string
		if err := rows.Scan(&lang); err != nil {
			return nil, err
		}
		if lang != "" {
			languages = append(languages, strings.ToUpper(lang[:1])+lang[1:])
		}
	}
	return languages, rows.Err()
}

func validateScores(scores ...*float64) string {
	for _, score := range scores {
		if score != nil && (*score < 1 || *score > 5) {
			return "Scores must be between 1 and 5"
		}
	}
	return ""
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
