package evaluations

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

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

	var req models.EvaluationCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.AnnotationID == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "annotation_id is required"})
		return
	}
	if msg := validateScores(req.AnnotationQualityScore, req.AccuracyScore,
		req.CompletenessScore, req.OverallEvaluationScore); msg != "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}

	evaluation, err := h.store.Create(r.Context(), userID, req)
	if err != nil {
		if strings.Contains(err.Error(), "evaluations_annotation_id_evaluator_id_key") {
			writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "You have already evaluated this annotation"})
			return
		}
		log.Printf("[evaluations] create failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create evaluation"})
		return
	}
	writeJSON(w, http.StatusCreated, evaluation)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid evaluation id"})
		return
	}

	evaluatorID, err := h.store.EvaluatorID(r.Context(), id)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Evaluation not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load evaluation"})
		return
	}
	if evaluatorID != userID {
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "Not your evaluation"})
		return
	}

	var req models.EvaluationUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if msg := validateScores(req.AnnotationQualityScore, req.AccuracyScore,
		req.CompletenessScore, req.OverallEvaluationScore); msg != "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}

	evaluation, err := h.store.Update(r.Context(), id, req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update evaluation"})
		return
	}
	writeJSON(w, http.StatusOK, evaluation)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid evaluation id"})
		return
	}

	evaluation, err := h.store.Get(r.Context(), id)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Evaluation not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load evaluation"})
		return
	}
	writeJSON(w, http.StatusOK, evaluation)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	query := r.URL.Query()
	evaluations, err := h.store.ListByEvaluator(r.Context(), userID,
		intQueryParam(query, "skip", 0), intQueryParam(query, "limit", 50))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load evaluations"})
		return
	}
	if evaluations == nil {
		evaluations = []models.Evaluation{}
	}
	writeJSON(w, http.StatusOK, evaluations)
}

// Pending returns completed annotations awaiting this evaluator's review.
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
	annotations, err := h.store.PendingAnnotations(r.Context(), userID, languages,
		intQueryParam(query, "skip", 0), intQueryParam(query, "limit", 50))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load pending queue"})
		return
	}
	if annotations == nil {
		annotations = []models.Annotation{}
	}
	writeJSON(w, http.StatusOK, annotations)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	stats, err := h.store.Stats(r.Context(), userID, time.Now())
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

func validateScores(scores ...*int) string {
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
