package admin

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/wimarka-uic/lakra/internal/models"
)

type Handler struct {
	db *sql.DB
}

func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db}
}

// Stats reports the platform-wide counters for the admin dashboard. Values
// are always recomputed per request.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	var stats struct {
		TotalUsers           int `json:"total_users"`
		ActiveUsers          int `json:"active_users"`
		TotalEvaluators      int `json:"total_evaluators"`
		TotalSentences       int `json:"total_sentences"`
		TotalAnnotations     int `json:"total_annotations"`
		CompletedAnnotations int `json:"completed_annotations"`
		TotalEvaluations     int `json:"total_evaluations"`
		TotalAssessments     int `json:"total_assessments"`
	}

	err := h.db.QueryRowContext(r.Context(),
		`SELECT
		   (SELECT COUNT(*) FROM users),
		   (SELECT COUNT(*) FROM users WHERE is_active = TRUE),
		   (SELECT COUNT(*) FROM users WHERE is_evaluator = TRUE),
		   (SELECT COUNT(*) FROM sentences WHERE is_active = TRUE),
		   (SELECT COUNT(*) FROM annotations),
		   (SELECT COUNT(*) FROM annotations WHERE annotation_status = 'completed'),
		   (SELECT COUNT(*) FROM evaluations),
		   (SELECT COUNT(*) FROM mt_quality_assessments)`,
	).Scan(&stats.TotalUsers, &stats.ActiveUsers, &stats.TotalEvaluators,
		&stats.TotalSentences, &stats.TotalAnnotations, &stats.CompletedAnnotations,
		&stats.TotalEvaluations, &stats.TotalAssessments)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	skip := intQueryParam(query, "skip", 0)
	limit := intQueryParam(query, "limit", 50)

	rows, err := h.db.QueryContext(r.Context(),
		`SELECT id, email, username, first_name, last_name, preferred_language,
		        is_active, is_admin, is_evaluator, guidelines_seen,
		        onboarding_status, onboarding_score, onboarding_completed_at, created_at
		 FROM users ORDER BY id LIMIT $1 OFFSET $2`,
		limit, skip,
	)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load users"})
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName,
			&u.PreferredLanguage, &u.IsActive, &u.IsAdmin, &u.IsEvaluator,
			&u.GuidelinesSeen, &u.OnboardingStatus, &u.OnboardingScore,
			&u.OnboardingCompletedAt, &u.CreatedAt); err != nil {
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load users"})
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load users"})
		return
	}

	for i := range users {
		langs, err := h.userLanguages(r, users[i].ID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load users"})
			return
		}
		users[i].Languages = langs
	}

	writeJSON(w, http.StatusOK, users)
}

// ToggleEvaluator promotes or demotes a user's evaluator role.
func (h *Handler) ToggleEvaluator(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid user id"})
		return
	}

	var user models.User
	err = h.db.QueryRowContext(r.Context(),
		`UPDATE users SET is_evaluator = NOT is_evaluator WHERE id = $1
		 RETURNING id, email, username, first_name, last_name, preferred_language,
		           is_active, is_admin, is_evaluator, guidelines_seen,
		           onboarding_status, onboarding_score, onboarding_completed_at, created_at`,
		id,
	).Scan(&user.ID, &user.Email, &user.Username, &user.FirstName, &user.LastName,
		&user.PreferredLanguage, &user.IsActive, &user.IsAdmin, &user.IsEvaluator,
		&user.GuidelinesSeen, &user.OnboardingStatus, &user.OnboardingScore,
		&user.OnboardingCompletedAt, &user.CreatedAt)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "User not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update user"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ToggleActive deactivates or reactivates an account.
func (h *Handler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid user id"})
		return
	}

	var isActive bool
	err = h.db.QueryRowContext(r.Context(),
		`UPDATE users SET is_active = NOT is_active WHERE id = $1 RETURNING is_active`,
		id,
	).Scan(&isActive)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "User not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update user"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "is_active": isActive})
}

func (h *Handler) userLanguages(r *http.Request, userID int64) ([]string, error) {
	rows, err := h.db.QueryContext(r.Context(),
		`SELECT language FROM user_languages WHERE user_id = $1 ORDER BY id`, userID,
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
		languages = append(languages, lang)
	}
	return languages, rows.Err()
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
