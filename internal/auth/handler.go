package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wimarka-uic/lakra/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	db      *sql.DB
	service *Service
}

func NewHandler(db *sql.DB, service *Service) *Handler {
	return &Handler{db: db, service: service}
}

// Register creates an account directly, without the wizard. Annotator
// accounts created this way start with onboarding pending and cannot
// annotate until they pass the proficiency test.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	// Test results are only accepted from the wizard's server-side path.
	req.OnboardingPassed = false
	req.TestAnswers = nil
	req.TestSessionID = ""

	if len(req.Password) < 6 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Password must be at least 6 characters long"})
		return
	}

	user, err := h.service.CreateAccount(r.Context(), req)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "already taken") {
			writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	token, err := GenerateToken(user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate token"})
		return
	}

	writeJSON(w, http.StatusCreated, models.AuthResponse{Token: token, Type: "bearer", User: *user})
}

// Login accepts either an email address or a username in the email field.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	identifier := strings.TrimSpace(req.Email)
	if identifier == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Email and password are required"})
		return
	}

	var userID int64
	var hashedPassword string
	var isActive bool
	err := h.db.QueryRowContext(r.Context(),
		`SELECT id, hashed_password, is_active FROM users WHERE email = $1 OR username = $2`,
		strings.ToLower(identifier), identifier,
	).Scan(&userID, &hashedPassword, &isActive)

	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid credentials"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid credentials"})
		return
	}

	if !isActive {
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "This account has been deactivated"})
		return
	}

	user, err := h.service.LoadUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}

	token, err := GenerateToken(user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate token"})
		return
	}

	writeJSON(w, http.StatusOK, models.AuthResponse{Token: token, Type: "bearer", User: *user})
}

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	user, err := h.service.LoadUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "User not found"})
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// MarkGuidelinesSeen records that the user has acknowledged the annotation
// guidelines. The flag only ever goes from false to true.
func (h *Handler) MarkGuidelinesSeen(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	if _, err := h.db.ExecContext(r.Context(),
		`UPDATE users SET guidelines_seen = TRUE WHERE id = $1`, userID,
	); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update"})
		return
	}

	user, err := h.service.LoadUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile edits name, preferred language, and the language set. The
// preferred language must stay inside the language set.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	var req models.ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	current, err := h.service.LoadUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "User not found"})
		return
	}

	languages := current.Languages
	if req.Languages != nil {
		if len(req.Languages) == 0 {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "At least one language is required"})
			return
		}
		languages = req.Languages
	}

	preferred := current.PreferredLanguage
	if req.PreferredLanguage != nil {
		preferred = *req.PreferredLanguage
	}
	if !containsLanguage(languages, preferred) {
		preferred = languages[0]
	}

	firstName := current.FirstName
	if req.FirstName != nil {
		firstName = strings.TrimSpace(*req.FirstName)
	}
	lastName := current.LastName
	if req.LastName != nil {
		lastName = strings.TrimSpace(*req.LastName)
	}
	if firstName == "" || lastName == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "First and last name are required"})
		return
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(r.Context(),
		`UPDATE users SET first_name = $1, last_name = $2, preferred_language = $3 WHERE id = $4`,
		firstName, lastName, preferred, userID,
	); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update profile"})
		return
	}

	if req.Languages != nil {
		if _, err := tx.ExecContext(r.Context(),
			`DELETE FROM user_languages WHERE user_id = $1`, userID,
		); err != nil {
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update languages"})
			return
		}
		for _, lang := range languages {
			if _, err := tx.ExecContext(r.Context(),
				`INSERT INTO user_languages (user_id, language) VALUES ($1, $2)`,
				userID, lang,
			); err != nil {
				writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update languages"})
				return
			}
		}
	}

	if err := tx.Commit(); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}

	user, err := h.service.LoadUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func containsLanguage(languages []string, lang string) bool {
	for _, l := range languages {
		if l == lang {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
