package sentences

import (
	"database/sql"
	"encoding/json"
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
	var req models.SentenceCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if msg := validateSentence(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}

	sentence, err := h.store.Create(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create sentence"})
		return
	}
	writeJSON(w, http.StatusCreated, sentence)
}

func (h *Handler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req models.BulkSentenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if len(req.Sentences) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "sentences list is empty"})
		return
	}
	for i, s := range req.Sentences {
		if msg := validateSentence(s); msg != "" {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
				Error: "sentence " + strconv.Itoa(i) + ": " + msg})
			return
		}
	}

	created, err := h.store.BulkCreate(r.Context(), req.Sentences)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to import sentences"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"created":   len(created),
		"sentences": created,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid sentence id"})
		return
	}

	sentence, err := h.store.Get(r.Context(), id)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Sentence not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load sentence"})
		return
	}
	writeJSON(w, http.StatusOK, sentence)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	skip := intQueryParam(query, "skip", 0)
	limit := intQueryParam(query, "limit", 50)

	sentences, err := h.store.List(r.Context(), query.Get("target_language"), skip, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load sentences"})
		return
	}
	if sentences == nil {
		sentences = []models.Sentence{}
	}
	writeJSON(w, http.StatusOK, sentences)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	skip := intQueryParam(query, "skip", 0)
	limit := intQueryParam(query, "limit", 50)

	sentences, total, err := h.store.AdminList(r.Context(),
		query.Get("target_language"), query.Get("search"), skip, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load sentences"})
		return
	}
	if sentences == nil {
		sentences = []models.Sentence{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":     total,
		"skip":      skip,
		"limit":     limit,
		"sentences": sentences,
	})
}

// NextUnannotated serves the annotator workflow: the next sentence in the
// user's languages without an annotation from them. 404 means they are done.
func (h *Handler) NextUnannotated(w http.ResponseWriter, r *http.Request) {
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
	if len(languages) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "No languages configured for this account"})
		return
	}

	sentence, err := h.store.NextUnannotated(r.Context(), userID, languages)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No sentences left to annotate"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load sentence"})
		return
	}
	writeJSON(w, http.StatusOK, sentence)
}

func (h *Handler) Unannotated(w http.ResponseWriter, r *http.Request) {
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
	sentences, err := h.store.Unannotated(r.Context(), userID, languages,
		intQueryParam(query, "skip", 0), intQueryParam(query, "limit", 50))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load sentences"})
		return
	}
	if sentences == nil {
		sentences = []models.Sentence{}
	}
	writeJSON(w, http.StatusOK, sentences)
}

func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CountsByLanguage(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load counts"})
		return
	}
	if counts == nil {
		counts = []models.LanguageCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid sentence id"})
		return
	}

	if err := h.store.Deactivate(r.Context(), id); err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Sentence not found"})
		return
	} else if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to delete sentence"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Sentence deactivated"})
}

// userLanguages loads the caller's language set, capitalized to match how
// sentences store target languages.
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

func validateSentence(req models.SentenceCreate) string {
	if strings.TrimSpace(req.SourceText) == "" {
		return "source_text is required"
	}
	if strings.TrimSpace(req.MachineTranslation) == "" {
		return "machine_translation is required"
	}
	if req.SourceLanguage == "" || req.TargetLanguage == "" {
		return "source_language and target_language are required"
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
