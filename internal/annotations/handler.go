package annotations

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/wimarka-uic/lakra/internal/highlight"
	"github.com/wimarka-uic/lakra/internal/middleware"
	"github.com/wimarka-uic/lakra/internal/models"
)

// maxVoiceUploadBytes caps voice recording uploads at 20 MB.
const maxVoiceUploadBytes = 20 << 20

type Handler struct {
	db        *sql.DB
	store     *Store
	uploadDir string
}

func NewHandler(db *sql.DB, store *Store, uploadDir string) *Handler {
	return &Handler{db: db, store: store, uploadDir: uploadDir}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	var req models.AnnotationCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.SentenceID == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "sentence_id is required"})
		return
	}
	if msg := validateScores(req.FluencyScore, req.AdequacyScore, req.OverallQuality); msg != "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}
	if msg := validateHighlights(req.Highlights); msg != "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}

	status := models.AnnotationInProgress
	if req.FluencyScore != nil && req.AdequacyScore != nil && req.OverallQuality != nil {
		status = models.AnnotationCompleted
	}

	annotation, err := h.store.Create(r.Context(), userID, req, status)
	if err != nil {
		if strings.Contains(err.Error(), "annotations_sentence_id_annotator_id_key") {
			writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "You have already annotated this sentence"})
			return
		}
		log.Printf("[annotations] create failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create annotation"})
		return
	}
	writeJSON(w, http.StatusCreated, annotation)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid annotation id"})
		return
	}

	var req models.AnnotationUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if msg := validateScores(req.FluencyScore, req.AdequacyScore, req.OverallQuality); msg != "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}
	if msg := validateHighlights(req.Highlights); msg != "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}
	if req.AnnotationStatus != nil {
		switch *req.AnnotationStatus {
		case models.AnnotationInProgress, models.AnnotationCompleted, models.AnnotationReviewed:
		default:
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid annotation status"})
			return
		}
	}

	if !h.canModify(r, id, userID) {
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "Not your annotation"})
		return
	}

	annotation, err := h.store.Update(r.Context(), id, req)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Annotation not found"})
		return
	}
	if err != nil {
		log.Printf("[annotations] update failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update annotation"})
		return
	}
	writeJSON(w, http.StatusOK, annotation)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid annotation id"})
		return
	}

	annotation, err := h.store.Get(r.Context(), id)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Annotation not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load annotation"})
		return
	}
	writeJSON(w, http.StatusOK, annotation)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	query := r.URL.Query()
	annotations, err := h.store.ListByAnnotator(r.Context(), userID,
		intQueryParam(query, "skip", 0), intQueryParam(query, "limit", 50))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load annotations"})
		return
	}
	if annotations == nil {
		annotations = []models.Annotation{}
	}
	writeJSON(w, http.StatusOK, annotations)
}

func (h *Handler) ListBySentence(w http.ResponseWriter, r *http.Request) {
	sentenceID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid sentence id"})
		return
	}

	annotations, err := h.store.ListBySentence(r.Context(), sentenceID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load annotations"})
		return
	}
	if annotations == nil {
		annotations = []models.Annotation{}
	}
	writeJSON(w, http.StatusOK, annotations)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	skip := intQueryParam(query, "skip", 0)
	limit := intQueryParam(query, "limit", 50)

	annotations, total, err := h.store.AdminList(r.Context(), query.Get("status"), skip, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load annotations"})
		return
	}
	if annotations == nil {
		annotations = []models.Annotation{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":       total,
		"skip":        skip,
		"limit":       limit,
		"annotations": annotations,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid annotation id"})
		return
	}

	if !h.canModify(r, id, userID) {
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "Not your annotation"})
		return
	}

	if err := h.store.Delete(r.Context(), id); err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Annotation not found"})
		return
	} else if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to delete annotation"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Annotation deleted"})
}

// Render returns the annotation's machine (or reference) text tiled into
// styled segments, as shown in the admin sentence view and the evaluator
// review view.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid annotation id"})
		return
	}

	textType := r.URL.Query().Get("text_type")
	if textType == "" {
		textType = models.TextMachine
	}
	if textType != models.TextMachine && textType != models.TextReference {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "text_type must be 'machine' or 'reference'"})
		return
	}

	annotation, err := h.store.Get(r.Context(), id)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Annotation not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load annotation"})
		return
	}

	text := annotation.Sentence.MachineTranslation
	if textType == models.TextReference {
		if annotation.Sentence.ReferenceTranslation == nil {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Sentence has no reference translation"})
			return
		}
		text = *annotation.Sentence.ReferenceTranslation
	}

	segments := highlight.Render(text, annotation.Highlights, textType)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"annotation_id": annotation.ID,
		"text_type":     textType,
		"segments":      segments,
	})
}

// UploadVoice stores a multipart audio file under the upload dir with a uuid
// filename and returns its URL for attachment to an annotation.
func (h *Handler) UploadVoice(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxVoiceUploadBytes)
	if err := r.ParseMultipartForm(maxVoiceUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid upload"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "file field is required"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".webm", ".ogg", ".mp3", ".wav", ".m4a":
	default:
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Unsupported audio format"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		log.Printf("[annotations] upload dir: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to store recording"})
		return
	}

	filename := uuid.NewString() + ext
	path := filepath.Join(h.uploadDir, filename)

	dst, err := os.Create(path)
	if err != nil {
		log.Printf("[annotations] create upload file: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to store recording"})
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to store recording"})
		return
	}

	writeJSON(w, http.StatusCreated, models.VoiceUploadResponse{
		URL:      "/uploads/voice/" + filename,
		Filename: filename,
	})
}

// canModify allows the annotation's owner or an admin.
func (h *Handler) canModify(r *http.Request, annotationID, userID int64) bool {
	var annotatorID int64
	if err := h.db.QueryRowContext(r.Context(),
		`SELECT annotator_id FROM annotations WHERE id = $1`, annotationID,
	).Scan(&annotatorID); err != nil {
		// Let the store report not-found with the right status.
		return true
	}
	if annotatorID == userID {
		return true
	}

	var isAdmin bool
	if err := h.db.QueryRowContext(r.Context(),
		`SELECT is_admin FROM users WHERE id = $1`, userID,
	).Scan(&isAdmin); err != nil {
		return false
	}
	return isAdmin
}

func validateScores(scores ...*int) string {
	for _, score := range scores {
		if score != nil && (*score < 1 || *score > 5) {
			return "Scores must be between 1 and 5"
		}
	}
	return ""
}

func validateHighlights(highlights []models.TextHighlight) string {
	for _, hl := range highlights {
		if !models.ValidErrorTypes[hl.ErrorType] {
			return fmt.Sprintf("Invalid error type %q", hl.ErrorType)
		}
		if hl.TextType != models.TextMachine && hl.TextType != models.TextReference {
			return "text_type must be 'machine' or 'reference'"
		}
		if hl.StartIndex < 0 || hl.EndIndex <= hl.StartIndex {
			return "Highlight range is invalid"
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
