package registration

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wimarka-uic/lakra/internal/models"
)

// Handler exposes the registration wizard over HTTP. All endpoints are
// public; the wizard exists precisely for users without accounts.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	wiz := h.store.Create()
	writeJSON(w, http.StatusCreated, wiz.State())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	wiz, err := h.wizard(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, wiz.State())
}

func (h *Handler) SelectRole(w http.ResponseWriter, r *http.Request) {
	wiz, err := h.wizard(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	var req struct {
		UserType string `json:"user_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := wiz.SelectRole(req.UserType); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, wiz.State())
}

func (h *Handler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	wiz, err := h.wizard(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	var req struct {
		Email           string `json:"email"`
		Username        string `json:"username"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	wiz.UpdateFields(req.Email, req.Username, req.Password, req.ConfirmPassword, req.FirstName, req.LastName)
	writeJSON(w, http.StatusOK, wiz.State())
}

func (h *Handler) ToggleLanguage(w http.ResponseWriter, r *http.Request) {
	wiz, err := h.wizard(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	var req struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Language == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "language is required"})
		return
	}

	wiz.ToggleLanguage(req.Language)
	writeJSON(w, http.StatusOK, wiz.State())
}

func (h *Handler) SetPreferredLanguage(w http.ResponseWriter, r *http.Request) {
	wiz, err := h.wizard(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	var req struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Language == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "language is required"})
		return
	}

	if err := wiz.SetPreferredLanguage(req.Language); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, wiz.State())
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	wiz, err := h.wizard(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	if _, err := wiz.Next(r.Context()); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	// Guard failures are not errors; the state carries the message.
	writeJSON(w, http.StatusOK, wiz.State())
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	wiz, err := h.wizard(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := wiz.Back(); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, wiz.State())
}

func (h *Handler) SelectAnswer(w http.ResponseWriter, r *http.Request) {
	wiz, err := h.wizard(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	var req struct {
		SelectedAnswer *int `json:"selected_answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SelectedAnswer == nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "selected_answer is required"})
		return
	}

	if err := wiz.SelectAnswer(*req.SelectedAnswer); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, wiz.State())
}

func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	wiz, err := h.wizard(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	outcome, err := wiz.NextQuestion(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if outcome != nil {
		writeJSON(w, http.StatusOK, outcome)
		return
	}
	writeJSON(w, http.StatusOK, wiz.State())
}

func (h *Handler) PreviousQuestion(w http.ResponseWriter, r *http.Request) {
	wiz, err := h.wizard(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := wiz.PreviousQuestion(); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, wiz.State())
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	wiz, err := h.wizard(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	outcome, err := wiz.Submit(r.Context())
	if err != nil {
		if err == ErrSubmissionInFlight {
			writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Submission already in progress"})
			return
		}
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) Abandon(w http.ResponseWriter, r *http.Request) {
	h.store.Remove(mux.Vars(r)["id"])
	writeJSON(w, http.StatusOK, map[string]string{"message": "Registration session discarded"})
}

func (h *Handler) wizard(r *http.Request) (*Wizard, error) {
	return h.store.Get(mux.Vars(r)["id"])
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
