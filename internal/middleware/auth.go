package middleware

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wimarka-uic/lakra/internal/auth"
	"github.com/wimarka-uic/lakra/internal/models"
)

// UserID extracts the authenticated user ID from the request context.
func UserID(r *http.Request) (int64, bool) {
	return auth.UserID(r)
}

// AuthMiddleware verifies the Bearer token and injects the user ID into the
// request context. Requests without a valid token are rejected.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		userID, err := auth.ParseToken(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}

// Guard checks role flags against the users table.
type Guard struct {
	db *sql.DB
}

func NewGuard(db *sql.DB) *Guard {
	return &Guard{db: db}
}

func (g *Guard) roleFlags(userID int64) (isAdmin, isEvaluator bool, err error) {
	err = g.db.QueryRow(
		`SELECT is_admin, is_evaluator FROM users WHERE id = $1 AND is_active = TRUE`,
		userID,
	).Scan(&isAdmin, &isEvaluator)
	return
}

func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		isAdmin, _, err := g.roleFlags(userID)
		if err != nil || !isAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Guard) RequireEvaluator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		isAdmin, isEvaluator, err := g.roleFlags(userID)
		if err != nil || (!isEvaluator && !isAdmin) {
			writeError(w, http.StatusForbidden, "Evaluator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
}
