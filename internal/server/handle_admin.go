package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yamanavi/mountainquiz/internal/mountain"
)

// AdminLoginRequest is the request body for POST /api/admin/login.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminMeResponse is the response for GET /api/admin/me.
type AdminMeResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func handleAdminLogin(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminLoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		adminID, passwordHash, err := store.AdminByUsername(r.Context(), req.Username)
		if errors.Is(err, mountain.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		token := uuid.NewString()
		expires := time.Now().Add(adminSessionMaxAge * time.Second)
		if err := store.CreateAdminSession(r.Context(), token, adminID, expires); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     adminCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   adminSessionMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		writeJSON(w, http.StatusOK, AdminMeResponse{ID: adminID, Username: req.Username})
	}
}

func handleAdminLogout(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(adminCookieName)
		if err == nil && cookie.Value != "" {
			store.DeleteAdminSession(r.Context(), cookie.Value)
		}

		http.SetCookie(w, &http.Cookie{
			Name:     adminCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleAdminMe(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := adminFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		writeJSON(w, http.StatusOK, AdminMeResponse{ID: sess.AdminID, Username: sess.Username})
	}
}

func handleAdminListSubmissions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		if status == "" {
			status = StatusPending
		}
		switch status {
		case StatusPending, StatusApproved, StatusRejected:
		default:
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}

		subs, err := store.ListSubmissions(r.Context(), status, 100)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if subs == nil {
			subs = []mountain.Submission{}
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

func handleAdminReviewSubmission(store Store, status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := store.SetSubmissionStatus(r.Context(), id, status)
		if errors.Is(err, mountain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "submission not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": status})
	}
}
