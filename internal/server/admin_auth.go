package server

import (
	"errors"
	"net/http"
)

var errNoAdminSession = errors.New("no valid admin session")

const (
	adminCookieName    = "admin_session"
	adminSessionMaxAge = 7 * 24 * 60 * 60 // seconds
)

// adminFromRequest reads the admin_session cookie and resolves the session.
func adminFromRequest(r *http.Request, store Store) (adminSession, error) {
	cookie, err := r.Cookie(adminCookieName)
	if err != nil || cookie.Value == "" {
		return adminSession{}, errNoAdminSession
	}
	return store.AdminFromSession(r.Context(), cookie.Value)
}
