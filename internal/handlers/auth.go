package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"kamaris/internal/middleware"
	"kamaris/internal/storage"

	"github.com/justinas/nosurf"
	"golang.org/x/crypto/bcrypt"
)

const sessionAdminID = "adminID"

// AuthHandler owns the admin session lifecycle. Authentication is a thin
// allowlist: knowing the password is not enough, the account must exist in
// the admins table.
type AuthHandler struct {
	Store    storage.Store
	Sessions *middleware.Sessions
	Logger   *slog.Logger
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	CSRFToken     string `json:"csrf_token"`
}

// HandleSession answers GET /admin/session so the frontend can learn
// whether a session exists and fetch the CSRF token for the upload form.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{CSRFToken: nosurf.Token(r)}
	if h.Sessions.Manager.Exists(r.Context(), sessionAdminID) {
		resp.Authenticated = true
		resp.Username = h.Sessions.Manager.GetString(r.Context(), "username")
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleLogin answers POST /admin/login with form fields username and
// password. Both a missing account and a wrong password answer the same
// 401 so the endpoint does not confirm which usernames exist.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.Sessions.Manager.Exists(r.Context(), sessionAdminID) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "already logged in"})
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	admin, err := h.Store.GetAdminByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// burn a hash compare so the miss costs the same as a bad password
			bcrypt.CompareHashAndPassword([]byte("$2a$12$0000000000000000000000uGZwCEKDpGSHWeE4q7c5cG3Cs0Dgpy2"), []byte(password))
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		InternalError(w, r, h.Logger, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		h.Logger.Warn("failed login attempt",
			slog.String("username", username),
			slog.String("ip", r.RemoteAddr),
		)
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	// fresh token on privilege change
	if err := h.Sessions.Manager.RenewToken(r.Context()); err != nil {
		InternalError(w, r, h.Logger, err)
		return
	}
	h.Sessions.Manager.Put(r.Context(), sessionAdminID, admin.ID)
	h.Sessions.Manager.Put(r.Context(), "username", admin.Username)

	h.Logger.Info("admin logged in", slog.String("username", admin.Username))

	writeJSON(w, http.StatusOK, map[string]string{"username": admin.Username})
}

// HandleLogout answers POST /admin/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Manager.Destroy(r.Context()); err != nil {
		InternalError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequireAdmin gates a handler on a live session whose account is still in
// the admins table, so revoking a row revokes access immediately.
func (h *AuthHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminID := h.Sessions.Manager.GetInt64(r.Context(), sessionAdminID)
		if adminID == 0 {
			Unauthorised(w, r, h.Logger)
			return
		}

		ok, err := h.Store.IsAdmin(r.Context(), adminID)
		if err != nil {
			InternalError(w, r, h.Logger, err)
			return
		}
		if !ok {
			h.Sessions.Manager.Destroy(r.Context())
			Unauthorised(w, r, h.Logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}
