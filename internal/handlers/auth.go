package handlers

import (
	"net/http"
	"strings"
	"time"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/models"
)

// LoginFailedMessage is the plain-text body returned for a failed login.
const LoginFailedMessage = "Invalid Email or Password"

// Home renders the login/registration page, or sends signed-in users to the dashboard.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessionFromRequest(r); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.render(w, r, "login.html", nil)
}

// Register creates an account and sends the user back to the login page.
// Duplicate emails are accepted and create a second account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.serverError(w, r, "failed to hash password", err)
		return
	}

	user, err := h.db.CreateUser(r.Context(), name, email, hash)
	if err != nil {
		h.serverError(w, r, "failed to create user", err)
		return
	}

	h.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Login checks the credentials and establishes a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	candidates, err := h.db.GetUsersByEmail(r.Context(), email)
	if err != nil {
		h.serverError(w, r, "failed to look up user", err)
		return
	}

	var user *models.User
	for i := range candidates {
		if auth.CheckPassword(password, candidates[i].PasswordHash) {
			user = &candidates[i]
			break
		}
	}
	if user == nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(LoginFailedMessage))
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		h.serverError(w, r, "failed to generate session token", err)
		return
	}

	expiresAt := time.Now().Add(h.sessionDuration)
	if err := h.db.CreateSession(r.Context(), token, user.ID, expiresAt); err != nil {
		h.serverError(w, r, "failed to create session", err)
		return
	}
	if err := h.setSessionCookie(w, token, user.ID, expiresAt); err != nil {
		h.serverError(w, r, "failed to sign session cookie", err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// Logout revokes the current session, if any, and clears the cookie.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if claims, err := h.signer.Parse(cookie.Value); err == nil {
			if err := h.db.DeleteSession(r.Context(), claims.ID); err != nil {
				h.logger.WarnContext(r.Context(), "failed to delete session", "error", err)
			}
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}
