package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/models"
	"expense-ledger/internal/report"
	"expense-ledger/internal/storage"
	"expense-ledger/web"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// DefaultSessionDuration is how long sessions last (30 days).
	DefaultSessionDuration = 30 * 24 * time.Hour
)

var views = []string{"login.html", "dashboard.html", "edit.html"}

// Options configures Handlers. Zero values fall back to defaults.
type Options struct {
	SessionDuration time.Duration
	SecureCookie    bool
	// ExportDir is where report files are staged; empty means os.TempDir().
	ExportDir string
	Logger    *slog.Logger
	Renderer  *report.Renderer
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db              *storage.DB
	signer          *auth.Signer
	renderer        *report.Renderer
	logger          *slog.Logger
	templates       map[string]*template.Template
	sessionDuration time.Duration
	secureCookie    bool
	exportDir       string
}

// NewHandlers creates a new Handlers instance and parses its templates.
func NewHandlers(db *storage.DB, signer *auth.Signer, opts Options) (*Handlers, error) {
	h := &Handlers{
		db:              db,
		signer:          signer,
		renderer:        opts.Renderer,
		logger:          opts.Logger,
		sessionDuration: opts.SessionDuration,
		secureCookie:    opts.SecureCookie,
		exportDir:       opts.ExportDir,
		templates:       make(map[string]*template.Template, len(views)),
	}
	if h.renderer == nil {
		h.renderer = report.New()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.sessionDuration <= 0 {
		h.sessionDuration = DefaultSessionDuration
	}

	for _, view := range views {
		tmpl, err := template.ParseFS(web.TemplatesFS, "templates/base.html", "templates/"+view)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", view, err)
		}
		h.templates[view] = tmpl
	}
	return h, nil
}

// Routes registers every endpoint on a new ServeMux.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /logout", h.Logout)
	mux.HandleFunc("GET /healthz", h.Health)

	mux.Handle("GET /dashboard", h.AuthMiddleware(http.HandlerFunc(h.Dashboard)))
	mux.Handle("POST /add_expense", h.AuthMiddleware(http.HandlerFunc(h.AddExpense)))
	mux.Handle("GET /delete/{id}", h.AuthMiddleware(http.HandlerFunc(h.DeleteExpense)))
	mux.Handle("GET /edit/{id}", h.AuthMiddleware(http.HandlerFunc(h.EditExpenseForm)))
	mux.Handle("POST /edit/{id}", h.AuthMiddleware(http.HandlerFunc(h.UpdateExpense)))
	mux.Handle("GET /download_pdf", h.AuthMiddleware(http.HandlerFunc(h.DownloadPDF)))

	return mux
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require a session. Requests without one are
// redirected home. Sessions past the halfway point of their lifetime are renewed.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := h.sessionFromRequest(r)
		if err != nil {
			if !errors.Is(err, http.ErrNoCookie) {
				h.clearSessionCookie(w)
			}
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		// Rolling session: renew if past halfway point
		now := time.Now()
		if info.Session.ExpiresAt.Sub(now) < h.sessionDuration/2 {
			newExpiresAt := now.Add(h.sessionDuration)
			if err := h.db.RenewSession(r.Context(), info.Session.Token, newExpiresAt); err == nil {
				if err := h.setSessionCookie(w, info.Session.Token, info.User.ID, newExpiresAt); err != nil {
					h.logger.WarnContext(r.Context(), "failed to reissue session cookie", "error", err)
				}
			}
			// If renewal fails, just continue with the current session
		}

		ctx := context.WithValue(r.Context(), UserContextKey, info.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFromRequest verifies the cookie signature and that the session has not been revoked.
func (h *Handlers) sessionFromRequest(r *http.Request) (*storage.SessionInfo, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, err
	}
	if cookie.Value == "" {
		return nil, http.ErrNoCookie
	}

	claims, err := h.signer.Parse(cookie.Value)
	if err != nil {
		return nil, err
	}

	info, err := h.db.ValidateSessionWithInfo(r.Context(), claims.ID)
	if err != nil {
		return nil, err
	}
	if info.User.ID != claims.UserID {
		return nil, auth.ErrInvalidToken
	}
	return info, nil
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string, userID int64, expiresAt time.Time) error {
	value, err := h.signer.Sign(token, userID, expiresAt)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// Health reports whether the store is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "health check failed", "error", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName string, data any) {
	tmpl, ok := h.templates[viewName]
	if !ok {
		h.logger.ErrorContext(r.Context(), "unknown template", "view", viewName)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, target, data); err != nil {
		h.logger.ErrorContext(r.Context(), "template execution error", "view", viewName, "error", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
