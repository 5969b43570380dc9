package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"spbunet/api/internal/metrics"
	"spbunet/api/internal/store"
	"spbunet/api/internal/supabase"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const sessionCookie = "spbu_session"

type ctxKey string

const ctxAdminKey ctxKey = "spbu_admin"

// Admin identifies who passed requireAdmin.
type Admin struct {
	Email  string `json:"email"`
	UserID string `json:"user_id,omitempty"`
	Via    string `json:"via"` // "session" or "secret"
}

type sessionUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

func normalizeEmail(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 || strings.ContainsAny(s, " \t") {
		return s, false
	}
	return s, true
}

// adminSecret reads the shared secret from X-Admin-Secret or a Bearer token.
func adminSecret(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Admin-Secret")); v != "" {
		return v
	}
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// currentSession resolves the session cookie. Expired sessions are deleted.
func (a *App) currentSession(r *http.Request) (store.AdminSession, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || strings.TrimSpace(c.Value) == "" {
		return store.AdminSession{}, false
	}
	sid, err := uuid.Parse(c.Value)
	if err != nil {
		return store.AdminSession{}, false
	}
	sess, err := a.store.GetSession(r.Context(), sid)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.log.WithError(err).Error("load session")
		}
		return store.AdminSession{}, false
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = a.store.DeleteSession(r.Context(), sid)
		return store.AdminSession{}, false
	}
	return sess, true
}

func (a *App) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var admin Admin
		if secret := adminSecret(r); secret != "" && a.cfg.CheckAdminSecret(secret) {
			admin = Admin{Via: "secret"}
		} else if sess, ok := a.currentSession(r); ok {
			admin = Admin{Email: sess.Email, UserID: sess.UserID, Via: "session"}
		} else {
			writeAPIError(w, http.StatusForbidden, "FORBIDDEN", "admin session or secret required")
			return
		}
		ctx := context.WithValue(r.Context(), ctxAdminKey, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *App) requireAuthBackend(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.auth == nil {
			writeAPIError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "authentication service not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeAuthError translates an auth-service failure into a JSON response.
func (a *App) writeAuthError(w http.ResponseWriter, flow string, err error) {
	var apiErr *supabase.Error
	switch {
	case errors.Is(err, supabase.ErrNoServiceKey):
		metrics.RecordAuth(flow, "error")
		writeAPIError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "authentication admin key not configured")
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests:
		metrics.RecordAuth(flow, "rejected")
		writeAPIError(w, http.StatusTooManyRequests, "RATE_LIMITED", apiErr.Message)
	case errors.As(err, &apiErr) && apiErr.StatusCode < 500:
		metrics.RecordAuth(flow, "rejected")
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", apiErr.Message)
	default:
		metrics.RecordAuth(flow, "error")
		a.log.WithError(err).WithField("flow", flow).Error("auth upstream")
		writeAPIError(w, http.StatusBadGateway, "UPSTREAM", "authentication service error")
	}
}

// isRegistered reports whether email belongs to a user of the auth service.
func (a *App) isRegistered(ctx context.Context, email string) (bool, error) {
	_, err := a.auth.FindUserByEmail(ctx, email)
	if errors.Is(err, supabase.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

// startSession stores a local session for an auth-service session and sets the cookie.
func (a *App) startSession(w http.ResponseWriter, r *http.Request, s *supabase.Session) (sessionUser, error) {
	u := s.User
	if u == nil || u.ID == "" {
		var err error
		if u, err = a.auth.GetUser(r.Context(), s.AccessToken); err != nil {
			return sessionUser{}, err
		}
	}

	sid := uuid.New()
	expires := time.Now().Add(a.cfg.SessionTTL)
	if a.cfg.SessionTTL <= 0 {
		expires = time.Now().Add(7 * 24 * time.Hour)
	}
	err := a.store.CreateSession(r.Context(), store.AdminSession{
		ID:           sid,
		UserID:       u.ID,
		Email:        strings.ToLower(u.Email),
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    expires,
	})
	if err != nil {
		return sessionUser{}, err
	}

	secure := a.cfg.CookieSecure
	if !secure {
		if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			secure = true
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		Expires:  expires,
	})
	return sessionUser{ID: u.ID, Email: strings.ToLower(u.Email), ExpiresAt: expires}, nil
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// ---------- handlers ----------

func (a *App) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, 0, &body) {
		return
	}
	email, ok := normalizeEmail(body.Email)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "valid email required")
		return
	}
	registered, err := a.isRegistered(r.Context(), email)
	if err != nil {
		a.writeAuthError(w, "check-email", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"registered": registered})
}

func (a *App) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, 0, &body) {
		return
	}
	email, ok := normalizeEmail(body.Email)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "valid email required")
		return
	}
	if len(body.Password) < 8 {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "password must be at least 8 characters")
		return
	}
	u, err := a.auth.CreateUser(r.Context(), email, body.Password)
	if err != nil {
		a.writeAuthError(w, "create-user", err)
		return
	}
	metrics.RecordAuth("create-user", "ok")
	a.log.WithFields(logrus.Fields{"email": email, "by": r.Context().Value(ctxAdminKey)}).Info("admin user created")
	writeJSON(w, http.StatusCreated, map[string]any{"user": u})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, 0, &body) {
		return
	}
	email, ok := normalizeEmail(body.Email)
	if !ok || strings.TrimSpace(body.Password) == "" {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "email and password required")
		return
	}

	registered, err := a.isRegistered(r.Context(), email)
	if err != nil {
		a.writeAuthError(w, "login", err)
		return
	}
	if !registered {
		metrics.RecordAuth("login", "rejected")
		writeAPIError(w, http.StatusBadRequest, "EMAIL_NOT_REGISTERED", "email is not registered")
		return
	}

	s, err := a.auth.SignInWithPassword(r.Context(), email, body.Password)
	if err != nil {
		var apiErr *supabase.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
			metrics.RecordAuth("login", "rejected")
			writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
			return
		}
		a.writeAuthError(w, "login", err)
		return
	}

	u, err := a.startSession(w, r, s)
	if err != nil {
		a.log.WithError(err).Error("create session")
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "could not create session")
		return
	}
	metrics.RecordAuth("login", "ok")
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (a *App) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, 0, &body) {
		return
	}
	email, ok := normalizeEmail(body.Email)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "valid email required")
		return
	}
	if !a.otp.Allow(email) {
		metrics.RecordAuth("send-otp", "rejected")
		writeAPIError(w, http.StatusTooManyRequests, "RATE_LIMITED", "please wait before requesting another code")
		return
	}

	registered, err := a.isRegistered(r.Context(), email)
	if err != nil {
		a.writeAuthError(w, "send-otp", err)
		return
	}
	if !registered {
		metrics.RecordAuth("send-otp", "rejected")
		writeAPIError(w, http.StatusBadRequest, "EMAIL_NOT_REGISTERED", "email is not registered")
		return
	}
	if err := a.auth.SendOTP(r.Context(), email); err != nil {
		a.writeAuthError(w, "send-otp", err)
		return
	}
	metrics.RecordAuth("send-otp", "ok")
	writeJSON(w, http.StatusOK, map[string]any{"sent": true})
}

func (a *App) verifyAndStart(w http.ResponseWriter, r *http.Request, flow, otpType string) {
	var body struct {
		Email string `json:"email"`
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, 0, &body) {
		return
	}
	email, ok := normalizeEmail(body.Email)
	token := strings.TrimSpace(body.Token)
	if !ok || token == "" {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "email and token required")
		return
	}

	s, err := a.auth.VerifyOTP(r.Context(), email, token, otpType)
	if err != nil {
		a.writeAuthError(w, flow, err)
		return
	}
	u, err := a.startSession(w, r, s)
	if err != nil {
		a.log.WithError(err).Error("create session")
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "could not create session")
		return
	}
	metrics.RecordAuth(flow, "ok")
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (a *App) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	a.verifyAndStart(w, r, "verify-otp", supabase.OTPTypeEmail)
}

func (a *App) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	a.verifyAndStart(w, r, "verify-email", supabase.OTPTypeSignup)
}

func (a *App) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.currentSession(r)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          sessionUser{ID: sess.UserID, Email: sess.Email, ExpiresAt: sess.ExpiresAt},
	})
}

func (a *App) handleVerifySecret(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Secret string `json:"secret"`
	}
	if !decodeJSON(w, r, 0, &body) {
		return
	}
	if !a.cfg.CheckAdminSecret(body.Secret) {
		metrics.RecordAuth("verify-secret", "rejected")
		writeAPIError(w, http.StatusForbidden, "FORBIDDEN", "invalid secret")
		return
	}
	metrics.RecordAuth("verify-secret", "ok")
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := a.currentSession(r); ok {
		_ = a.store.DeleteSession(r.Context(), sess.ID)
		if a.auth != nil && sess.AccessToken != "" {
			if err := a.auth.SignOut(r.Context(), sess.AccessToken); err != nil {
				a.log.WithError(err).Warn("auth sign out")
			}
		}
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
