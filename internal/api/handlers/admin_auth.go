package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/conectados420/storefront/internal/api/middleware"
	"github.com/conectados420/storefront/internal/api/problem"
	"github.com/conectados420/storefront/internal/audit"
	"github.com/conectados420/storefront/internal/auth"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, *auth.Profile, error)
}

type AdminAuthHandler struct {
	auth         Authenticator
	expiry       time.Duration
	secureCookie bool
	auditLogger  *audit.Logger
	env          string
}

// NewAdminAuthHandler creates the login handler. expiry should match the JWT
// manager's so the cookie and the token lapse together.
func NewAdminAuthHandler(authenticator Authenticator, expiry time.Duration, secureCookie bool, auditLogger *audit.Logger, env string) *AdminAuthHandler {
	return &AdminAuthHandler{
		auth:         authenticator,
		expiry:       expiry,
		secureCookie: secureCookie,
		auditLogger:  auditLogger,
		env:          env,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      *auth.Profile `json:"user"`
}

// Login handles POST /api/v1/admin/login.
// Issues the JWT in the body for API clients AND as an HttpOnly cookie for
// the browser admin.
func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}
	if req.Email == "" || req.Password == "" {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Email and password are required", nil, h.env)
		return
	}

	token, profile, err := h.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.auditLogger.Log(audit.Entry{Action: "admin.login", AdminUser: req.Email, Status: "failure"})
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid credentials", nil, h.env)
		return
	case errors.Is(err, auth.ErrNotAdmin):
		h.auditLogger.Log(audit.Entry{Action: "admin.login", AdminUser: req.Email, Status: "failure"})
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", nil, h.env)
		return
	case err != nil:
		serverError(w, r, err, h.env)
		return
	}

	expiresAt := time.Now().Add(h.expiry)
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminAuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie || r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	h.auditLogger.LogFromRequest(r.WithContext(audit.WithAdminUser(r.Context(), profile.Email)), "admin.login", "profile", profile.ID, "success", nil)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		User:      profile,
	}, "")
}

// Logout handles POST /api/v1/admin/logout
// Clears the auth cookie
func (h *AdminAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminAuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie || r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"}, "")
}

// CSRF hands the browser admin the token it must echo in the X-CSRF-Token
// header on cookie-authenticated writes.
func (h *AdminAuthHandler) CSRF(w http.ResponseWriter, r *http.Request) {
	token := middleware.CSRFToken(r)
	w.Header().Set(middleware.CSRFHeader, token)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]string{"token": token}, "")
}

type sessionResponse struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Cookie  bool   `json:"cookie"`
}

// Me reports the authenticated admin.
func (h *AdminAuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.AdminClaims(r)
	if claims == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, h.env)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
		Cookie:  middleware.AuthenticatedByCookie(r),
	}, "")
}
