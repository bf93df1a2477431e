package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"llmaware/internal/errs"
	"llmaware/internal/middleware"
	"llmaware/internal/models"
	"llmaware/internal/session"
)

// totpIssuer is the issuer shown in authenticator apps.
const totpIssuer = "LLMAware"

// UserRepository is the subset of the user store the auth handlers need.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
	CheckPassword(user *models.User, password string) bool
}

// SessionManager creates and mutates admin sessions. *session.Store
// satisfies it.
type SessionManager interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Update(ctx context.Context, r *http.Request, data *session.Data) error
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	users    UserRepository
	sessions SessionManager
	log      *zap.Logger
}

// NewAuth creates a new Auth handler group.
func NewAuth(users UserRepository, sessions SessionManager, log *zap.Logger) *Auth {
	return &Auth{users: users, sessions: sessions, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	UserID        uuid.UUID `json:"user_id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	TwoFADone     bool      `json:"two_fa_done"`
	TwoFAEnrolled bool      `json:"two_fa_enrolled,omitempty"`
}

// Login checks the password and admin membership, then opens a session
// whose second factor is still pending.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, a.log, err)
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, a.log, errs.Invalid("email", "email and password are required"))
		return
	}

	user, err := a.users.FindByEmail(r.Context(), email)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if user == nil || !a.users.CheckPassword(user, req.Password) {
		a.log.Info("login rejected", zap.String("email", email))
		writeMessage(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	admin, err := a.users.IsAdmin(r.Context(), user.ID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if !admin {
		a.log.Warn("non-admin login refused", zap.String("user_id", user.ID.String()))
		writeMessage(w, http.StatusForbidden, "admin access required")
		return
	}

	data := &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		TwoFADone:   false,
	}
	if _, err := a.sessions.Create(r.Context(), w, data); err != nil {
		writeError(w, a.log, err)
		return
	}

	a.log.Info("login succeeded", zap.String("user_id", user.ID.String()))
	writeJSON(w, http.StatusOK, meResponse{
		UserID:        user.ID,
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		TwoFAEnrolled: !user.Needs2FASetup(),
	})
}

type twoFASetupResponse struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
	QRCode string `json:"qr_png_base64"`
}

// TwoFASetup generates a TOTP secret and returns it with a QR code.
// Users that already enrolled must verify instead.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if user.TOTPEnabled {
		writeMessage(w, http.StatusConflict, "two-factor authentication is already enabled")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		writeError(w, a.log, err)
		return
	}

	if err := a.users.SetTOTPSecret(r.Context(), user.ID, key.Secret()); err != nil {
		writeError(w, a.log, err)
		return
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		writeError(w, a.log, err)
		return
	}

	writeJSON(w, http.StatusOK, twoFASetupResponse{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: base64.StdEncoding.EncodeToString(png),
	})
}

type twoFAVerifyRequest struct {
	Code string `json:"code"`
}

// TwoFAVerify validates a TOTP code, enabling TOTP on first success, and
// marks the session's second factor as done.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req twoFAVerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, a.log, err)
		return
	}

	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if user.TOTPSecret == nil {
		writeError(w, a.log, errs.Invalid("code", "two-factor setup has not been started"))
		return
	}

	if !totp.Validate(strings.TrimSpace(req.Code), *user.TOTPSecret) {
		writeMessage(w, http.StatusUnauthorized, "invalid code")
		return
	}

	if !user.TOTPEnabled {
		if err := a.users.EnableTOTP(r.Context(), user.ID); err != nil {
			writeError(w, a.log, err)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		writeError(w, a.log, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		UserID:        sess.UserID,
		Email:         sess.Email,
		DisplayName:   sess.DisplayName,
		TwoFADone:     true,
		TwoFAEnrolled: true,
	})
}

// Me returns the current session.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	writeJSON(w, http.StatusOK, meResponse{
		UserID:      sess.UserID,
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
		TwoFADone:   sess.TwoFADone,
	})
}

// CSRFToken returns the token clients must echo in the X-CSRF-Token header.
func (a *Auth) CSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"csrf_token": middleware.CSRFTokenFromCtx(r.Context())})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		a.log.Warn("session destroy failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
