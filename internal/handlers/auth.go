package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/studynotion/apiserver/internal/logger"
	"github.com/studynotion/apiserver/internal/services"
	"github.com/studynotion/apiserver/types"
)

// AuthHandler provides signup, login and password endpoints.
type AuthHandler struct {
	auth         *services.AuthService
	cookieTTL    time.Duration
	secureCookie bool
	log          *logger.Logger
}

// NewAuthHandler constructs an AuthHandler. A zero cookieTTL uses the token
// lifetime.
func NewAuthHandler(auth *services.AuthService, cookieTTL time.Duration, secureCookie bool, log *logger.Logger) *AuthHandler {
	if cookieTTL <= 0 {
		cookieTTL = auth.Tokens().TTL()
	}
	return &AuthHandler{
		auth:         auth,
		cookieTTL:    cookieTTL,
		secureCookie: secureCookie,
		log:          log,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/sendOTP", handler.SendOTP)
	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
	r.With(authMiddleware).Post("/changepassword", handler.ChangePassword)
}

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type SignupRequest struct {
	FirstName       string `json:"firstName" validate:"required,notblank"`
	LastName        string `json:"lastName" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	AccountType     string `json:"accountType" validate:"required,account_type"`
	ContactNumber   string `json:"contactNumber" validate:"omitempty,max=20"`
	OTP             string `json:"otp" validate:"required,otp"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword        string `json:"oldPassword" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required"`
}

// SendOTP mails a verification code to an unregistered email.
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	sent, err := h.auth.RequestCode(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "OTP sent successfully", sent)
}

// Signup creates the account once the verification code matches.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	user, err := h.auth.Signup(r.Context(), services.SignupInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		AccountType:     types.AccountType(req.AccountType),
		ContactNumber:   req.ContactNumber,
		Code:            req.OTP,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User registered successfully", user)
}

// Login verifies credentials, sets the session cookie and returns the token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeSuccess(w, http.StatusOK, "User login success", session)
}

// ChangePassword replaces the caller's password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), p.ID, req.OldPassword, req.NewPassword, req.ConfirmNewPassword); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Password updated successfully", nil)
}
