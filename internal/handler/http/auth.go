package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/marviero/backoffice/internal/auth"
	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/internal/service"
	apperrors "github.com/marviero/backoffice/pkg/errors"
	"github.com/marviero/backoffice/pkg/httputil"
	"github.com/marviero/backoffice/pkg/validator"
)

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	cookies CookiePolicy
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, cookies CookiePolicy, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for creating a staff account.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Name     string  `json:"name" validate:"required,max=255"`
	Role     string  `json:"role" validate:"required,oneof=ADMIN CLIENT"`
	ClientID *string `json:"client_id,omitempty" validate:"omitempty,uuid4"`
}

// RegisterPublicRequest is the JSON request body for a storefront signup.
type RegisterPublicRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,max=255"`
}

// LoginRequest is the JSON request body for logging in. UserType defaults
// to PRIVATE for the admin frontend.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	UserType string `json:"user_type,omitempty" validate:"omitempty,oneof=PRIVATE PUBLIC"`
}

// --- Handlers ---

// Register handles POST /api/v1/auth/register (admin only).
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, err := h.service.RegisterUser(r.Context(), service.RegisterUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     domain.Role(req.Role),
		ClientID: req.ClientID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: user})
}

// RegisterPublic handles POST /api/v1/auth/register-public.
func (h *AuthHandler) RegisterPublic(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req RegisterPublicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, bundle, err := h.service.RegisterPublicUser(r.Context(), service.RegisterPublicInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.SetBundle(w, bundle)
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: user})
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	utype := domain.UserTypePrivate
	if req.UserType != "" {
		utype = domain.UserType(req.UserType)
	}

	identity, bundle, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		UserType: utype,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.SetBundle(w, bundle)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: identity})
}

// Refresh handles POST /api/v1/auth/refresh. The refresh token arrives in
// its path-scoped cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(auth.CookieRefreshToken)
	if err != nil || c.Value == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("refresh token required"), h.logger)
		return
	}

	bundle, err := h.service.Refresh(r.Context(), c.Value)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.SetAccessAndSocket(w, bundle)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "refreshed"}})
}

// SocketToken handles POST /api/v1/auth/socket-token for an authenticated
// identity, returning the token in the body as well as the cookie.
func (h *AuthHandler) SocketToken(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	token, err := h.service.IssueSocketToken(identity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.SetCookie(w, h.cookies.apply(&http.Cookie{
		Name:   auth.CookieSocketToken,
		Value:  token,
		Path:   "/",
		MaxAge: int(socketCookieAge.Seconds()),
	}))
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"socket_token": token}})
}

// Logout handles POST /api/v1/auth/logout by expiring the cookies. Tokens
// already in the wild die with the next account update or their expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "logged out"}})
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: identity})
}
