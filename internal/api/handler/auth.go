package handler

import (
	"errors"
	"net/http"
	"time"

	mw "github.com/edvin/hostpanel/internal/api/middleware"
	"github.com/edvin/hostpanel/internal/api/request"
	"github.com/edvin/hostpanel/internal/api/response"
	"github.com/edvin/hostpanel/internal/core"
	"github.com/edvin/hostpanel/internal/model"
)

type Auth struct {
	svc          *core.AuthService
	cookieSecure bool
}

func NewAuth(services *core.Services, cookieSecure bool) *Auth {
	return &Auth{svc: services.Auth, cookieSecure: cookieSecure}
}

type registerResponse struct {
	Message string            `json:"message"`
	User    model.UserSummary `json:"user"`
}

type loginResponse struct {
	Message           string            `json:"message,omitempty"`
	User              model.UserSummary `json:"user"`
	RequiresTwoFactor bool              `json:"requiresTwoFactor,omitempty"`
	Token             string            `json:"token,omitempty"`
	ExpiresAt         *time.Time        `json:"expiresAt,omitempty"`
}

// Register godoc
//
//	@Summary		Register an account
//	@Description	Creates a regular user on the default hosting package. Duplicate usernames or emails are rejected with 400.
//	@Tags			Auth
//	@Param			body	body		core.RegisterInput	true	"Account details"
//	@Success		201		{object}	registerResponse
//	@Failure		400		{object}	response.ErrorResponse
//	@Router			/auth/register [post]
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var in core.RegisterInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.svc.Register(r.Context(), in)
	if err != nil {
		var e *core.Error
		if errors.As(err, &e) && e.Kind == core.KindConflict {
			response.WriteError(w, http.StatusBadRequest, e.Message)
			return
		}
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, registerResponse{
		Message: "User registered successfully",
		User:    u.Summary(),
	})
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Starts a session and sets the session cookie. Accounts with two-factor authentication enabled get a challenge response until twoFactorToken is supplied.
//	@Tags			Auth
//	@Param			body	body		core.LoginInput	true	"Credentials"
//	@Success		200		{object}	loginResponse
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		401		{object}	response.ErrorResponse
//	@Router			/auth/login [post]
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in core.LoginInput
	if !decode(w, r, &in) {
		return
	}
	res, err := h.svc.Login(r.Context(), in)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	if res.RequiresTwoFactor {
		response.WriteJSON(w, http.StatusOK, loginResponse{
			User:              res.User.Summary(),
			RequiresTwoFactor: true,
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    res.Session.Token,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	expires := res.Session.ExpiresAt
	response.WriteJSON(w, http.StatusOK, loginResponse{
		Message:   "Login successful",
		User:      res.User.Summary(),
		Token:     res.Session.Token,
		ExpiresAt: &expires,
	})
}

// Logout ends the current session. It succeeds without one.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), mw.SessionToken(r)); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	response.WriteMessage(w, "Logout successful")
}

func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Me(r.Context(), actor(r))
	writeResult(w, r, http.StatusOK, u, err)
}

// SetupTwoFactor godoc
//
//	@Summary		Begin two-factor setup
//	@Description	Generates a TOTP secret with its otpauth URL and a QR code data URL. Nothing is stored until the secret is verified.
//	@Tags			Auth
//	@Success		200	{object}	core.TwoFactorSetup
//	@Router			/auth/2fa/setup [post]
func (h *Auth) SetupTwoFactor(w http.ResponseWriter, r *http.Request) {
	setup, err := h.svc.SetupTwoFactor(r.Context(), actor(r))
	writeResult(w, r, http.StatusOK, setup, err)
}

func (h *Auth) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req request.TwoFactorVerify
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.svc.VerifyTwoFactor(r.Context(), actor(r), req.Token, req.Secret); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteMessage(w, "Two-factor authentication enabled")
}

func (h *Auth) DisableTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req request.TwoFactorDisable
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.svc.DisableTwoFactor(r.Context(), actor(r), req.Password); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteMessage(w, "Two-factor authentication disabled")
}
