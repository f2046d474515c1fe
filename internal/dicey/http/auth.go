package http

import (
	"net/http"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/service"
	"github.com/diceydecisions/dicey/pkg/api"
	"github.com/diceydecisions/dicey/pkg/httpx"
	"github.com/diceydecisions/dicey/pkg/slogx"
)

// AuthHandler serves registration, verification, login and token refresh.
type AuthHandler struct {
	Account    *service.AccountService
	RefreshTTL time.Duration
	Secure     bool
}

// HandleRegister accepts a new registration and mails out a verification
// link. The response is the same whether or not mail delivery is observable
// to the caller.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		api.Validation("malformed JSON body").WriteError(w)
		return
	}

	if err := h.Account.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, api.MessageResponse{
		Message: "verification email sent",
	})
}

// HandleVerify exchanges a verification token for a confirmed account and a
// logged-in session. The token may arrive in the body or as ?token=.
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyEmailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		api.Validation("malformed JSON body").WriteError(w)
		return
	}
	if req.Token == "" {
		req.Token = r.URL.Query().Get("token")
	}
	if req.Token == "" {
		api.Validation("token is required").WriteError(w)
		return
	}

	user, pair, err := h.Account.Verify(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setAuthCookies(w, pair, h.RefreshTTL, h.Secure)
	httpx.WriteJSON(w, http.StatusOK, api.AuthResponse{
		Message:      "email verified",
		User:         toAPIUser(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		api.Validation("malformed JSON body").WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		api.Validation("email and password are required").WriteError(w)
		return
	}

	user, pair, err := h.Account.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setAuthCookies(w, pair, h.RefreshTTL, h.Secure)
	httpx.WriteJSON(w, http.StatusOK, api.AuthResponse{
		User:         toAPIUser(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleRefresh rotates the token pair. The refresh token comes from the
// body or the refreshToken cookie, body taking precedence.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req api.RefreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		api.Validation("malformed JSON body").WriteError(w)
		return
	}
	if req.RefreshToken == "" {
		if c, err := r.Cookie(refreshTokenCookie); err == nil {
			req.RefreshToken = c.Value
		}
	}
	if req.RefreshToken == "" {
		api.Unauthenticated("refresh token is required").WriteError(w)
		return
	}

	user, pair, err := h.Account.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setAuthCookies(w, pair, h.RefreshTTL, h.Secure)
	httpx.WriteJSON(w, http.StatusOK, api.AuthResponse{
		User:         toAPIUser(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleLogout clears the auth cookies. Tokens are stateless so there is
// nothing server-side to revoke.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookies(w, h.Secure)
	httpx.WriteJSON(w, http.StatusOK, api.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req api.ResendVerificationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		api.Validation("malformed JSON body").WriteError(w)
		return
	}
	if req.Email == "" {
		api.Validation("email is required").WriteError(w)
		return
	}

	if err := h.Account.ResendVerification(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, api.MessageResponse{
		Message: "verification email sent",
	})
}

// HandleMe returns the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserID(ctx)
	if userID == "" {
		api.Unauthenticated("missing access token").WriteError(w)
		return
	}

	user, err := h.Account.GetUser(ctx, userID)
	if err != nil {
		slogx.FromContext(ctx).Warn("failed to load user", "user_id", userID, "err", err)
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toAPIUser(user))
}
