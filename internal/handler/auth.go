package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/templui/recipehub/internal/config"
	"github.com/templui/recipehub/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie  = "oauth_state"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type authHandler struct {
	authService       *service.AuthService
	googleOAuthConfig *oauth2.Config
	frontendURL       string
	secureCookies     bool
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *authHandler {
	return &authHandler{
		authService: authService,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  strings.TrimSuffix(cfg.AppURL, "/") + "/api/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		frontendURL:   strings.TrimSuffix(cfg.FrontendURL, "/"),
		secureCookies: cfg.IsProduction(),
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type registerResponse struct {
	Message   string `json:"message"`
	UserID    string `json:"userId"`
	EmailSent bool   `json:"emailSent"`
	Code      string `json:"code,omitempty"`
}

func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := registerResponse{
		Message:   "Registration successful. Check your email for a verification code.",
		UserID:    result.UserID,
		EmailSent: true,
	}
	if !result.EmailSent {
		resp.Message = "Account created, but the verification email could not be sent. Please request a new code."
		resp.EmailSent = false
		resp.Code = "verification_email_failed"
	}
	writeJSON(w, http.StatusCreated, resp)
}

type verifyRequest struct {
	Email            string `json:"email"`
	VerificationCode string `json:"verificationCode"`
}

func (h *authHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.authService.Verify(r.Context(), req.Email, req.VerificationCode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Account verified successfully."})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *authHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.authService.ResendVerification(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "A new verification code has been sent."})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user logged in with password", "user_id", session.User.ID)
	writeJSON(w, http.StatusOK, loginResponse{
		Message:   "Login successful.",
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

func (h *authHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	h.authService.ForgotPassword(r.Context(), req.Email)

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "If an account with that email exists, a password reset link has been sent.",
	})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (h *authHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.authService.ResetPassword(r.Context(), r.PathValue("userId"), r.PathValue("token"), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Password has been reset. You can now log in."})
}

// GoogleAuth redirects the user to the Google consent screen
func (h *authHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	state, err := generateOAuthState()
	if err != nil {
		slog.Error("failed to generate oauth state", "error", err)
		h.oauthFailed(w, r)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	http.Redirect(w, r, h.googleOAuthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback finishes the Google flow and hands the session token to the frontend
func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	// Validate state parameter for CSRF protection
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || cookie.Value != state {
		slog.Warn("google oauth state validation failed", "error", err)
		h.oauthFailed(w, r)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code", "error", r.URL.Query().Get("error"))
		h.oauthFailed(w, r)
		return
	}

	token, err := h.googleOAuthConfig.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		h.oauthFailed(w, r)
		return
	}

	principal, err := h.googleUserInfo(r, token)
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		h.oauthFailed(w, r)
		return
	}

	session, err := h.authService.AuthenticateOAuth(r.Context(), principal)
	if err != nil {
		slog.Error("oauth authentication failed", "error", err)
		h.oauthFailed(w, r)
		return
	}

	slog.Info("user logged in with google oauth", "user_id", session.User.ID)
	target := h.frontendURL + "/auth/google/callback?token=" + url.QueryEscape(session.Token)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *authHandler) googleUserInfo(r *http.Request, token *oauth2.Token) (service.Principal, error) {
	client := h.googleOAuthConfig.Client(r.Context(), token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return service.Principal{}, err
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return service.Principal{}, fmt.Errorf("userinfo returned %s", resp.Status)
	}

	var userInfo struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
	}
	err = json.NewDecoder(resp.Body).Decode(&userInfo)
	if err != nil {
		return service.Principal{}, err
	}
	if !userInfo.VerifiedEmail {
		return service.Principal{}, fmt.Errorf("google account email %q is not verified", userInfo.Email)
	}

	return service.Principal{
		Provider:    service.ProviderGoogle,
		ProviderID:  userInfo.ID,
		Email:       userInfo.Email,
		DisplayName: userInfo.Name,
	}, nil
}

func (h *authHandler) oauthFailed(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.frontendURL+"/login?error=oauth", http.StatusSeeOther)
}

func generateOAuthState() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
