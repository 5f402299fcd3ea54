package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clipstream/backend/internal/container"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/service"
	"github.com/clipstream/backend/internal/service/auth"
	"github.com/clipstream/backend/pkg/errors"
)

// UserHandler handles account and session requests
type UserHandler struct {
	container *container.Container
}

// NewUserHandler creates a new user handler
func NewUserHandler(container *container.Container) *UserHandler {
	return &UserHandler{container: container}
}

// loginRequest accepts a username or an email plus the password.
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/users/register (multipart).
// The avatar file is required, coverImage is optional.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()
	cfg := h.container.GetConfig()

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, log, errors.NewValidationError("Invalid multipart form", nil))
		return
	}

	input := service.RegisterInput{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		FullName: r.FormValue("full_name"),
		Password: r.FormValue("password"),
	}

	avatarPath, err := stageUpload(r, "avatar", cfg.UploadDir)
	if err != nil {
		writeError(w, log, err)
		return
	}
	coverPath, err := stageUpload(r, "coverImage", cfg.UploadDir)
	if err != nil {
		discardStaged(avatarPath)
		writeError(w, log, err)
		return
	}

	user, err := h.container.GetUserService().Register(r.Context(), input, avatarPath, coverPath)
	if err != nil {
		// The media store removes staged files it touched; re-removing
		// those is a no-op, and anything the service never reached is
		// cleaned up here.
		discardStaged(avatarPath, coverPath)
		writeError(w, log, err)
		return
	}

	writeSuccess(w, log, http.StatusCreated, user, "User registered successfully")
}

// Login handles POST /api/users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, log, errors.NewValidationError("Invalid request body", nil))
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" {
		writeError(w, log, errors.NewValidationError("Username or email is required", nil))
		return
	}

	authService := h.container.GetAuthService()
	user, err := authService.VerifyCredentials(r.Context(), identifier, req.Password)
	if err != nil {
		writeError(w, log, err)
		return
	}

	pair, err := authService.IssueTokenPair(r.Context(), user.ID)
	if err != nil {
		writeError(w, log, err)
		return
	}

	h.setAuthCookies(w, pair)

	writeSuccess(w, log, http.StatusOK, map[string]interface{}{
		"user":         user.Public(),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "User logged in successfully")
}

// Logout handles POST /api/users/logout (auth required).
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, log, errors.NewAuthenticationError("User not authenticated"))
		return
	}

	if err := h.container.GetAuthService().Logout(r.Context(), userID); err != nil {
		writeError(w, log, err)
		return
	}

	h.clearAuthCookies(w)

	writeSuccess(w, log, http.StatusOK, nil, "User logged out")
}

// RefreshToken handles POST /api/users/refresh-token. The refresh token is
// taken from the cookie or, failing that, the request body.
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	presented := ""
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			presented = body.RefreshToken
		}
	}
	if presented == "" {
		writeError(w, log, errors.NewAuthenticationError("Refresh token is required"))
		return
	}

	pair, err := h.container.GetAuthService().RotateRefresh(r.Context(), presented)
	if err != nil {
		writeError(w, log, err)
		return
	}

	h.setAuthCookies(w, pair)

	writeSuccess(w, log, http.StatusOK, pair, "Access token refreshed")
}

// Me handles GET /api/users/me (auth required).
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, log, errors.NewAuthenticationError("User not authenticated"))
		return
	}

	user, err := h.container.GetUserService().GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeSuccess(w, log, http.StatusOK, user, "")
}

func (h *UserHandler) setAuthCookies(w http.ResponseWriter, pair *auth.TokenPair) {
	cfg := h.container.GetConfig()

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  time.Now().Add(cfg.AccessTokenTTL),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  time.Now().Add(cfg.RefreshTokenTTL),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *UserHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
		})
	}
}
