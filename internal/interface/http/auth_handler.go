package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/videotube/videotube-api/internal/application"
	"github.com/videotube/videotube-api/internal/domain/entity"
	"github.com/videotube/videotube-api/pkg/helpers"
	"github.com/videotube/videotube-api/pkg/response"
	"github.com/videotube/videotube-api/pkg/validation"
)

// AuthHandler exposes the session-credential lifecycle: registration, login,
// logout, refresh-token rotation, and the password-reset flow.
type AuthHandler struct {
	Svc     *userapp.Service
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewAuthHandler(svc *userapp.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

// userProjection is the public view of a user: no password hash, no
// refresh/reset state.
func userProjection(u *entity.User) gin.H {
	return gin.H{
		"id":              u.ID,
		"username":        u.Username,
		"email":           u.Email,
		"full_name":       u.FullName,
		"avatar_url":      u.AvatarURL,
		"cover_image_url": u.CoverImageURL,
		"created_at":      u.CreatedAt,
		"updated_at":      u.UpdatedAt,
	}
}

type registerRequest struct {
	Username      string `json:"username" binding:"required,uname"`
	Email         string `json:"email" binding:"required,email"`
	FullName      string `json:"full_name" binding:"required"`
	Password      string `json:"password" binding:"required,pwd"`
	AvatarURL     string `json:"avatar_url" binding:"omitempty,url"`
	CoverImageURL string `json:"cover_image_url" binding:"omitempty,url"`
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type resetInitRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetConfirmRequest struct {
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,pwd"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"old_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,pwd"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// Register POST /api/users/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		Username:      req.Username,
		Email:         req.Email,
		FullName:      req.FullName,
		Password:      req.Password,
		AvatarURL:     req.AvatarURL,
		CoverImageURL: req.CoverImageURL,
	})
	if err != nil {
		if errors.Is(err, userapp.ErrConflict) {
			response.Error[any](c, http.StatusConflict, "username or email already exists", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to register user", nil)
		return
	}
	response.Success(c, http.StatusCreated, userProjection(u), "user registered", nil)
}

// Login POST /api/users/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, userapp.ErrInvalidCredentials) {
			response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "login failed", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"user":          userProjection(u),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "login successful", gin.H{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

// Logout POST /api/users/logout (auth required)
func (h *AuthHandler) Logout(c *gin.Context) {
	uid := c.GetString("userID")
	if err := h.Svc.Logout(c.Request.Context(), uid); err != nil {
		response.Error[any](c, http.StatusInternalServerError, "logout failed", nil)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// Refresh POST /api/users/refresh-token
// Accepts the refresh token from the cookie or the body; cookie wins.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(helpers.RefreshCookie)
	if token == "" {
		var req refreshRequest
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}
	if token == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	_, pair, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, helpers.ErrTokenExpired):
			response.Error[any](c, http.StatusUnauthorized, "refresh token expired", nil)
		case errors.Is(err, helpers.ErrTokenInvalid):
			response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		case errors.Is(err, userapp.ErrTokenStale):
			response.Error[any](c, http.StatusUnauthorized, "refresh token no longer valid", nil)
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusUnauthorized, "user not found", nil)
		default:
			response.Error[any](c, http.StatusInternalServerError, "refresh failed", nil)
		}
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "token refreshed", gin.H{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

// ResetInit POST /api/users/forgot-password
// Always answers with a uniform success so the endpoint cannot be used to
// probe which emails have accounts.
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req resetInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to start password reset", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "if the email exists, a reset link has been sent", nil)
}

// ResetConfirm PATCH /api/users/reset-password/:token
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	token := c.Param("token")
	var req resetConfirmRequest
	if token != "" {
		// Token in the URL; only passwords come from the body.
		type bodyOnly struct {
			NewPassword     string `json:"new_password" binding:"required,pwd"`
			ConfirmPassword string `json:"confirm_password" binding:"required"`
		}
		var b bodyOnly
		if err := c.ShouldBindJSON(&b); err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
			return
		}
		req = resetConfirmRequest{Token: token, NewPassword: b.NewPassword, ConfirmPassword: b.ConfirmPassword}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
			return
		}
	}
	err := h.Svc.ConsumePasswordReset(c.Request.Context(), req.Token, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrPasswordMismatch):
			response.Error[any](c, http.StatusBadRequest, "passwords do not match", nil)
		case errors.Is(err, userapp.ErrResetTokenInvalid):
			response.Error[any](c, http.StatusBadRequest, "invalid or expired token", nil)
		default:
			response.Error[any](c, http.StatusInternalServerError, "failed to reset password", nil)
		}
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}

// ChangePassword POST /api/users/change-password (auth required)
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	uid := c.GetString("userID")
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Svc.ChangePassword(c.Request.Context(), uid, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrPasswordMismatch):
			response.Error[any](c, http.StatusBadRequest, "passwords do not match", nil)
		case errors.Is(err, userapp.ErrInvalidCredentials):
			response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
		default:
			response.Error[any](c, http.StatusInternalServerError, "failed to change password", nil)
		}
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"changed": true}, "password changed", nil)
}
