package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/videotube/videotube-api/internal/application"
	"github.com/videotube/videotube-api/internal/interface/middleware"
	"github.com/videotube/videotube-api/pkg/helpers"
	"github.com/videotube/videotube-api/pkg/response"
	"github.com/videotube/videotube-api/pkg/validation"
)

// UserHandler serves the profile side of the account: current identity,
// account details, and media references.
type UserHandler struct {
	Svc     *userapp.Service
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type updateAccountRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email" binding:"omitempty,email"`
}

type updateMediaRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// CurrentUser GET /api/users/current (auth required)
func (h *UserHandler) CurrentUser(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	response.Success(c, http.StatusOK, userProjection(u), "current user", nil)
}

// UpdateAccount PATCH /api/users/update-account (auth required)
func (h *UserHandler) UpdateAccount(c *gin.Context) {
	uid := c.GetString("userID")
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, userapp.UpdateProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrConflict):
			response.Error[any](c, http.StatusConflict, "email already in use", nil)
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
		default:
			response.Error[any](c, http.StatusInternalServerError, "failed to update account", nil)
		}
		return
	}
	response.Success(c, http.StatusOK, userProjection(u), "account updated", nil)
}

// UpdateAvatar PATCH /api/users/update-avatar (auth required)
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	uid := c.GetString("userID")
	var req updateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateAvatar(c.Request.Context(), uid, req.URL)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to update avatar", nil)
		return
	}
	response.Success(c, http.StatusOK, userProjection(u), "avatar updated", nil)
}

// UpdateCoverImage PATCH /api/users/update-coverimage (auth required)
func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	uid := c.GetString("userID")
	var req updateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateCoverImage(c.Request.Context(), uid, req.URL)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to update cover image", nil)
		return
	}
	response.Success(c, http.StatusOK, userProjection(u), "cover image updated", nil)
}

// DeleteAccount DELETE /api/users/delete-account (auth required)
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	uid := c.GetString("userID")
	if err := h.Svc.DeleteAccount(c.Request.Context(), uid); err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to delete account", nil)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "account deleted", nil)
}
