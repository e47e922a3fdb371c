package handlers

import (
	"context"
	"errors"
	"net/http"

	userRepo "aroti/database/repository/user"
	"aroti/models"
	"aroti/services/profile"
	"aroti/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProfileService manages the caller's profile, contact details and account.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, userID string, u profile.Update) (*models.User, error)
	Contact(ctx context.Context, userID string) (*models.User, error)
	SaveContact(ctx context.Context, userID string, c profile.Contact) (*models.User, error)
	DeleteAccount(ctx context.Context, userID string) error
}

type UserHandler struct {
	profiles ProfileService
	logger   *zap.Logger
}

func NewUserHandler(profiles ProfileService, logger *zap.Logger) *UserHandler {
	return &UserHandler{profiles: profiles, logger: logger}
}

type contactResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PushPlatform string `json:"pushPlatform,omitempty"`
	HasPushToken bool   `json:"hasPushToken"`
}

func contactOf(u *models.User) contactResponse {
	return contactResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PushPlatform: u.PushPlatform,
		HasPushToken: u.PushToken != "",
	}
}

// profileResponse is the profile card the app renders on its home screen.
type profileResponse struct {
	Name          string   `json:"name"`
	SunSign       string   `json:"sunSign,omitempty"`
	MoonSign      string   `json:"moonSign,omitempty"`
	BirthDate     string   `json:"birthDate,omitempty"`
	BirthTime     string   `json:"birthTime,omitempty"`
	BirthLocation string   `json:"birthLocation,omitempty"`
	Traits        []string `json:"traits"`
	IsPremium     bool     `json:"isPremium"`
}

func profileOf(u *models.User) profileResponse {
	traits := u.Traits
	if traits == nil {
		traits = []string{}
	}
	return profileResponse{
		Name:          u.Name,
		SunSign:       u.SunSign,
		MoonSign:      u.MoonSign,
		BirthDate:     u.BirthDate,
		BirthTime:     u.BirthTime,
		BirthLocation: u.BirthLocation,
		Traits:        traits,
		IsPremium:     u.IsPremium,
	}
}

// GetMe handles GET /api/users/me.
func (h *UserHandler) GetMe(c *gin.Context) {
	logger := getLogger(c, h.logger)

	user, err := h.profiles.Contact(c.Request.Context(), userID(c))
	if errors.Is(err, userRepo.ErrNotFound) {
		utils.JSONError(c, logger, http.StatusNotFound, "No contact details saved", "")
		return
	}
	if err != nil {
		utils.JSONError(c, logger, http.StatusInternalServerError, "Failed to load contact details", err.Error())
		return
	}
	c.JSON(http.StatusOK, contactOf(user))
}

type contactRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email" binding:"omitempty,email"`
	PushToken    string `json:"pushToken"`
	PushPlatform string `json:"pushPlatform" binding:"omitempty,oneof=fcm expo"`
}

// UpdateMe handles PUT /api/users/me: it stores where notifications reach the caller.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	logger := getLogger(c, h.logger)

	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid contact details", err.Error())
		return
	}

	user, err := h.profiles.SaveContact(c.Request.Context(), userID(c), profile.Contact(req))
	if err != nil {
		utils.JSONError(c, logger, http.StatusInternalServerError, "Failed to save contact details", err.Error())
		return
	}
	logger.Info("Contact details updated", zap.String("userId", user.ID), zap.Bool("push", user.PushToken != ""))
	c.JSON(http.StatusOK, contactOf(user))
}

// GetProfile handles GET /api/user/profile. A first read creates the profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	logger := getLogger(c, h.logger)

	user, err := h.profiles.Get(c.Request.Context(), userID(c))
	if err != nil {
		utils.JSONError(c, logger, http.StatusInternalServerError, "Failed to load profile", err.Error())
		return
	}
	c.JSON(http.StatusOK, profileOf(user))
}

type profileRequest struct {
	Name     string `json:"name" binding:"max=100"`
	Location string `json:"location" binding:"max=200"`
}

// UpdateProfile handles PUT /api/user/profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	logger := getLogger(c, h.logger)

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid profile", err.Error())
		return
	}
	user, err := h.profiles.Update(c.Request.Context(), userID(c), profile.Update(req))
	if err != nil {
		utils.JSONError(c, logger, http.StatusInternalServerError, "Failed to update profile", err.Error())
		return
	}
	c.JSON(http.StatusOK, profileOf(user))
}

// DeleteAccount handles DELETE /api/user/account.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	logger := getLogger(c, h.logger)

	if err := h.profiles.DeleteAccount(c.Request.Context(), userID(c)); err != nil {
		utils.JSONError(c, logger, http.StatusInternalServerError, "Failed to delete account", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}
