package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eventlocator/internal/config"
	"eventlocator/internal/domain/geo"
	"eventlocator/internal/domain/user"
	"eventlocator/internal/http/middlewares"
	"eventlocator/internal/i18n"
	"eventlocator/internal/security"
)

type UsersStore interface {
	Create(ctx context.Context, req user.CreateRequest) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}

type TokenIssuer interface {
	GenerateToken(userID, email string) (string, error)
}

type AuthHandler struct {
	users UsersStore
	jwt   TokenIssuer
}

func NewAuthHandler(users UsersStore, jwt TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwt,
	}
}

type RegisterRequest struct {
	Email             string   `json:"email" binding:"required,email"`
	Password          string   `json:"password" binding:"required,min=6"`
	FirstName         string   `json:"first_name" binding:"required"`
	LastName          string   `json:"last_name" binding:"required"`
	Latitude          *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude         *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	PreferredLanguage string   `json:"preferred_language" binding:"omitempty,oneof=en es fr"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// location needs both coordinates or neither
	if (req.Latitude == nil) != (req.Longitude == nil) {
		RespondBadRequest(ctx, "latitude and longitude must be provided together", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	var loc *geo.Point

	if req.Latitude != nil {
		p, err := geo.New(*req.Longitude, *req.Latitude)

		if err != nil {
			RespondBadRequest(ctx, err.Error(), nil)
			return
		}
		loc = &p
	}

	u, err := h.users.Create(cctx, user.CreateRequest{
		Email:             req.Email,
		PasswordHash:      hash,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Location:          loc,
		PreferredLanguage: req.PreferredLanguage,
	})

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondError(ctx, http.StatusBadRequest, "email_taken", "Email is already in use.", nil)
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	token, err := h.jwt.GenerateToken(u.ID, u.Email)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	lang := middlewares.LocaleFromContext(ctx)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": i18n.T(lang, "user_registered"),
		"token":   token,
		"user":    u,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	token, err := h.jwt.GenerateToken(foundUser.ID, foundUser.Email)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	lang := middlewares.LocaleFromContext(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"message": i18n.T(lang, "login_success"),
		"token":   token,
		"user":    foundUser,
	})
}

func (h *AuthHandler) GetProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not fetch profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

type UpdateProfileRequest struct {
	FirstName           *string  `json:"first_name" binding:"omitempty,min=1"`
	LastName            *string  `json:"last_name" binding:"omitempty,min=1"`
	Latitude            *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude           *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	PreferredLanguage   *string  `json:"preferred_language" binding:"omitempty,oneof=en es fr"`
	DefaultRadius       *float64 `json:"default_radius" binding:"omitempty,gt=0"`
	PreferredCategories []string `json:"preferredCategories" binding:"omitempty,dive,uuid"`
}

func (h *AuthHandler) UpdateProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if (req.Latitude == nil) != (req.Longitude == nil) {
		RespondBadRequest(ctx, "latitude and longitude must be provided together", nil)
		return
	}

	var loc *geo.Point

	if req.Latitude != nil {
		p, err := geo.New(*req.Longitude, *req.Latitude)

		if err != nil {
			RespondBadRequest(ctx, err.Error(), nil)
			return
		}
		loc = &p
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.UpdateProfile(cctx, userID, user.UpdateProfileRequest{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Location:            loc,
		PreferredLanguage:   req.PreferredLanguage,
		DefaultRadiusKm:     req.DefaultRadius,
		PreferredCategories: req.PreferredCategories,
	})

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not update profile")
		return
	}

	lang := middlewares.LocaleFromContext(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"message": i18n.T(lang, "profile_updated"),
		"user":    u,
	})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

func (h *AuthHandler) ChangePassword(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req ChangePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not change password")
		return
	}

	err = security.CheckPassword(u.PasswordHash, req.CurrentPassword)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Current password is incorrect.")
		return
	}

	hash, err := security.HashPassword(req.NewPassword)

	if err != nil {
		RespondInternal(ctx, "Could not change password")
		return
	}

	err = h.users.UpdatePassword(cctx, userID, hash)

	if err != nil {
		RespondInternal(ctx, "Could not change password")
		return
	}

	lang := middlewares.LocaleFromContext(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"message": i18n.T(lang, "password_changed"),
	})
}
