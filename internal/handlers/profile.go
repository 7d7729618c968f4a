package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/VaibhavSingh085/heroes-server/internal/middleware"
	"github.com/VaibhavSingh085/heroes-server/internal/models"
	"github.com/VaibhavSingh085/heroes-server/internal/services"
	"github.com/VaibhavSingh085/heroes-server/internal/utils"
)

// ProfileHandler manages user profile endpoints.
type ProfileHandler struct {
	db    *gorm.DB
	imgbb *services.ImgBBService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB, imgbb *services.ImgBBService) *ProfileHandler {
	return &ProfileHandler{db: db, imgbb: imgbb}
}

// GetProfile returns the authenticated user's profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":                   user.ID,
			"name":                 user.Name,
			"email":                user.Email,
			"photo_url":            user.PhotoURL,
			"points":               user.Points,
			"is_verified":          user.IsVerified,
			"verification_awarded": user.VerificationAwarded,
			"created_at":           user.CreatedAt,
			"updated_at":           user.UpdatedAt,
		},
	})
}

type updateProfileRequest struct {
	Name string `json:"name"`
}

// UpdateProfile updates user profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	updates := map[string]interface{}{
		"name":       req.Name,
		"updated_at": time.Now(),
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "profile updated"})
}

type uploadPhotoRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// UploadPhoto stores a new profile photo via the image host.
func (h *ProfileHandler) UploadPhoto(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req uploadPhotoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.ImageBase64 == "" {
		return fiber.NewError(fiber.StatusBadRequest, "image_base64 is required")
	}

	photoURL, err := h.imgbb.Upload(req.ImageBase64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "image upload failed")
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).
		Update("photo_url", photoURL).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"photo_url": photoURL,
	})
}

// ListNotifications returns the user's notification feed, newest first.
func (h *ProfileHandler) ListNotifications(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var notifications []models.Notification
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&notifications).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    notifications,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}
