package handlers

import (
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/VaibhavSingh085/heroes-server/internal/config"
	"github.com/VaibhavSingh085/heroes-server/internal/middleware"
	"github.com/VaibhavSingh085/heroes-server/internal/models"
	"github.com/VaibhavSingh085/heroes-server/internal/services"
	"github.com/VaibhavSingh085/heroes-server/internal/utils"
)

const maxTitleLength = 120

// ComplaintHandler manages complaint endpoints.
type ComplaintHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	imgbb    *services.ImgBBService
	telegram *services.TelegramService
}

// NewComplaintHandler constructs ComplaintHandler.
func NewComplaintHandler(db *gorm.DB, cfg *config.Config, imgbb *services.ImgBBService, telegram *services.TelegramService) *ComplaintHandler {
	return &ComplaintHandler{db: db, cfg: cfg, imgbb: imgbb, telegram: telegram}
}

type createComplaintRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	ContactNumber string  `json:"contact_number"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ImageBase64   string  `json:"image_base64"`
}

// CreateComplaint registers a location-tagged help request.
func (h *ComplaintHandler) CreateComplaint(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title is required")
	}
	if len(req.Title) > maxTitleLength {
		return fiber.NewError(fiber.StatusBadRequest, "title must be less than 120 characters")
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid coordinates")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	imageURL := ""
	if req.ImageBase64 != "" {
		uploaded, err := h.imgbb.Upload(req.ImageBase64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "image upload failed")
		}
		imageURL = uploaded
	}

	complaint := models.Complaint{
		UserID:        userID,
		Name:          user.Name,
		ContactNumber: req.ContactNumber,
		Title:         req.Title,
		Description:   req.Description,
		ImageURL:      imageURL,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Status:        models.ComplaintStatusOpen,
	}

	if err := h.db.Create(&complaint).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    complaint,
	})
}

// ListComplaints returns open complaints. Unverified viewers only see
// complaints within the configured radius of their reported position.
func (h *ComplaintHandler) ListComplaints(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var viewer models.User
	if err := h.db.First(&viewer, "id = ?", userID).Error; err != nil {
		return err
	}

	var complaints []models.Complaint
	if err := h.db.Where("status = ?", models.ComplaintStatusOpen).
		Order("created_at desc").
		Find(&complaints).Error; err != nil {
		return err
	}

	if !viewer.IsVerified {
		lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
		lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
		if latErr != nil || lngErr != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng query params are required")
		}

		nearby := complaints[:0]
		for _, complaint := range complaints {
			if utils.HaversineKm(lat, lng, complaint.Latitude, complaint.Longitude) <= h.cfg.NearbyRadiusKm {
				nearby = append(nearby, complaint)
			}
		}
		complaints = nearby
	}

	pg := utils.ParsePagination(c)
	total := len(complaints)
	start := pg.Offset
	if start > total {
		start = total
	}
	end := start + pg.Limit
	if end > total {
		end = total
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    complaints[start:end],
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetComplaint returns one complaint with its helpers.
func (h *ComplaintHandler) GetComplaint(c *fiber.Ctx) error {
	complaintID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var complaint models.Complaint
	if err := h.db.Preload("Helpers").First(&complaint, "id = ?", complaintID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "complaint not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    complaint,
	})
}

// ResolveComplaint marks a complaint resolved. Creator only.
func (h *ComplaintHandler) ResolveComplaint(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	complaintID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var complaint models.Complaint
	if err := h.db.First(&complaint, "id = ?", complaintID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "complaint not found")
		}
		return err
	}

	if complaint.UserID != userID {
		return fiber.NewError(fiber.StatusForbidden, "only the creator can resolve a complaint")
	}

	if err := h.db.Model(&models.Complaint{}).Where("id = ?", complaintID).
		Update("status", models.ComplaintStatusResolved).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "complaint resolved"})
}

// DeleteComplaint removes a complaint and its children. Creator only.
func (h *ComplaintHandler) DeleteComplaint(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	complaintID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var complaint models.Complaint
	if err := h.db.First(&complaint, "id = ?", complaintID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "complaint not found")
		}
		return err
	}

	if complaint.UserID != userID {
		return fiber.NewError(fiber.StatusForbidden, "only the creator can delete a complaint")
	}

	if err := deleteComplaintTree(h.db, complaintID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "complaint deleted"})
}

// MarkSpam records a spam vote from an eligible voter. Reaching the
// configured threshold deletes the complaint outright.
func (h *ComplaintHandler) MarkSpam(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	complaintID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var voter models.User
	if err := h.db.First(&voter, "id = ?", userID).Error; err != nil {
		return err
	}

	if voter.Points <= h.cfg.SpamVoteMinPoints {
		return fiber.NewError(fiber.StatusForbidden, "not enough points to mark spam")
	}

	var complaint models.Complaint
	if err := h.db.First(&complaint, "id = ?", complaintID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "complaint not found")
		}
		return err
	}

	if complaint.UserID == userID {
		return fiber.NewError(fiber.StatusBadRequest, "cannot mark your own complaint as spam")
	}

	var existing models.SpamVote
	if err := h.db.Where("complaint_id = ? AND user_id = ?", complaintID, userID).
		First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "already voted")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	deleted := false
	var votes int64

	err = h.db.Transaction(func(tx *gorm.DB) error {
		vote := models.SpamVote{ComplaintID: complaintID, UserID: userID}
		if err := tx.Create(&vote).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.SpamVote{}).
			Where("complaint_id = ?", complaintID).
			Count(&votes).Error; err != nil {
			return err
		}

		if votes < int64(h.cfg.SpamVoteThreshold) {
			return nil
		}

		if err := deleteComplaintTree(tx, complaintID); err != nil {
			return err
		}

		deleted = true
		return tx.Create(&models.Notification{
			UserID:  complaint.UserID,
			Message: "Your complaint \"" + complaint.Title + "\" was removed after being reported as spam.",
		}).Error
	})
	if err != nil {
		return err
	}

	if deleted {
		if err := h.telegram.NotifySpamDeletion(complaint.Title, int(votes)); err != nil {
			log.Printf("spam deletion alert failed: %v", err)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"votes":   votes,
		"deleted": deleted,
	})
}

// deleteComplaintTree removes a complaint and all dependent rows. Children
// are removed explicitly rather than relying on FK cascades.
func deleteComplaintTree(tx *gorm.DB, complaintID uuid.UUID) error {
	if err := tx.Where("complaint_id = ?", complaintID).Delete(&models.ComplaintHelper{}).Error; err != nil {
		return err
	}
	if err := tx.Where("complaint_id = ?", complaintID).Delete(&models.EditRequest{}).Error; err != nil {
		return err
	}
	if err := tx.Where("complaint_id = ?", complaintID).Delete(&models.SpamVote{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Complaint{}, "id = ?", complaintID).Error
}
