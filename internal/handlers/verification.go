package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/VaibhavSingh085/heroes-server/internal/ledger"
	"github.com/VaibhavSingh085/heroes-server/internal/middleware"
	"github.com/VaibhavSingh085/heroes-server/internal/models"
	"github.com/VaibhavSingh085/heroes-server/internal/services"
)

// VerificationHandler manages the verified-professional workflow: users
// submit requests, admins review them, and the ledger consumes the outcome.
type VerificationHandler struct {
	db       *gorm.DB
	ledger   *ledger.Ledger
	imgbb    *services.ImgBBService
	telegram *services.TelegramService
}

// NewVerificationHandler constructs VerificationHandler.
func NewVerificationHandler(db *gorm.DB, lg *ledger.Ledger, imgbb *services.ImgBBService, telegram *services.TelegramService) *VerificationHandler {
	return &VerificationHandler{db: db, ledger: lg, imgbb: imgbb, telegram: telegram}
}

type submitVerificationRequest struct {
	FullName    string `json:"full_name"`
	Profession  string `json:"profession"`
	IDNumber    string `json:"id_number"`
	Notes       string `json:"notes"`
	ProofBase64 string `json:"proof_base64"`
}

// SubmitRequest files a verification request for the current user. Only one
// pending request may exist per user, and already-verified users are turned
// away.
func (h *VerificationHandler) SubmitRequest(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req submitVerificationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" || req.Profession == "" || req.IDNumber == "" {
		return fiber.NewError(fiber.StatusBadRequest, "full_name, profession, and id_number are required")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	if user.IsVerified {
		return fiber.NewError(fiber.StatusBadRequest, "already verified")
	}

	var existing models.VerificationRequest
	if err := h.db.Where("user_id = ?", userID).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "a verification request is already pending")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	proofURL := ""
	if req.ProofBase64 != "" {
		uploaded, err := h.imgbb.Upload(req.ProofBase64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "proof upload failed")
		}
		proofURL = uploaded
	}

	request := models.VerificationRequest{
		UserID:     userID,
		Email:      user.Email,
		FullName:   req.FullName,
		Profession: req.Profession,
		IDNumber:   req.IDNumber,
		Notes:      req.Notes,
		ProofURL:   proofURL,
		Status:     models.VerificationStatusPending,
	}

	if err := h.db.Create(&request).Error; err != nil {
		return err
	}

	if err := h.telegram.NotifyVerificationRequest(services.VerificationRequestNotification{
		RequestID:  request.ID.String(),
		FullName:   request.FullName,
		Email:      request.Email,
		Profession: request.Profession,
		IDNumber:   request.IDNumber,
		ProofURL:   request.ProofURL,
	}); err != nil {
		log.Printf("verification request alert failed: %v", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    request,
	})
}

// GetOwnRequest returns the current user's verification request, if any.
func (h *VerificationHandler) GetOwnRequest(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var request models.VerificationRequest
	if err := h.db.Where("user_id = ?", userID).First(&request).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "no verification request")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": request})
}

// ListPendingRequests returns the admin review queue.
func (h *VerificationHandler) ListPendingRequests(c *fiber.Ctx) error {
	var requests []models.VerificationRequest
	if err := h.db.Where("status = ?", models.VerificationStatusPending).
		Order("created_at asc").
		Find(&requests).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": requests})
}

type reviewRequest struct {
	Status string `json:"status"`
}

// ReviewRequest applies an admin decision. Approval verifies the user and
// triggers the one-time bonus; either way the request is consumed. Repeated
// delivery of the same decision is a no-op.
func (h *VerificationHandler) ReviewRequest(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Status != models.VerificationStatusApproved && req.Status != models.VerificationStatusRejected {
		return fiber.NewError(fiber.StatusBadRequest, "status must be approved or rejected")
	}

	err = h.ledger.ConsumeVerification(requestID, req.Status == models.VerificationStatusApproved)
	if err != nil && !errors.Is(err, ledger.ErrAlreadyApplied) {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "verification request " + req.Status})
}
