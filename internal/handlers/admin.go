package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/VaibhavSingh085/heroes-server/internal/models"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var verifiedUsers int64
	if err := h.db.Model(&models.User{}).Where("is_verified = ?", true).
		Count(&verifiedUsers).Error; err != nil {
		return err
	}

	var totalComplaints int64
	if err := h.db.Model(&models.Complaint{}).Count(&totalComplaints).Error; err != nil {
		return err
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Complaint{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	complaintsByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		complaintsByStatus[sc.Status] = sc.Count
	}

	var pendingVerifications int64
	if err := h.db.Model(&models.VerificationRequest{}).
		Where("status = ?", models.VerificationStatusPending).
		Count(&pendingVerifications).Error; err != nil {
		return err
	}

	var totalPointEvents int64
	if err := h.db.Model(&models.PointEvent{}).Count(&totalPointEvents).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":           totalUsers,
			"verified_users":        verifiedUsers,
			"total_complaints":      totalComplaints,
			"complaints_by_status":  complaintsByStatus,
			"pending_verifications": pendingVerifications,
			"total_point_events":    totalPointEvents,
		},
	})
}
