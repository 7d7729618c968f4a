package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/VaibhavSingh085/heroes-server/internal/models"
	"github.com/VaibhavSingh085/heroes-server/internal/services"
	"github.com/VaibhavSingh085/heroes-server/internal/utils"
)

// LeaderboardHandler serves the points ranking.
type LeaderboardHandler struct {
	db    *gorm.DB
	cache *services.LeaderboardCache
}

// NewLeaderboardHandler constructs LeaderboardHandler.
func NewLeaderboardHandler(db *gorm.DB, cache *services.LeaderboardCache) *LeaderboardHandler {
	return &LeaderboardHandler{db: db, cache: cache}
}

type leaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	PhotoURL   string `json:"photo_url"`
	Points     int    `json:"points"`
	IsVerified bool   `json:"is_verified"`
}

// GetLeaderboard returns users ordered by points, highest first. Pages are
// served from the cache when Redis is configured.
func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	if payload, ok := h.cache.Get(c.Context(), pg.Page, pg.Limit); ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(payload)
	}

	var total int64
	if err := h.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := h.db.Order("points desc, created_at asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	entries := make([]leaderboardEntry, 0, len(users))
	for i, user := range users {
		entries = append(entries, leaderboardEntry{
			Rank:       pg.Offset + i + 1,
			UserID:     user.ID.String(),
			Name:       user.Name,
			PhotoURL:   user.PhotoURL,
			Points:     user.Points,
			IsVerified: user.IsVerified,
		})
	}

	response := fiber.Map{
		"success": true,
		"data":    entries,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return err
	}

	h.cache.Set(c.Context(), pg.Page, pg.Limit, payload)

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}
