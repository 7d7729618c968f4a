package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/VaibhavSingh085/heroes-server/internal/config"
	"github.com/VaibhavSingh085/heroes-server/internal/database"
	"github.com/VaibhavSingh085/heroes-server/internal/models"
	"github.com/VaibhavSingh085/heroes-server/internal/routes"
	"github.com/VaibhavSingh085/heroes-server/internal/utils"
)

const testAdminKey = "test-admin-key"

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		AppPort:              "0",
		JWTSecret:            "test-secret",
		TokenExpires:         time.Hour,
		AdminAPIKey:          testAdminKey,
		LeaderboardCacheTTL:  30 * time.Second,
		EditRequestMinPoints: 10,
		SpamVoteMinPoints:    20,
		SpamVoteThreshold:    2,
		NearbyRadiusKm:       10,
	}

	app := fiber.New()
	routes.Register(app, db, cfg)

	return app, db, cfg
}

func seedUser(t *testing.T, db *gorm.DB, name string, points int, verified bool) *models.User {
	t.Helper()

	user := &models.User{
		Name:          name,
		Email:         fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash:  "x",
		EmailVerified: true,
		Points:        points,
		IsVerified:    verified,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func tokenFor(t *testing.T, cfg *config.Config, user *models.User) string {
	t.Helper()

	token, err := utils.GenerateToken(cfg.JWTSecret, user.ID, cfg.TokenExpires)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var parsed map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &parsed)
	}

	return resp, parsed
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	app, db, _ := newTestApp(t)

	resp, _ := doJSON(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"name":     "Asha",
		"email":    "asha@example.com",
		"password": "hunter2secret",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Login is gated on email confirmation.
	resp, _ = doJSON(t, app, "POST", "/api/auth/login", "", fiber.Map{
		"email":    "asha@example.com",
		"password": "hunter2secret",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var verification models.EmailVerification
	require.NoError(t, db.Where("email = ?", "asha@example.com").
		Order("created_at desc").First(&verification).Error)

	resp, _ = doJSON(t, app, "POST", "/api/auth/verify", "", fiber.Map{
		"email": "asha@example.com",
		"code":  verification.Code,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, "POST", "/api/auth/login", "", fiber.Map{
		"email":    "asha@example.com",
		"password": "hunter2secret",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app, _, _ := newTestApp(t)

	payload := fiber.Map{"name": "Asha", "email": "asha@example.com", "password": "hunter2secret"}

	resp, _ := doJSON(t, app, "POST", "/api/auth/register", "", payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/auth/register", "", payload)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestVolunteerAndAcceptFlow(t *testing.T) {
	app, db, cfg := newTestApp(t)

	creator := seedUser(t, db, "Asha", 0, false)
	helper := seedUser(t, db, "Bilal", 0, false)

	resp, body := doJSON(t, app, "POST", "/api/complaints", tokenFor(t, cfg, creator), fiber.Map{
		"title":     "Flat tire",
		"latitude":  12.9,
		"longitude": 77.6,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	complaintID := body["data"].(map[string]interface{})["id"].(string)

	// Volunteer once.
	resp, body = doJSON(t, app, "POST", "/api/complaints/"+complaintID+"/helpers", tokenFor(t, cfg, helper), nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	entry := body["data"].(map[string]interface{})
	assert.Equal(t, "pending", entry["status"])
	assert.Equal(t, helper.ID.String(), entry["user_id"])

	// A second application from the same user is refused.
	resp, _ = doJSON(t, app, "POST", "/api/complaints/"+complaintID+"/helpers", tokenFor(t, cfg, helper), nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Only one entry exists.
	var helperCount int64
	require.NoError(t, db.Model(&models.ComplaintHelper{}).
		Where("complaint_id = ? AND user_id = ?", complaintID, helper.ID).
		Count(&helperCount).Error)
	assert.EqualValues(t, 1, helperCount)

	// The creator accepts.
	resp, _ = doJSON(t, app, "POST",
		"/api/complaints/"+complaintID+"/helpers/"+helper.ID.String()+"/decision",
		tokenFor(t, cfg, creator), fiber.Map{"status": "accepted"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, "GET", "/api/profile", tokenFor(t, cfg, helper), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 20, body["data"].(map[string]interface{})["points"])

	resp, body = doJSON(t, app, "GET", "/api/profile/notifications", tokenFor(t, cfg, helper), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	notifications := body["data"].([]interface{})
	require.Len(t, notifications, 1)
	message := notifications[0].(map[string]interface{})["message"].(string)
	assert.Contains(t, message, "accepted")

	// A repeated decision is a conflict and does not re-grant.
	resp, _ = doJSON(t, app, "POST",
		"/api/complaints/"+complaintID+"/helpers/"+helper.ID.String()+"/decision",
		tokenFor(t, cfg, creator), fiber.Map{"status": "accepted"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, body = doJSON(t, app, "GET", "/api/profile", tokenFor(t, cfg, helper), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 20, body["data"].(map[string]interface{})["points"])
}

func TestVolunteerRestrictions(t *testing.T) {
	app, db, cfg := newTestApp(t)

	creator := seedUser(t, db, "Asha", 0, false)
	outsider := seedUser(t, db, "Bilal", 0, false)

	resp, body := doJSON(t, app, "POST", "/api/complaints", tokenFor(t, cfg, creator), fiber.Map{
		"title":     "Flat tire",
		"latitude":  12.9,
		"longitude": 77.6,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	complaintID := body["data"].(map[string]interface{})["id"].(string)

	// Creators cannot volunteer on their own complaint.
	resp, _ = doJSON(t, app, "POST", "/api/complaints/"+complaintID+"/helpers", tokenFor(t, cfg, creator), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Non-creators cannot see the helper list.
	resp, _ = doJSON(t, app, "GET", "/api/complaints/"+complaintID+"/helpers", tokenFor(t, cfg, outsider), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Decisions are creator-only.
	resp, _ = doJSON(t, app, "POST", "/api/complaints/"+complaintID+"/helpers", tokenFor(t, cfg, outsider), nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, app, "POST",
		"/api/complaints/"+complaintID+"/helpers/"+outsider.ID.String()+"/decision",
		tokenFor(t, cfg, outsider), fiber.Map{"status": "accepted"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSpamVotesDeleteComplaintAtThreshold(t *testing.T) {
	app, db, cfg := newTestApp(t)

	creator := seedUser(t, db, "Asha", 0, false)
	voter1 := seedUser(t, db, "Bilal", 50, false)
	voter2 := seedUser(t, db, "Chitra", 50, false)
	broke := seedUser(t, db, "Deepa", 5, false)

	resp, body := doJSON(t, app, "POST", "/api/complaints", tokenFor(t, cfg, creator), fiber.Map{
		"title":     "Free money here",
		"latitude":  12.9,
		"longitude": 77.6,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	complaintID := body["data"].(map[string]interface{})["id"].(string)

	// Below the points threshold, voting is refused.
	resp, _ = doJSON(t, app, "POST", "/api/complaints/"+complaintID+"/spam", tokenFor(t, cfg, broke), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/complaints/"+complaintID+"/spam", tokenFor(t, cfg, voter1), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The same voter cannot vote twice.
	resp, _ = doJSON(t, app, "POST", "/api/complaints/"+complaintID+"/spam", tokenFor(t, cfg, voter1), nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// A distinct voter pushes the count to the threshold and the complaint
	// is removed outright.
	resp, body = doJSON(t, app, "POST", "/api/complaints/"+complaintID+"/spam", tokenFor(t, cfg, voter2), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["deleted"])

	resp, _ = doJSON(t, app, "GET", "/api/complaints/"+complaintID, tokenFor(t, cfg, voter1), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// No further mutation on the deleted complaint succeeds.
	resp, _ = doJSON(t, app, "POST", "/api/complaints/"+complaintID+"/helpers", tokenFor(t, cfg, voter1), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// The creator was told.
	var notifications []models.Notification
	require.NoError(t, db.Where("user_id = ?", creator.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, "spam")
}

func TestEditRequestFlow(t *testing.T) {
	app, db, cfg := newTestApp(t)

	creator := seedUser(t, db, "Asha", 0, false)
	editor := seedUser(t, db, "Chitra", 50, false)
	broke := seedUser(t, db, "Deepa", 5, false)

	resp, body := doJSON(t, app, "POST", "/api/complaints", tokenFor(t, cfg, creator), fiber.Map{
		"title":     "Flat tire",
		"latitude":  12.9,
		"longitude": 77.6,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	complaintID := body["data"].(map[string]interface{})["id"].(string)

	// Below the eligibility threshold edits are refused.
	resp, _ = doJSON(t, app, "POST", "/api/complaints/"+complaintID+"/edit-requests",
		tokenFor(t, cfg, broke), fiber.Map{"title": "Flat tire - urgent"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = doJSON(t, app, "POST", "/api/complaints/"+complaintID+"/edit-requests",
		tokenFor(t, cfg, editor), fiber.Map{"title": "Flat tire - urgent"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	requestID := body["data"].(map[string]interface{})["id"].(string)

	// The creator was notified of the pending request.
	var creatorNotes []models.Notification
	require.NoError(t, db.Where("user_id = ?", creator.ID).Find(&creatorNotes).Error)
	require.Len(t, creatorNotes, 1)
	assert.Contains(t, creatorNotes[0].Message, "edit")

	// Rejection leaves the complaint untouched and costs the editor points.
	resp, _ = doJSON(t, app, "POST",
		"/api/complaints/"+complaintID+"/edit-requests/"+requestID+"/decision",
		tokenFor(t, cfg, creator), fiber.Map{"status": "rejected"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var complaint models.Complaint
	require.NoError(t, db.First(&complaint, "id = ?", complaintID).Error)
	assert.Equal(t, "Flat tire", complaint.Title)

	var updatedEditor models.User
	require.NoError(t, db.First(&updatedEditor, "id = ?", editor.ID).Error)
	assert.Equal(t, 48, updatedEditor.Points)
}

func TestNearbyFilterForUnverifiedViewers(t *testing.T) {
	app, db, cfg := newTestApp(t)

	creator := seedUser(t, db, "Asha", 0, false)
	unverified := seedUser(t, db, "Bilal", 0, false)
	verified := seedUser(t, db, "Chitra", 0, true)

	for _, c := range []struct {
		title    string
		lat, lng float64
	}{
		{"Flat tire", 12.9, 77.6},
		{"Lost dog", 28.6, 77.2}, // ~1700 km away
	} {
		resp, _ := doJSON(t, app, "POST", "/api/complaints", tokenFor(t, cfg, creator), fiber.Map{
			"title":     c.title,
			"latitude":  c.lat,
			"longitude": c.lng,
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	// Unverified viewers must report a position.
	resp, _ := doJSON(t, app, "GET", "/api/complaints", tokenFor(t, cfg, unverified), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, app, "GET", "/api/complaints?lat=12.9&lng=77.6", tokenFor(t, cfg, unverified), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Flat tire", data[0].(map[string]interface{})["title"])

	// Verified viewers see everything.
	resp, body = doJSON(t, app, "GET", "/api/complaints", tokenFor(t, cfg, verified), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"].([]interface{}), 2)
}

func TestResolveComplaint(t *testing.T) {
	app, db, cfg := newTestApp(t)

	creator := seedUser(t, db, "Asha", 0, true)
	outsider := seedUser(t, db, "Bilal", 0, true)

	resp, body := doJSON(t, app, "POST", "/api/complaints", tokenFor(t, cfg, creator), fiber.Map{
		"title":     "Flat tire",
		"latitude":  12.9,
		"longitude": 77.6,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	complaintID := body["data"].(map[string]interface{})["id"].(string)

	resp, _ = doJSON(t, app, "PATCH", "/api/complaints/"+complaintID+"/resolve", tokenFor(t, cfg, outsider), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, "PATCH", "/api/complaints/"+complaintID+"/resolve", tokenFor(t, cfg, creator), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var complaint models.Complaint
	require.NoError(t, db.First(&complaint, "id = ?", complaintID).Error)
	assert.Equal(t, models.ComplaintStatusResolved, complaint.Status)

	// Resolved complaints no longer accept volunteers.
	resp, _ = doJSON(t, app, "POST", "/api/complaints/"+complaintID+"/helpers", tokenFor(t, cfg, outsider), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestVerificationReviewFlow(t *testing.T) {
	app, db, cfg := newTestApp(t)

	user := seedUser(t, db, "Deepa", 0, false)

	resp, body := doJSON(t, app, "POST", "/api/verification", tokenFor(t, cfg, user), fiber.Map{
		"full_name":  "Deepa R",
		"profession": "Doctor",
		"id_number":  "MED-1234",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	requestID := body["data"].(map[string]interface{})["id"].(string)

	// One pending request per user.
	resp, _ = doJSON(t, app, "POST", "/api/verification", tokenFor(t, cfg, user), fiber.Map{
		"full_name":  "Deepa R",
		"profession": "Doctor",
		"id_number":  "MED-1234",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Admin endpoints demand the shared key.
	req := httptest.NewRequest("GET", "/api/admin/verification-requests", nil)
	req.Header.Set("X-Admin-Key", "wrong")
	adminResp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, adminResp.StatusCode)

	req = httptest.NewRequest("GET", "/api/admin/verification-requests", nil)
	req.Header.Set("X-Admin-Key", testAdminKey)
	adminResp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, adminResp.StatusCode)

	// Approve the request.
	payload, err := json.Marshal(fiber.Map{"status": "approved"})
	require.NoError(t, err)
	req = httptest.NewRequest("POST", "/api/admin/verification-requests/"+requestID+"/review", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Key", testAdminKey)
	adminResp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, adminResp.StatusCode)

	resp, body = doJSON(t, app, "GET", "/api/profile", tokenFor(t, cfg, user), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["is_verified"])
	assert.Equal(t, true, data["verification_awarded"])
	assert.EqualValues(t, 100, data["points"])

	// Replaying the review changes nothing.
	req = httptest.NewRequest("POST", "/api/admin/verification-requests/"+requestID+"/review", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Key", testAdminKey)
	adminResp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, adminResp.StatusCode)

	resp, body = doJSON(t, app, "GET", "/api/profile", tokenFor(t, cfg, user), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 100, body["data"].(map[string]interface{})["points"])
}

func TestLeaderboardOrdering(t *testing.T) {
	app, db, cfg := newTestApp(t)

	seedUser(t, db, "Low", 5, false)
	top := seedUser(t, db, "Top", 120, true)
	seedUser(t, db, "Mid", 40, false)

	resp, body := doJSON(t, app, "GET", "/api/leaderboard", tokenFor(t, cfg, top), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	entries := body["data"].([]interface{})
	require.Len(t, entries, 3)

	first := entries[0].(map[string]interface{})
	assert.Equal(t, "Top", first["name"])
	assert.EqualValues(t, 1, first["rank"])
	assert.EqualValues(t, 120, first["points"])

	second := entries[1].(map[string]interface{})
	assert.Equal(t, "Mid", second["name"])

	third := entries[2].(map[string]interface{})
	assert.Equal(t, "Low", third["name"])
}

func TestCreateComplaintValidation(t *testing.T) {
	app, db, cfg := newTestApp(t)

	user := seedUser(t, db, "Asha", 0, false)
	token := tokenFor(t, cfg, user)

	resp, _ := doJSON(t, app, "POST", "/api/complaints", token, fiber.Map{
		"latitude":  12.9,
		"longitude": 77.6,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	longTitle := make([]byte, 121)
	for i := range longTitle {
		longTitle[i] = 'a'
	}
	resp, _ = doJSON(t, app, "POST", "/api/complaints", token, fiber.Map{
		"title":     string(longTitle),
		"latitude":  12.9,
		"longitude": 77.6,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/complaints", token, fiber.Map{
		"title":     "Flat tire",
		"latitude":  123.0,
		"longitude": 77.6,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Requests without a token never reach the handler.
	resp, _ = doJSON(t, app, "POST", "/api/complaints", "", fiber.Map{
		"title":     "Flat tire",
		"latitude":  12.9,
		"longitude": 77.6,
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
