package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// VerificationRequestNotification contains verification request data for
// the admin alert.
type VerificationRequestNotification struct {
	RequestID  string
	FullName   string
	Email      string
	Profession string
	IDNumber   string
	ProofURL   string
}

// NotifyVerificationRequest alerts the admin chat about a new verification
// request awaiting review.
func (s *TelegramService) NotifyVerificationRequest(req VerificationRequestNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	proof := "no proof attached"
	if req.ProofURL != "" {
		proof = req.ProofURL
	}

	message := fmt.Sprintf(`<b>🪪 NEW VERIFICATION REQUEST</b>
<b>Request:</b> %s
<b>Name:</b> %s
<b>Email:</b> %s
<b>Profession:</b> %s
<b>ID number:</b> %s
<b>Proof:</b> %s`,
		req.RequestID,
		req.FullName,
		req.Email,
		req.Profession,
		req.IDNumber,
		proof,
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}

// NotifySpamDeletion alerts the admin chat that a complaint crossed the
// spam-vote threshold and was removed.
func (s *TelegramService) NotifySpamDeletion(title string, votes int) error {
	if s.adminChatID == "" {
		return nil
	}

	message := fmt.Sprintf(`<b>🗑 COMPLAINT REMOVED AS SPAM</b>
<b>Title:</b> %s
<b>Votes:</b> %d`,
		title,
		votes,
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}
