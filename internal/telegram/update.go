// Package telegram models the subset of the Telegram Bot API webhook
// envelope that the core reads, plus the platform header conventions used
// during request verification.
package telegram

import "strings"

// SecretTokenHeader carries the webhook secret configured via
// setWebhook(secret_token=...). The name is fixed by platform convention.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Update is the webhook envelope. Only message updates are processed; every
// other update kind is a no-op for this core.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is one chat message inside an update.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      *Chat  `json:"chat,omitempty"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

// User identifies the message sender.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat identifies where the message was posted.
type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
}

// SenderName renders a display name for the requester included in
// notification metadata.
func (m *Message) SenderName() string {
	if m == nil || m.From == nil {
		return ""
	}
	name := m.From.FirstName
	if m.From.LastName != "" {
		name += " " + m.From.LastName
	}
	return strings.TrimSpace(name)
}

// StartParameter returns the payload of a private "/start <param>" message
// and whether the message is one. Group chats never qualify.
func (m *Message) StartParameter() (string, bool) {
	if m == nil || m.Chat == nil || m.Chat.Type != "private" {
		return "", false
	}
	text := strings.TrimSpace(m.Text)
	if !strings.HasPrefix(text, "/start ") {
		return "", false
	}
	param := strings.TrimSpace(strings.TrimPrefix(text, "/start "))
	if param == "" {
		return "", false
	}
	return param, true
}
