package chat

import "time"

// Session captures a transient anonymous conversation held for one browser session.
type Session struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"personaId"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"createdAt"`
}
