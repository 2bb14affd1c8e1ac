package model

import "time"

const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// Message is append-only. PersonaID is NULL only for human input.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;index" json:"session_id"`
	Role      string    `gorm:"size:16;not null;index" json:"role"`
	PersonaID *string   `gorm:"size:36;index" json:"persona_id,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
