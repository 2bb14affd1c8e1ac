package model

import "time"

// SessionMember links a session to a persona. The composite unique index is
// the source of truth for duplicate membership; service-level checks are an
// optimization only.
type SessionMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;uniqueIndex:uniq_session_persona" json:"session_id"`
	PersonaID string    `gorm:"size:36;not null;uniqueIndex:uniq_session_persona" json:"persona_id"`
	CreatedAt time.Time `json:"created_at"`
}
