package model

import "time"

type BusinessRole string

const (
	RoleQuestion       BusinessRole = "question"
	RoleAnswer         BusinessRole = "answer"
	RoleContentCreator BusinessRole = "content_creator"
	RoleHidden         BusinessRole = "hidden"
)

// ValidBusinessRole reports whether role is one of the four known tags.
func ValidBusinessRole(role BusinessRole) bool {
	switch role {
	case RoleQuestion, RoleAnswer, RoleContentCreator, RoleHidden:
		return true
	}
	return false
}

type Persona struct {
	ID           string       `gorm:"primaryKey;size:36" json:"id"`
	Name         string       `gorm:"size:128;not null" json:"name"`
	Description  string       `gorm:"size:512" json:"description"`
	Personality  string       `gorm:"type:text;not null" json:"personality"`
	BaseURL      string       `gorm:"size:255" json:"base_url"`
	APIKey       string       `gorm:"size:255" json:"-"`
	ModelName    string       `gorm:"size:128;not null" json:"model_name"`
	BusinessRole BusinessRole `gorm:"size:32;not null;index" json:"business_role"`
	ResponseRule string       `gorm:"size:255" json:"response_rule"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
