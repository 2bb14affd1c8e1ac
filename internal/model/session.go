package model

import "time"

type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Topic     string    `gorm:"size:255;not null" json:"topic"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
