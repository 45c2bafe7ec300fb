package model

import "time"

const SettingWelcome = "welcome"

// Setting holds per-class presentation data shown to students.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"size:32;index;not null" json:"type"`
	ClassID   *string   `gorm:"index;size:64" json:"classId"`
	Title     string    `gorm:"size:200" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
