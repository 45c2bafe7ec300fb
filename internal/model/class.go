package model

import "time"

// ClassPartition is a tenant. Every category, card and setting belongs to
// at most one class; records without a class form the legacy partition.
type ClassPartition struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ClassPartition) TableName() string {
	return "classes"
}
