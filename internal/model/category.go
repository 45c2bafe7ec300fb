package model

import "time"

// Category groups cards. Hierarchy is at most two levels deep: a category
// with a parent can never be a parent itself.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	ParentID  *uint     `gorm:"index" json:"parentId"`
	ClassID   *string   `gorm:"index;size:64" json:"classId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Level tells whether a category sits at the top of the tree or under a parent.
type Level int

const (
	TopCategory Level = iota
	SubCategory
)

func (c Category) Level() Level {
	if c.ParentID != nil {
		return SubCategory
	}
	return TopCategory
}

func (c Category) IsTop() bool {
	return c.ParentID == nil
}
