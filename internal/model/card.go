package model

import (
	"fmt"
	"strings"
	"time"
)

// Card is a single flashcard. SortOrder is its 1-based position inside the
// (ClassID, CategoryID) partition; zero marks legacy rows not yet normalized.
type Card struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Word       string    `gorm:"size:100;not null" json:"word"`
	Image      string    `gorm:"size:1024" json:"image"`
	AudioURL   string    `gorm:"size:1024" json:"audioUrl"`
	CategoryID *uint     `gorm:"index:idx_card_partition" json:"categoryId"`
	ClassID    *string   `gorm:"index:idx_card_partition;size:64" json:"classId"`
	SortOrder  int       `gorm:"not null;default:0" json:"sortOrder"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Partition identifies one ordered sequence of cards.
type Partition struct {
	Scope      Scope
	CategoryID *uint `json:"categoryId"`
}

func (c Card) Partition() Partition {
	return Partition{Scope: ScopeOf(c.ClassID), CategoryID: c.CategoryID}
}

// Key renders the partition as a stable string, suitable for lock names.
func (p Partition) Key() string {
	cat := "none"
	if p.CategoryID != nil {
		cat = fmt.Sprintf("%d", *p.CategoryID)
	}
	return "cards:" + p.Scope.Key() + ":" + cat
}

func (p Partition) Equal(o Partition) bool {
	if !p.Scope.Equal(o.Scope) {
		return false
	}
	if p.CategoryID == nil || o.CategoryID == nil {
		return p.CategoryID == nil && o.CategoryID == nil
	}
	return *p.CategoryID == *o.CategoryID
}

func (p Partition) String() string {
	return strings.TrimPrefix(p.Key(), "cards:")
}
