package model

import (
	"strings"

	"gorm.io/gorm"
)

// Scope selects the data partition of one class, or the legacy partition of
// records that were created before classes existed.
type Scope struct {
	classID string
	scoped  bool
}

func Scoped(classID string) Scope {
	return Scope{classID: classID, scoped: true}
}

func Unscoped() Scope {
	return Scope{}
}

// ScopeOf maps a stored class reference to its scope.
func ScopeOf(classID *string) Scope {
	if classID == nil || strings.TrimSpace(*classID) == "" {
		return Unscoped()
	}
	return Scoped(*classID)
}

func (s Scope) IsScoped() bool { return s.scoped }

func (s Scope) ClassID() string { return s.classID }

// Ref is the value written into a record's ClassID column.
func (s Scope) Ref() *string {
	if !s.scoped {
		return nil
	}
	id := s.classID
	return &id
}

func (s Scope) Key() string {
	if !s.scoped {
		return "-"
	}
	return strings.ToLower(s.classID)
}

func (s Scope) Equal(o Scope) bool {
	return s.Key() == o.Key()
}

func (s Scope) String() string {
	if !s.scoped {
		return "unassigned"
	}
	return s.classID
}

// Apply narrows a query to the scope. Class ids compare case-insensitively.
func (s Scope) Apply(db *gorm.DB) *gorm.DB {
	if !s.scoped {
		return db.Where("(class_id IS NULL OR class_id = '')")
	}
	return db.Where("LOWER(class_id) = ?", strings.ToLower(s.classID))
}
