package models

import (
	"fmt"

	"github.com/volatiletech/null/v8"
)

// Role scopes a workspace. Each role owns its own selection, storage keys and
// broadcast channels.
type Role string

const (
	RoleTeacher    Role = "teacher"
	RoleSuperAdmin Role = "superadmin"
)

// Valid returns true when the role is supported.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleSuperAdmin
}

// KeyPrefix is the storage namespace for the role, e.g. "teacher_".
func (r Role) KeyPrefix() string {
	return string(r) + "_"
}

// Selection is the active academic year / quarter / section triple. It is a
// value object: stores replace it wholesale and publish copies.
type Selection struct {
	AcademicYearID null.Int64 `json:"academic_year_id"`
	QuarterID      null.Int64 `json:"quarter_id"`
	SectionID      null.Int64 `json:"section_id"`
	// Version increases on every replacement so subscribers can detect change.
	Version uint64 `json:"version"`
}

// Empty reports whether no field has been chosen.
func (s Selection) Empty() bool {
	return !s.AcademicYearID.Valid && !s.QuarterID.Valid && !s.SectionID.Valid
}

// SameScope compares the triple, ignoring Version.
func (s Selection) SameScope(o Selection) bool {
	return s.AcademicYearID == o.AcademicYearID && s.QuarterID == o.QuarterID && s.SectionID == o.SectionID
}

// ScopeKey renders the triple for cache keys and logs.
func (s Selection) ScopeKey() string {
	return fmt.Sprintf("ay=%s:q=%s:sec=%s", idString(s.AcademicYearID), idString(s.QuarterID), idString(s.SectionID))
}

func idString(v null.Int64) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%d", v.Int64)
}

// SelectionPatch carries raw user input for a partial selection update. A nil
// field is left unchanged; an empty string clears the field.
type SelectionPatch struct {
	AcademicYearID *string `json:"academic_year_id" validate:"omitempty,selection_id"`
	QuarterID      *string `json:"quarter_id" validate:"omitempty,selection_id"`
	SectionID      *string `json:"section_id" validate:"omitempty,selection_id"`
}
