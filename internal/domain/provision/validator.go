// Package provision runs the section-provisioning workflow: form validation,
// the create request against the hospital API, one-time disclosure of the
// generated credentials, and the submit gate that keeps a double click from
// creating two sections.
package provision

import (
	"strings"
	"unicode/utf8"
)

const (
	// Field error messages, matched by the form per field.
	ErrRequired = "required"
	ErrTooShort = "too short"
	ErrTooLong  = "too long"

	MinSectionNameLen = 2
	MaxSectionNameLen = 100
)

// FieldErrors carries the per-field outcome of validating the creation form.
// Both fields are checked independently; a name error never suppresses a
// parent error.
type FieldErrors struct {
	SectionName string `json:"section_name,omitempty"`
	Parent      string `json:"parent,omitempty"`
}

// OK reports whether the form may be submitted.
func (e FieldErrors) OK() bool {
	return e.SectionName == "" && e.Parent == ""
}

// Validate applies the section-creation rules. The name is trimmed before the
// length checks, the same trim later applied to the wire value, so an
// all-whitespace name fails as required, not as too short. Lengths count
// runes, not bytes. First failing rule wins per field.
func Validate(sectionName string, parentUnitID int64) FieldErrors {
	var errs FieldErrors

	name := strings.TrimSpace(sectionName)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		errs.SectionName = ErrRequired
	case n < MinSectionNameLen:
		errs.SectionName = ErrTooShort
	case n > MaxSectionNameLen:
		errs.SectionName = ErrTooLong
	}

	if parentUnitID == 0 {
		errs.Parent = ErrRequired
	}

	return errs
}
