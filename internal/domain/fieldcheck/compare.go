// Package fieldcheck normalizes extracted identity fields and compares them
// against the values the user originally submitted.
package fieldcheck

import (
	"strings"

	"github.com/target/ekyc-verify/internal/domain/model"
)

// Mismatch messages, one per compared field.
const (
	MsgInvalidIDNumber    = "Invalid Document Number"
	MsgInvalidDateOfBirth = "Invalid Date of Birth"
	MsgInvalidName        = "Invalid Name"
)

// Result reports whether the extracted document fields agree with the
// submitted ones. Message names the first mismatching field and is empty
// when ValidDocument is true.
type Result struct {
	ValidDocument bool
	Message       string
}

// Submitted holds the user-submitted values taken from the job record.
type Submitted struct {
	Name        string
	DateOfBirth string
	IDNumber    string
}

// Compare checks the extracted fields against the submitted ones in a fixed
// order: id_number, then date_of_birth, then name. The first mismatch
// short-circuits so failure messages are deterministic and reproducible.
// id_number and name are compared case-insensitively with all whitespace
// stripped; date_of_birth keeps its case and only drops whitespace.
func Compare(extracted model.ExtractedFields, submitted Submitted) Result {
	switch {
	case canonical(extracted.IDNumber) != canonical(submitted.IDNumber):
		return Result{Message: MsgInvalidIDNumber}
	case stripSpace(extracted.DateOfBirth) != stripSpace(submitted.DateOfBirth):
		return Result{Message: MsgInvalidDateOfBirth}
	case canonical(extracted.Name) != canonical(submitted.Name):
		return Result{Message: MsgInvalidName}
	default:
		return Result{ValidDocument: true}
	}
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func canonical(s string) string {
	return strings.ToUpper(stripSpace(s))
}
