// Package extract converts raw OCR line observations into structured identity
// fields using per-document-type geometric heuristics. The heuristics rely on
// fixed normalized regions calibrated to the known card layouts; when several
// lines land in a field's region the first in input order wins. That
// tie-break is a deliberate design choice, not an error: OCR engines report
// lines top-to-bottom, so input order is the layout order.
package extract

import (
	"strings"

	"github.com/target/ekyc-verify/internal/domain/model"
)

// Failure reasons persisted to the job record and surfaced to callers.
const (
	MsgNoLines         = "No text lines detected"
	MsgLowConfidence   = "No Lines found with high confidence"
	MsgNoName          = "No Name found"
	MsgNoDateOfBirth   = "No Date of Birth found"
	MsgNoAadhaarNumber = "No Aadhaar Number found"
	MsgNoPANNumber     = "No PAN Number found"
	MsgUnsupportedType = "Unsupported ID type"
)

// Result is the outcome of a field extraction attempt. Message is a
// human-readable failure reason when Success is false.
type Result struct {
	Success bool
	Fields  model.ExtractedFields
	Message string
}

func failure(msg string) Result {
	return Result{Message: msg}
}

// Extract pulls {name, date_of_birth, id_number} out of the OCR lines for
// the given document type. Lines must be in detection order.
func Extract(idType model.IDType, lines []model.TextLine) Result {
	if len(lines) == 0 {
		return failure(MsgNoLines)
	}

	l, ok := layoutFor(idType)
	if !ok {
		return failure(MsgUnsupportedType)
	}

	confident := make([]model.TextLine, 0, len(lines))
	for _, line := range lines {
		if line.Confidence > l.confidenceFloor {
			confident = append(confident, line)
		}
	}
	if len(confident) == 0 {
		return failure(MsgLowConfidence)
	}

	name, ok := firstInRegion(confident, l.name)
	if !ok {
		return failure(MsgNoName)
	}

	dob, ok := firstInRegion(confident, l.dateOfBirth)
	if !ok {
		return failure(MsgNoDateOfBirth)
	}
	if l.dobLabelValue {
		// Label-stripping heuristic: the line must be exactly "<label> <value>".
		tokens := strings.Fields(dob)
		if len(tokens) != 2 {
			return failure(MsgNoDateOfBirth)
		}
		dob = tokens[1]
	}

	idNumber, ok := firstInRegion(confident, l.idNumber)
	if !ok {
		return failure(l.idNumberMissing)
	}

	return Result{
		Success: true,
		Fields: model.ExtractedFields{
			Name:        name,
			DateOfBirth: dob,
			IDNumber:    idNumber,
		},
	}
}

// firstInRegion returns the text of the first line whose bounding box falls
// inside the region. A match with empty text counts as not found.
func firstInRegion(lines []model.TextLine, r region) (string, bool) {
	for _, line := range lines {
		if r.contains(line.Box) {
			if strings.TrimSpace(line.Text) == "" {
				return "", false
			}
			return line.Text, true
		}
	}
	return "", false
}
