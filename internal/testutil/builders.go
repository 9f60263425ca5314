// Package testutil provides builders for common test fixtures.
package testutil

import (
	"github.com/target/ekyc-verify/internal/domain/model"
)

// Job returns a freshly created AADHAAR verification job. Mutators adjust
// fields for the scenario under test.
func Job(mut ...func(*model.Job)) *model.Job {
	job := &model.Job{
		UserID:       "user-1",
		RequestID:    "req-1",
		Status:       model.JobStatusCreated,
		Name:         "John Doe",
		DateOfBirth:  "1990-01-01",
		IDNumber:     "123456789012",
		IDType:       model.IDTypeAadhaar,
		Bucket:       "kyc-docs",
		IDFront:      "user-1/id-front.jpg",
		IDBack:       "user-1/id-back.jpg",
		Selfie:       "user-1/selfie.jpg",
		CreationTime: 1735689600000,
		UpdateTime:   1735689600000,
	}
	for _, m := range mut {
		m(job)
	}
	return job
}

// Line builds a detected text line with a normalized bounding box.
func Line(text string, confidence, top, left float64) model.TextLine {
	return model.TextLine{
		Text:       text,
		Confidence: confidence,
		Box:        model.BoundingBox{Top: top, Left: left},
	}
}

// AadhaarLines returns OCR lines that extract cleanly for the default Job:
// name, a labeled date of birth, and the document number, each inside its
// expected region with high confidence.
func AadhaarLines() []model.TextLine {
	return []model.TextLine{
		Line("JOHN DOE", 99, 0.27, 0.1),
		Line("DOB 1990-01-01", 98, 0.32, 0.1),
		Line("1234 5678 9012", 97, 0.78, 0.1),
	}
}

// PANLines returns OCR lines that extract cleanly for a PAN document.
func PANLines() []model.TextLine {
	return []model.TextLine{
		Line("ABCDE1234F", 99, 0.45, 0.35),
		Line("JOHN DOE", 98, 0.57, 0.05),
		Line("01/01/1990", 97, 0.89, 0.07),
	}
}
