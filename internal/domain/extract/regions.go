package extract

import "github.com/target/ekyc-verify/internal/domain/model"

// region is a rectangular slice of the normalized document layout. A zero
// LeftMax means the field is located by its vertical band alone.
type region struct {
	topMin, topMax   float64
	leftMin, leftMax float64
}

func (r region) contains(box model.BoundingBox) bool {
	if box.Top < r.topMin || box.Top > r.topMax {
		return false
	}
	if r.leftMax > 0 && (box.Left < r.leftMin || box.Left > r.leftMax) {
		return false
	}
	return true
}

// layout captures the per-document-type extraction calibration: the OCR
// confidence floor and the region each required field is expected in. The
// coordinates are fixed values calibrated to the known card layouts.
type layout struct {
	confidenceFloor float64
	name            region
	dateOfBirth     region
	idNumber        region

	// dobLabelValue marks layouts whose date-of-birth line carries a label
	// token before the value ("DOB 1990-01-01"); the line must split into
	// exactly two whitespace-separated tokens and the second one is taken.
	dobLabelValue bool

	idNumberMissing string
}

// Aadhaar capture quality is generally lower than PAN, hence the lower floor.
var aadhaarLayout = layout{
	confidenceFloor: 75,
	name:            region{topMin: 0.25, topMax: 0.29},
	dateOfBirth:     region{topMin: 0.30, topMax: 0.34},
	idNumber:        region{topMin: 0.75, topMax: 0.82},
	dobLabelValue:   true,
	idNumberMissing: MsgNoAadhaarNumber,
}

var panLayout = layout{
	confidenceFloor: 90,
	idNumber:        region{topMin: 0.40, topMax: 0.50, leftMin: 0.30, leftMax: 0.40},
	name:            region{topMin: 0.55, topMax: 0.60, leftMin: 0.02, leftMax: 0.10},
	dateOfBirth:     region{topMin: 0.88, topMax: 0.90, leftMin: 0.05, leftMax: 0.10},
	idNumberMissing: MsgNoPANNumber,
}

func layoutFor(idType model.IDType) (layout, bool) {
	switch idType {
	case model.IDTypeAadhaar:
		return aadhaarLayout, true
	case model.IDTypePAN:
		return panLayout, true
	default:
		return layout{}, false
	}
}
