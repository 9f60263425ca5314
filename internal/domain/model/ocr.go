package model

// BoundingBox locates a detected text line within a document image using
// normalized [0,1] coordinates measured from the image's top-left corner.
type BoundingBox struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// TextLine is one OCR line observation as reported by the external text
// detection capability.
type TextLine struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"` // 0-100
	Box        BoundingBox `json:"box"`
}

// ExtractedFields holds the structured identity data pulled out of a
// document image.
type ExtractedFields struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth"`
	IDNumber    string `json:"id_number"`
}

// FaceMatch is one candidate pairing between the document photo and the
// selfie, scored 0-100 by the external face comparison capability.
type FaceMatch struct {
	Similarity float64 `json:"similarity"`
}
