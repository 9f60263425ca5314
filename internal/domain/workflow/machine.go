// Package workflow defines the verification pipeline as an explicit finite-state
// machine, decoupled from any particular execution backend. The orchestration
// service loops the pure transition function against its stage executors.
package workflow

// State identifies one step of the verification pipeline.
type State string

const (
	// StateValidate resolves the job record for the trigger keys.
	StateValidate State = "validate"
	// StateFacialMatch compares the selfie against the document photo.
	StateFacialMatch State = "facial_match"
	// StateExtractText pulls structured identity fields out of the document image.
	StateExtractText State = "extract_text"
	// StateExternalValidate cross-checks extracted fields against the submitted fields.
	StateExternalValidate State = "external_validate"
	// StateMarkSuccess finalizes the job as verified.
	StateMarkSuccess State = "mark_success"
	// StateMarkFailed finalizes the job with the failing stage's message.
	StateMarkFailed State = "mark_failed"
	// StateDone is the single sink state after finalization.
	StateDone State = "done"
)

// StageResult is the boolean-keyed outcome every stage reports. Message
// carries the failure reason when OK is false.
type StageResult struct {
	OK      bool
	Message string
}

// Initial returns the entry state of the pipeline.
func Initial() State {
	return StateValidate
}

// Terminal reports whether the machine has nothing left to execute.
func (s State) Terminal() bool {
	return s == StateDone
}

// Next is the pure transition function (state, stage result) -> next state.
// Any stage reporting a failed result branches to StateMarkFailed; the two
// finalizer states always sink into StateDone. Unknown states also sink into
// StateDone so a corrupted execution can never loop.
func Next(s State, r StageResult) State {
	if !r.OK {
		switch s {
		case StateMarkSuccess, StateMarkFailed, StateDone:
			return StateDone
		default:
			return StateMarkFailed
		}
	}

	switch s {
	case StateValidate:
		return StateFacialMatch
	case StateFacialMatch:
		return StateExtractText
	case StateExtractText:
		return StateExternalValidate
	case StateExternalValidate:
		return StateMarkSuccess
	case StateMarkSuccess, StateMarkFailed, StateDone:
		return StateDone
	default:
		return StateDone
	}
}
