package melodyalign

import (
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/models"
)

// SessionResult is a stored session together with the full alignment it
// was scored from.
type SessionResult struct {
	Session models.Session             `json:"session"`
	Result  *alignment.AlignmentResult `json:"result"`
}

// BatchItem is the outcome for one take of AlignBatch. Index is the take's
// position in the input.
type BatchItem struct {
	Index  int
	Result *SessionResult
	Err    error
}
