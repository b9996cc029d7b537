package melodyalign

import (
	"errors"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/storage"
)

var (
	// ErrNotFound is returned for unknown melody IDs.
	ErrNotFound = storage.ErrNotFound

	ErrInvalidInput = errors.New("melodyalign: invalid input")
)
