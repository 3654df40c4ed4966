package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/constants"
)

// Batch represents one run over an input folder.
type Batch struct {
	ID         uuid.UUID             `json:"id"`
	InputDir   string                `json:"input_dir"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt *time.Time            `json:"finished_at,omitempty"`
	Status     constants.BatchStatus `json:"status"`
	Documents  int                   `json:"documents"`
}
