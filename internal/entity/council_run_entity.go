package entity

import (
	"time"

	"github.com/google/uuid"
)

type CouncilRunStatus string

const (
	RunStatusPending   CouncilRunStatus = "pending"
	RunStatusRunning   CouncilRunStatus = "running"
	RunStatusCompleted CouncilRunStatus = "completed"
	RunStatusError     CouncilRunStatus = "error"
)

// CouncilRun tracks one council invocation from request to report.
// Runs live in memory only; nothing persists across process restarts.
type CouncilRun struct {
	Id             uuid.UUID
	Task           string
	Context        string
	Status         CouncilRunStatus
	ReportMarkdown string
	ReportHTML     string
	Error          string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}
