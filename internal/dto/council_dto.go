package dto

import (
	"time"

	"github.com/google/uuid"
)

type AnalyzeRequest struct {
	Task          string            `json:"task"`
	Context       string            `json:"context"`
	ExpertOutputs map[string]string `json:"expert_outputs" validate:"required,min=1"`
}

type AnalyzeResponse struct {
	TaskId uuid.UUID `json:"task_id"`
}

type TaskStatusResponse struct {
	TaskId         uuid.UUID  `json:"task_id"`
	Status         string     `json:"status"`
	ReportMarkdown string     `json:"report_markdown,omitempty"`
	ReportHTML     string     `json:"report_html,omitempty"`
	Error          string     `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// InvokeRequest carries a raw message whose content goes through the
// council's payload extractor.
type InvokeRequest struct {
	Content string `json:"content" validate:"required"`
}

type InvokeResponse struct {
	Reply string `json:"reply"`
}
