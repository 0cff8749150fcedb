package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"news-council-be/internal/dto"
	"news-council-be/internal/entity"
	"news-council-be/internal/pkg/logger"
	"news-council-be/internal/repository/memory"
	"news-council-be/pkg/council"
	"news-council-be/pkg/events"
	"news-council-be/pkg/llm"
)

// ICouncilService defines the council orchestration service interface
type ICouncilService interface {
	StartAnalysis(ctx context.Context, request *dto.AnalyzeRequest) (*dto.AnalyzeResponse, error)
	GetRun(ctx context.Context, runID uuid.UUID) (*dto.TaskStatusResponse, error)
	SubscribeEvents(ctx context.Context, runID uuid.UUID) (<-chan *message.Message, error)
	Invoke(ctx context.Context, request *dto.InvokeRequest) (*dto.InvokeResponse, error)
}

type councilService struct {
	providers map[council.Role]llm.LLMProvider
	prompts   *council.PromptSet
	runRepo   *memory.CouncilRunRepository
	bus       *events.Bus
	logger    logger.ILogger
}

func NewCouncilService(
	providers map[council.Role]llm.LLMProvider,
	prompts *council.PromptSet,
	runRepo *memory.CouncilRunRepository,
	bus *events.Bus,
	sysLogger logger.ILogger,
) ICouncilService {
	return &councilService{
		providers: providers,
		prompts:   prompts,
		runRepo:   runRepo,
		bus:       bus,
		logger:    sysLogger,
	}
}

// StartAnalysis registers a run and executes the council in the background.
// The returned task id is immediately usable for status polling and SSE.
func (s *councilService) StartAnalysis(ctx context.Context, request *dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	task := request.Task
	if task == "" {
		task = council.DefaultTask
	}

	run := &entity.CouncilRun{
		Id:        uuid.New(),
		Task:      task,
		Context:   request.Context,
		Status:    entity.RunStatusPending,
		CreatedAt: time.Now(),
	}
	s.runRepo.Save(run)

	outputs := make(map[council.Role]string, len(request.ExpertOutputs))
	for key, value := range request.ExpertOutputs {
		if value != "" {
			outputs[council.Role(key)] = value
		}
	}

	// The run outlives the HTTP request; it is driven by its own context.
	go s.executeRun(context.Background(), run, outputs)

	return &dto.AnalyzeResponse{TaskId: run.Id}, nil
}

func (s *councilService) executeRun(ctx context.Context, run *entity.CouncilRun, outputs map[council.Role]string) {
	taskID := run.Id.String()

	run.Status = entity.RunStatusRunning
	s.runRepo.Save(run)
	s.logger.Info("council", "council run started", map[string]interface{}{
		"task_id": taskID,
		"experts": len(outputs),
	})

	runner := council.NewRunner(s.providers, s.prompts,
		council.WithProgress(func(stage, detail string) {
			s.publish(taskID, events.New(progressType(stage), stage, detail))
		}),
	)

	report, err := runner.RunCouncil(ctx, run.Task, run.Context, outputs)
	now := time.Now()
	run.CompletedAt = &now

	if err != nil {
		run.Status = entity.RunStatusError
		run.Error = err.Error()
		s.runRepo.Save(run)
		s.logger.Error("council", "council run failed", map[string]interface{}{
			"task_id": taskID,
			"error":   err,
		})
		s.publish(taskID, events.Event{
			Type:       events.TypeError,
			Name:       "council",
			Error:      err.Error(),
			OccurredAt: now,
		})
		return
	}

	run.Status = entity.RunStatusCompleted
	run.ReportMarkdown = report
	run.ReportHTML = renderHTML(report)
	s.runRepo.Save(run)

	s.logger.Info("council", "council run completed", map[string]interface{}{
		"task_id":    taskID,
		"report_len": len(report),
	})
	s.publish(taskID, events.New(events.TypeReport, "council", "报告已生成"))
}

func (s *councilService) GetRun(ctx context.Context, runID uuid.UUID) (*dto.TaskStatusResponse, error) {
	run, found := s.runRepo.Get(runID)
	if !found {
		return nil, fmt.Errorf("council run %s not found", runID)
	}

	return &dto.TaskStatusResponse{
		TaskId:         run.Id,
		Status:         string(run.Status),
		ReportMarkdown: run.ReportMarkdown,
		ReportHTML:     run.ReportHTML,
		Error:          run.Error,
		CreatedAt:      run.CreatedAt,
		CompletedAt:    run.CompletedAt,
	}, nil
}

func (s *councilService) SubscribeEvents(ctx context.Context, runID uuid.UUID) (<-chan *message.Message, error) {
	if _, found := s.runRepo.Get(runID); !found {
		return nil, fmt.Errorf("council run %s not found", runID)
	}
	return s.bus.Subscribe(ctx, runID.String())
}

// Invoke drives the council façade synchronously over a raw text payload.
func (s *councilService) Invoke(ctx context.Context, request *dto.InvokeRequest) (*dto.InvokeResponse, error) {
	facade := council.NewFacade(council.NewRunner(s.providers, s.prompts))

	state := facade.Invoke(ctx, council.State{
		Messages: []council.Message{council.RawMessage(request.Content)},
	})

	reply := ""
	if len(state.Messages) > 0 {
		reply = state.Messages[len(state.Messages)-1].Content
	}
	return &dto.InvokeResponse{Reply: reply}, nil
}

func (s *councilService) publish(taskID string, evt events.Event) {
	if err := s.bus.Publish(taskID, evt); err != nil {
		s.logger.Warn("council", "failed to publish progress event", map[string]interface{}{
			"task_id": taskID,
			"error":   err.Error(),
		})
	}
}

func progressType(stage string) events.Type {
	switch stage {
	case "review_done", "review_failed":
		return events.TypeReview
	case "stage3":
		return events.TypeDiscussion
	case "stage4":
		return events.TypeSynthesis
	default:
		return events.TypeStageStart
	}
}

func renderHTML(markdown string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return ""
	}
	return buf.String()
}
