package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"news-council-be/internal/entity"
)

func TestSaveSnapshotsTheRun(t *testing.T) {
	repo := NewCouncilRunRepository()

	run := &entity.CouncilRun{
		Id:        uuid.New(),
		Task:      "分析任务",
		Status:    entity.RunStatusPending,
		CreatedAt: time.Now(),
	}
	repo.Save(run)

	// Mutations after Save must not bleed into the stored record.
	run.Status = entity.RunStatusRunning
	run.ReportMarkdown = "中途内容"

	stored, found := repo.Get(run.Id)
	if !found {
		t.Fatal("run not found after Save")
	}
	if stored.Status != entity.RunStatusPending {
		t.Errorf("stored status = %q, want pending snapshot", stored.Status)
	}
	if stored.ReportMarkdown != "" {
		t.Errorf("stored report = %q, want empty snapshot", stored.ReportMarkdown)
	}
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	repo := NewCouncilRunRepository()

	run := &entity.CouncilRun{Id: uuid.New(), Status: entity.RunStatusCompleted}
	repo.Save(run)

	first, _ := repo.Get(run.Id)
	first.Status = entity.RunStatusError

	second, _ := repo.Get(run.Id)
	if second.Status != entity.RunStatusCompleted {
		t.Errorf("stored status = %q, a reader's copy must not write through", second.Status)
	}
}

func TestConcurrentPollingWhileRunUpdates(t *testing.T) {
	repo := NewCouncilRunRepository()

	run := &entity.CouncilRun{Id: uuid.New(), Status: entity.RunStatusPending, CreatedAt: time.Now()}
	repo.Save(run)

	var wg sync.WaitGroup
	wg.Add(2)

	// Writer: the run's owner mutates its record and re-saves, like a
	// background execution updating status and report.
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			run.Status = entity.RunStatusRunning
			run.ReportMarkdown = "部分报告"
			repo.Save(run)
		}
		now := time.Now()
		run.Status = entity.RunStatusCompleted
		run.CompletedAt = &now
		repo.Save(run)
	}()

	// Reader: a status poller reading through Get the whole time.
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if got, found := repo.Get(run.Id); found {
				_ = got.Status
				_ = got.ReportMarkdown
				_ = got.CompletedAt
			}
		}
	}()

	wg.Wait()

	final, found := repo.Get(run.Id)
	if !found || final.Status != entity.RunStatusCompleted {
		t.Errorf("final status = %v (found=%v), want completed", final, found)
	}
}
