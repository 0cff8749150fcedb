package council

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"news-council-be/pkg/llm"
)

// fakeProvider is a scriptable backend: respond gets the full chat history
// and returns the canned reply. Call records are safe for concurrent use.
type fakeProvider struct {
	mu      sync.Mutex
	calls   [][]llm.Message
	respond func(history []llm.Message) (string, error)
}

func newFakeProvider(respond func(history []llm.Message) (string, error)) *fakeProvider {
	if respond == nil {
		respond = func([]llm.Message) (string, error) { return "OK", nil }
	}
	return &fakeProvider{respond: respond}
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, history)
	f.mu.Unlock()
	return f.respond(history)
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// singleMessageCalls counts calls with no system message, i.e. discussion
// rebuttals (reviews and synthesis both carry a system role description).
func (f *fakeProvider) singleMessageCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if len(call) == 1 {
			n++
		}
	}
	return n
}

func gradedReply(grade Grade) func([]llm.Message) (string, error) {
	return func([]llm.Message) (string, error) {
		return fmt.Sprintf(`{"overall_grade": %q, "comment": "评审意见"}`, grade), nil
	}
}

func allProviders(respond func([]llm.Message) (string, error)) map[Role]llm.LLMProvider {
	providers := map[Role]llm.LLMProvider{}
	for _, role := range ExpectedExperts {
		providers[role] = newFakeProvider(respond)
	}
	providers[RoleExpertSupervisor] = newFakeProvider(func([]llm.Message) (string, error) {
		return "综合裁决：各专家结论可信。", nil
	})
	return providers
}

func fullOutputs() map[Role]string {
	return map[Role]string{
		RoleSummarizer:     "X公司发布了产品Y",
		RoleFactChecker:    "已通过来源Z确认",
		RoleResearcher:     "X公司自2020年以来的背景",
		RoleImpactAssessor: "市场影响中等",
	}
}

func TestRunCouncilNoOutputs(t *testing.T) {
	runner := NewRunner(allProviders(nil), DefaultPrompts())
	report, err := runner.RunCouncil(context.Background(), "任务", "", nil)
	if err != nil {
		t.Fatalf("RunCouncil() error = %v", err)
	}
	if report != NoOutputsMessage {
		t.Errorf("report = %q, want guard message", report)
	}
}

func TestRunCouncilEndToEndUnanimous(t *testing.T) {
	providers := allProviders(gradedReply(GradeA))
	runner := NewRunner(providers, DefaultPrompts())

	report, err := runner.RunCouncil(context.Background(), "分析X公司动态", "新闻背景", fullOutputs())
	if err != nil {
		t.Fatalf("RunCouncil() error = %v", err)
	}

	for role, output := range fullOutputs() {
		if !strings.Contains(report, string(role)) {
			t.Errorf("report missing role %q", role)
		}
		if !strings.Contains(report, output) {
			t.Errorf("report missing preview of %q output", role)
		}
	}

	if !strings.Contains(report, "专家意见基本一致，无需额外讨论") {
		t.Error("unanimous run should state no discussion was needed")
	}
	if strings.Contains(report, "需要讨论的分歧点") {
		t.Error("unanimous run must not contain conflict content")
	}
	if !strings.Contains(report, "综合裁决：各专家结论可信。") {
		t.Error("report must end with the chairman synthesis")
	}

	// No discussion stage means zero single-message calls anywhere.
	for role, provider := range providers {
		if n := provider.(*fakeProvider).singleMessageCalls(); n != 0 {
			t.Errorf("%s received %d discussion calls, want 0", role, n)
		}
	}
}

func TestRunCouncilPartialOutputs(t *testing.T) {
	providers := allProviders(gradedReply(GradeA))
	runner := NewRunner(providers, DefaultPrompts())

	outputs := map[Role]string{RoleSummarizer: "只有摘要"}
	report, err := runner.RunCouncil(context.Background(), "任务", "", outputs)
	if err != nil {
		t.Fatalf("RunCouncil() error = %v", err)
	}

	if !strings.Contains(report, "缺少专家输出") {
		t.Error("report should note missing experts")
	}
	for _, role := range []Role{RoleFactChecker, RoleResearcher, RoleImpactAssessor} {
		if !strings.Contains(report, string(role)) {
			t.Errorf("missing-role note should name %q", role)
		}
	}

	// The summarizer is the only reviewee, and none of its three reviewers
	// supplied outputs, so no review call is issued at all.
	for role, provider := range providers {
		if role == RoleExpertSupervisor {
			continue
		}
		if n := provider.(*fakeProvider).callCount(); n != 0 {
			t.Errorf("%s made %d calls, want 0", role, n)
		}
	}
	if n := providers[RoleExpertSupervisor].(*fakeProvider).callCount(); n != 1 {
		t.Errorf("supervisor made %d calls, want 1", n)
	}
}

func TestRunCouncilReviewFailureIsolation(t *testing.T) {
	providers := allProviders(gradedReply(GradeA))
	providers[RoleFactChecker] = newFakeProvider(func([]llm.Message) (string, error) {
		return "", errors.New("backend unavailable")
	})
	runner := NewRunner(providers, DefaultPrompts())

	report, err := runner.RunCouncil(context.Background(), "任务", "", fullOutputs())
	if err != nil {
		t.Fatalf("RunCouncil() error = %v", err)
	}

	if !strings.Contains(report, "评审失败: backend unavailable") {
		t.Error("failed review should degrade to an inline failure note")
	}

	// fact_checker reviews summarizer, researcher and impact_assessor; all
	// three failures land as grade C, dragging those averages to B while the
	// fact_checker itself keeps its clean A reviews.
	if !strings.Contains(report, "- **fact_checker**: A") {
		t.Error("fact_checker average should remain A despite its own calls failing")
	}
}

func TestRunCouncilConflictCap(t *testing.T) {
	providers := allProviders(gradedReply(GradeD))
	runner := NewRunner(providers, DefaultPrompts())

	report, err := runner.RunCouncil(context.Background(), "任务", "", fullOutputs())
	if err != nil {
		t.Fatalf("RunCouncil() error = %v", err)
	}

	// Nine grade-D reviews produce nine conflicts; the discussion stage is
	// capped at three calls.
	if !strings.Contains(report, "发现 9 个需要讨论的分歧点") {
		t.Error("report should count all conflicts before the cap")
	}
	discussions := 0
	for _, provider := range providers {
		discussions += provider.(*fakeProvider).singleMessageCalls()
	}
	if discussions != 3 {
		t.Errorf("discussion calls = %d, want 3", discussions)
	}
}

func TestRunCouncilSynthesisFailure(t *testing.T) {
	providers := allProviders(gradedReply(GradeA))
	providers[RoleExpertSupervisor] = newFakeProvider(func([]llm.Message) (string, error) {
		return "", errors.New("model offline")
	})
	runner := NewRunner(providers, DefaultPrompts())

	report, err := runner.RunCouncil(context.Background(), "任务", "", fullOutputs())
	if err != nil {
		t.Fatalf("RunCouncil() error = %v", err)
	}
	if !strings.Contains(report, "主管综合失败: model offline") {
		t.Error("synthesis failure should degrade to an inline failure string")
	}
}

func TestRunCouncilUnparsedGradeDefaults(t *testing.T) {
	providers := allProviders(func([]llm.Message) (string, error) {
		return "这份分析整体不错，但没有给出等级。", nil
	})
	runner := NewRunner(providers, DefaultPrompts())

	report, err := runner.RunCouncil(context.Background(), "任务", "", fullOutputs())
	if err != nil {
		t.Fatalf("RunCouncil() error = %v", err)
	}

	// Every grade falls back to B, so every average is B and no conflict
	// discussion happens.
	for _, role := range ExpectedExperts {
		if !strings.Contains(report, fmt.Sprintf("- **%s**: B", role)) {
			t.Errorf("%s average should be the neutral default", role)
		}
	}
	if !strings.Contains(report, "专家意见基本一致，无需额外讨论") {
		t.Error("neutral defaults must not trigger discussion")
	}
}

func TestRunCouncilProgressNotifications(t *testing.T) {
	var mu sync.Mutex
	var stages []string
	providers := allProviders(gradedReply(GradeA))
	runner := NewRunner(providers, DefaultPrompts(), WithProgress(func(stage, detail string) {
		mu.Lock()
		stages = append(stages, stage)
		mu.Unlock()
	}))

	if _, err := runner.RunCouncil(context.Background(), "任务", "", fullOutputs()); err != nil {
		t.Fatalf("RunCouncil() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	seen := map[string]bool{}
	for _, s := range stages {
		seen[s] = true
	}
	for _, want := range []string{"stage1", "stage2", "stage3", "stage4", "review_done"} {
		if !seen[want] {
			t.Errorf("progress stage %q never reported", want)
		}
	}
}

func TestRunCouncilSynthesisIncludesExtraRoles(t *testing.T) {
	providers := allProviders(gradedReply(GradeA))
	supervisor := providers[RoleExpertSupervisor].(*fakeProvider)
	runner := NewRunner(providers, DefaultPrompts())

	outputs := fullOutputs()
	outputs[Role("sentiment_analyst")] = "舆论情绪偏正面"

	if _, err := runner.RunCouncil(context.Background(), "任务", "", outputs); err != nil {
		t.Fatalf("RunCouncil() error = %v", err)
	}

	supervisor.mu.Lock()
	defer supervisor.mu.Unlock()
	if len(supervisor.calls) != 1 {
		t.Fatalf("supervisor received %d calls, want 1", len(supervisor.calls))
	}
	prompt := supervisor.calls[0][len(supervisor.calls[0])-1].Content
	if !strings.Contains(prompt, "sentiment_analyst") || !strings.Contains(prompt, "舆论情绪偏正面") {
		t.Error("chairman prompt should include outputs from roles outside the standard four")
	}

	// Canonical roles keep their position ahead of extras.
	if strings.Index(prompt, "summarizer") > strings.Index(prompt, "sentiment_analyst") {
		t.Error("expected experts should precede extra roles in the synthesis prompt")
	}
}
