package council

import (
	"context"
	"strings"
	"testing"
)

func newTestFacade() *Facade {
	return NewFacade(NewRunner(allProviders(gradedReply(GradeA)), DefaultPrompts()))
}

func lastReply(t *testing.T, state State) Message {
	t.Helper()
	if len(state.Messages) == 0 {
		t.Fatal("state has no messages")
	}
	return state.Messages[len(state.Messages)-1]
}

func TestFacadeInvokeEmptyMessages(t *testing.T) {
	state := newTestFacade().Invoke(context.Background(), State{})

	reply := lastReply(t, state)
	if reply.Content != NoTaskMessage {
		t.Errorf("reply = %q, want %q", reply.Content, NoTaskMessage)
	}
	if reply.Kind != KindAI {
		t.Errorf("reply kind = %v, want KindAI", reply.Kind)
	}
}

func TestFacadeInvokeNoUsableOutputs(t *testing.T) {
	state := newTestFacade().Invoke(context.Background(), State{
		Messages: []Message{HumanMessage("今天有什么新闻？")},
	})

	reply := lastReply(t, state)
	if reply.Content != MissingOutputsMessage {
		t.Errorf("reply = %q, want guidance message", reply.Content)
	}
	// The original conversation is preserved ahead of the reply.
	if len(state.Messages) != 2 {
		t.Errorf("len(messages) = %d, want 2", len(state.Messages))
	}
}

func TestFacadeInvokeDirectOutputs(t *testing.T) {
	state := newTestFacade().Invoke(context.Background(), State{
		Messages: []Message{HumanMessage("开始分析")},
		Task:     "直接任务",
		ExpertOutputs: map[string]string{
			"summarizer":   "摘要",
			"fact_checker": "核查",
		},
	})

	reply := lastReply(t, state)
	if !strings.Contains(reply.Content, "# 专家委员会分析报告") {
		t.Errorf("reply should be a council report, got %q", head(reply.Content, 80))
	}
	if !strings.Contains(reply.Content, "直接任务") {
		t.Error("report should carry the task from the state bag")
	}
}

func TestFacadeInvokeExtractsPayloadFromLastMessage(t *testing.T) {
	payload := `{"task": "消息内任务", "expert_outputs": {"summarizer": "摘要内容", "researcher": "背景内容"}}`
	state := newTestFacade().Invoke(context.Background(), State{
		Messages: []Message{RawMessage(payload)},
	})

	reply := lastReply(t, state)
	if !strings.Contains(reply.Content, "消息内任务") {
		t.Error("report should carry the task extracted from the message payload")
	}
	if !strings.Contains(reply.Content, "摘要内容") {
		t.Error("report should preview the extracted summarizer output")
	}
}

func TestFacadeInvokeSurvivesRunnerPanic(t *testing.T) {
	// A nil runner makes safeRun panic on first use; the façade must turn
	// that into a reply instead of crashing the caller.
	facade := NewFacade(nil)
	state := facade.Invoke(context.Background(), State{
		Messages:      []Message{HumanMessage("开始")},
		ExpertOutputs: map[string]string{"summarizer": "摘要"},
	})

	reply := lastReply(t, state)
	if !strings.Contains(reply.Content, "专家委员会执行失败") {
		t.Errorf("reply = %q, want execution-failure message", reply.Content)
	}
}

func TestFacadeInvokeAsync(t *testing.T) {
	done := newTestFacade().InvokeAsync(context.Background(), State{
		Messages:      []Message{HumanMessage("开始")},
		ExpertOutputs: map[string]string{"summarizer": "摘要"},
	})

	state, ok := <-done
	if !ok {
		t.Fatal("async channel closed without a result")
	}
	reply := lastReply(t, state)
	if !strings.Contains(reply.Content, "# 专家委员会分析报告") {
		t.Errorf("async reply should be a council report, got %q", head(reply.Content, 80))
	}
	if _, more := <-done; more {
		t.Error("async channel should deliver exactly one state")
	}
}
