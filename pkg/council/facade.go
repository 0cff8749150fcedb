package council

import (
	"context"
	"fmt"
)

// MessageKind tags a normalized council message. All inbound messages are
// converted at the boundary so internal logic never branches on shape.
type MessageKind int

const (
	KindHuman MessageKind = iota
	KindAI
	KindRaw
)

// Message is the council's narrow message representation.
type Message struct {
	Kind    MessageKind
	Content string
}

func HumanMessage(content string) Message { return Message{Kind: KindHuman, Content: content} }
func AIMessage(content string) Message    { return Message{Kind: KindAI, Content: content} }
func RawMessage(content string) Message   { return Message{Kind: KindRaw, Content: content} }

// State is the generic state bag the façade consumes and produces.
type State struct {
	Messages      []Message
	ExpertOutputs map[string]string
	Task          string
	Context       string
}

// Fixed façade responses. Failures surface as content, never as errors.
const (
	NoTaskMessage = "未提供分析任务"

	MissingOutputsMessage = "未提供专家输出，无法进行交叉评审。请传入 JSON，包含 task/context " +
		"以及 expert_outputs（summarizer、fact_checker、researcher、impact_assessor）。"
)

// Facade exposes the runner as a single request/response operation with
// graceful handling of malformed or missing input.
type Facade struct {
	runner *Runner
}

func NewFacade(runner *Runner) *Facade {
	return &Facade{runner: runner}
}

// Invoke runs the full decision path synchronously and returns the state
// with the council's reply appended.
func (f *Facade) Invoke(ctx context.Context, state State) State {
	task, contextText, outputs := f.prepare(state)

	if len(state.Messages) == 0 {
		return State{Messages: []Message{AIMessage(NoTaskMessage)}}
	}

	if len(outputs) == 0 {
		return appendReply(state, MissingOutputsMessage)
	}

	result := f.safeRun(ctx, task, contextText, outputs)
	return appendReply(state, result)
}

// InvokeAsync is the non-blocking entry point. Decision logic is identical
// to Invoke; only the completion delivery differs.
func (f *Facade) InvokeAsync(ctx context.Context, state State) <-chan State {
	done := make(chan State, 1)
	go func() {
		defer close(done)
		done <- f.Invoke(ctx, state)
	}()
	return done
}

// prepare normalizes the state bag: direct expert outputs win, otherwise the
// last message's content goes through the payload extractor.
func (f *Facade) prepare(state State) (task, contextText string, outputs map[Role]string) {
	task = state.Task
	if task == "" {
		task = DefaultTask
	}
	contextText = state.Context

	if len(state.ExpertOutputs) > 0 {
		outputs = map[Role]string{}
		for key, value := range state.ExpertOutputs {
			if value != "" {
				outputs[Role(key)] = value
			}
		}
	}

	if len(outputs) == 0 && len(state.Messages) > 0 {
		last := state.Messages[len(state.Messages)-1]
		if payload := ExtractPayload(last.Content); payload != nil {
			task = payload.Task
			contextText = payload.Context
			outputs = payload.ExpertOutputs
		}
	}

	return task, contextText, outputs
}

// safeRun shields the caller from anything unexpected inside the runner; the
// surrounding framework always receives a well-formed reply message.
func (f *Facade) safeRun(ctx context.Context, task, contextText string, outputs map[Role]string) (result string) {
	defer func() {
		if rec := recover(); rec != nil {
			result = fmt.Sprintf("专家委员会执行失败: %v", rec)
		}
	}()

	report, err := f.runner.RunCouncil(ctx, task, contextText, outputs)
	if err != nil {
		return fmt.Sprintf("专家委员会执行失败: %v", err)
	}
	return report
}

func appendReply(state State, content string) State {
	messages := make([]Message, 0, len(state.Messages)+1)
	messages = append(messages, state.Messages...)
	messages = append(messages, AIMessage(content))
	state.Messages = messages
	return state
}
