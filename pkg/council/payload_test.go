package council

import "testing"

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantNil     bool
		wantTask    string
		wantContext string
		wantOutputs int
	}{
		{
			name: "bare object with expert_outputs",
			raw: `{"task": "分析A公司财报", "context": "背景资料",
				"expert_outputs": {"summarizer": "摘要内容", "fact_checker": "核查内容"}}`,
			wantTask:    "分析A公司财报",
			wantContext: "背景资料",
			wantOutputs: 2,
		},
		{
			name: "fenced json block",
			raw: "请执行以下分析：\n```json\n" +
				`{"analysis_task": "评估影响", "news_pack": "新闻内容", "expert_outputs": {"researcher": "背景"}}` +
				"\n```\n谢谢",
			wantTask:    "评估影响",
			wantContext: "新闻内容",
			wantOutputs: 1,
		},
		{
			name: "fenced block without language tag",
			raw: "```\n" +
				`{"expert_outputs": {"impact_assessor": "影响分析"}}` +
				"\n```",
			wantTask:    DefaultTask,
			wantOutputs: 1,
		},
		{
			name:        "flat role keys fallback",
			raw:         `{"summarizer": "摘要", "researcher": "背景", "input": "上下文"}`,
			wantTask:    DefaultTask,
			wantContext: "上下文",
			wantOutputs: 2,
		},
		{
			name: "structured output survives as JSON text",
			raw:  `{"expert_outputs": {"summarizer": {"points": ["a", "b"]}}}`,
			wantTask:    DefaultTask,
			wantOutputs: 1,
		},
		{
			name:    "bare object beats fenced block",
			raw:     `{"expert_outputs": {"summarizer": "直接"}}`,
			wantTask: DefaultTask,
			wantOutputs: 1,
		},
		{name: "plain prose", raw: "今天科技圈有什么大事？", wantNil: true},
		{name: "malformed json", raw: `{"expert_outputs": {`, wantNil: true},
		{name: "object without outputs", raw: `{"task": "孤立任务"}`, wantNil: true},
		{name: "empty string outputs", raw: `{"expert_outputs": {"summarizer": ""}}`, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := ExtractPayload(tt.raw)
			if tt.wantNil {
				if payload != nil {
					t.Fatalf("ExtractPayload() = %+v, want nil", payload)
				}
				return
			}
			if payload == nil {
				t.Fatal("ExtractPayload() = nil, want payload")
			}
			if payload.Task != tt.wantTask {
				t.Errorf("Task = %q, want %q", payload.Task, tt.wantTask)
			}
			if payload.Context != tt.wantContext {
				t.Errorf("Context = %q, want %q", payload.Context, tt.wantContext)
			}
			if len(payload.ExpertOutputs) != tt.wantOutputs {
				t.Errorf("len(ExpertOutputs) = %d, want %d", len(payload.ExpertOutputs), tt.wantOutputs)
			}
		})
	}
}

func TestExtractPayloadPrefersBareObject(t *testing.T) {
	raw := `{"task": "外层任务", "expert_outputs": {"summarizer": "外层"}}`
	payload := ExtractPayload(raw + "\n```json\n{\"expert_outputs\": {\"summarizer\": \"内层\"}}\n```")
	// The raw text no longer starts with "{"... the fenced block should win here.
	if payload == nil {
		t.Fatal("ExtractPayload() = nil")
	}

	bare := ExtractPayload(raw)
	if bare == nil || bare.ExpertOutputs[RoleSummarizer] != "外层" {
		t.Errorf("bare object payload = %+v, want summarizer=外层", bare)
	}
}
