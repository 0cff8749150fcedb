package council

import (
	"fmt"
	"strings"
)

// PromptSet bundles every prompt the council issues. It is built once and
// injected into the Runner, so tests can substitute fake prompts without
// touching package state.
type PromptSet struct {
	// Descriptions are the per-role system prompts for the content experts.
	Descriptions map[Role]string
	// ChairmanSystem is the supervisor's system prompt for stage 4.
	ChairmanSystem string
}

// DefaultPrompts returns the production prompt set.
func DefaultPrompts() *PromptSet {
	return &PromptSet{
		Descriptions: map[Role]string{
			RoleSummarizer:     "你专注于提取核心要点和生成结构化摘要，擅长信息压缩和关键信息识别。",
			RoleFactChecker:    "你专注于核查事实声明的真实性，擅长信息溯源和证据验证。",
			RoleResearcher:     "你专注于补充背景信息和关联历史事件，擅长构建完整的上下文。",
			RoleImpactAssessor: "你专注于评估影响和预测趋势，擅长多维度分析和前瞻性判断。",
		},
		ChairmanSystem: "你是专家委员会主管（Chairman），负责综合各专家的分析和讨论，形成最终结论。",
	}
}

// Description returns the system prompt for a role, or "" when unknown.
func (p *PromptSet) Description(role Role) string {
	return p.Descriptions[role]
}

// CrossReview builds the stage-2 review prompt for one matrix assignment.
func (p *PromptSet) CrossReview(reviewer, reviewee Role, revieweeOutput, originalContext, focus string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "你是 %s，现在需要从你的专业角度评审 %s 的分析结果。\n\n", reviewer, reviewee)
	fmt.Fprintf(&b, "## 你的专业职责\n%s\n\n", p.Description(reviewer))
	fmt.Fprintf(&b, "## 评审重点\n%s\n\n", focus)
	fmt.Fprintf(&b, "## 待评审内容\n\n### %s 的分析结果：\n%s\n\n", reviewee, revieweeOutput)
	fmt.Fprintf(&b, "### 原始分析主题/素材：\n%s\n\n", originalContext)
	b.WriteString(`---

## 评审等级说明（A/B/C/D 四级制）

| 等级 | 含义 | 标准 |
|------|------|------|
| **A** | 优秀 | 质量高，无明显问题，可直接采用 |
| **B** | 良好 | 质量较好，有小问题但不影响整体 |
| **C** | 及格 | 有明显问题，需要改进后才能采用 |
| **D** | 不及格 | 存在严重问题，需要重新分析 |

## 输出格式

请以 JSON 格式输出评审结果，必须包含 "overall_grade" 字段：

` + "```json" + `
{
  "overall_grade": "B",
  "issues": ["具体问题描述"],
  "agreement_points": ["认同的观点"],
  "suggestions": ["改进建议"]
}
` + "```" + `
`)
	return b.String()
}

// Discussion builds the stage-3 rebuttal prompt addressed to the reviewee.
func (p *PromptSet) Discussion(reviewee, reviewer Role, grade Grade, critique string) string {
	return fmt.Sprintf(`你是 %s，你的分析被 %s 评为 %s 级。

%s 的评审意见:
%s

请针对这些意见进行回应（200字内）。
`, reviewee, reviewer, grade, reviewer, critique)
}

// ChairmanSynthesis builds the single stage-4 consolidation prompt.
func (p *PromptSet) ChairmanSynthesis(task, expertText, reviewText, conflictText, discussionText string) string {
	if discussionText == "" {
		discussionText = "专家意见一致，未进行讨论"
	}
	return fmt.Sprintf(`你是专家委员会主席，需要综合所有专家的分析做最终裁决。

## 原始任务
%s

## 各专家独立分析
%s

## 交叉评审结果
%s

## 分歧点
%s

## 讨论结果
%s

---

请生成最终的综合裁决报告，使用 Markdown 格式。
`, task, expertText, reviewText, conflictText, discussionText)
}
