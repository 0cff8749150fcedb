package council

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"news-council-be/pkg/llm"
)

const (
	// NoOutputsMessage is returned when a run is requested without any
	// expert outputs. A guard result, not an error.
	NoOutputsMessage = "未提供专家输出，无法进行交叉评审。"

	previewLimit      = 500  // stage-1 recap preview
	contextSliceLimit = 1000 // context slice handed to reviewers
	synthesisLimit    = 800  // per-expert slice handed to the chairman
	maxDiscussions    = 3    // stage-3 fan-out cap
)

// ProgressFunc receives coarse progress notifications during a run. Optional.
type ProgressFunc func(stage, detail string)

// RunnerOption configures a Runner at construction time.
type RunnerOption func(*Runner)

// WithMatrix substitutes the cross-review matrix.
func WithMatrix(m ReviewMatrix) RunnerOption {
	return func(r *Runner) { r.matrix = m }
}

// WithReviewConcurrency caps the number of in-flight stage-2 review calls.
// Zero or negative restores the default (full matrix size).
func WithReviewConcurrency(n int) RunnerOption {
	return func(r *Runner) { r.reviewLimit = n }
}

// WithCallTimeout bounds every single backend call. A hung reviewer degrades
// to a failure note instead of stalling the whole council.
func WithCallTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.callTimeout = d }
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) RunnerOption {
	return func(r *Runner) { r.onProgress = fn }
}

// Runner drives the four-stage council workflow: recap, cross-review,
// consensus discussion, chairman synthesis. One reasoning backend per role;
// the handle map is read-only after construction.
type Runner struct {
	providers   map[Role]llm.LLMProvider
	prompts     *PromptSet
	matrix      ReviewMatrix
	reviewLimit int
	callTimeout time.Duration
	onProgress  ProgressFunc
}

func NewRunner(providers map[Role]llm.LLMProvider, prompts *PromptSet, opts ...RunnerOption) *Runner {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	r := &Runner{
		providers:   providers,
		prompts:     prompts,
		matrix:      DefaultMatrix(),
		callTimeout: 120 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.reviewLimit <= 0 {
		r.reviewLimit = r.matrix.Size()
	}
	return r
}

// RunCouncil executes the council over pre-supplied expert outputs and
// returns the assembled Markdown report. Backend failures degrade to visible
// report content; the call itself only errs on internal misuse, so callers
// always receive a textual report.
func (r *Runner) RunCouncil(ctx context.Context, task, contextText string, expertOutputs map[Role]string) (string, error) {
	if len(expertOutputs) == 0 {
		return NoOutputsMessage, nil
	}

	parts := []string{
		"# 专家委员会分析报告\n",
		fmt.Sprintf("**分析任务**: %s\n", task),
	}

	// Stage 1: Independent analysis (provided)
	r.notify("stage1", "独立分析回顾")
	parts = append(parts, "\n---\n## 阶段 1: 独立分析（已提供）\n")
	var missing []string
	for _, expert := range ExpectedExperts {
		if _, ok := expertOutputs[expert]; !ok {
			missing = append(missing, string(expert))
		}
	}
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("缺少专家输出: %s\n", strings.Join(missing, ", ")))
	}
	for _, expert := range ExpectedExperts {
		if output, ok := expertOutputs[expert]; ok {
			parts = append(parts, fmt.Sprintf("\n### %s\n%s\n", expert, truncate(output, previewLimit)))
		}
	}

	// Stage 2: Cross-review
	r.notify("stage2", "交叉评审开始")
	parts = append(parts, "\n---\n## 阶段 2: 交叉评审\n")
	reviews := r.stage2CrossReview(ctx, expertOutputs, contextText)

	gradeSummary := map[Role][]Grade{}
	for _, review := range reviews {
		gradeSummary[review.Reviewee] = append(gradeSummary[review.Reviewee], review.Grade)
	}

	parts = append(parts, "\n### 评审等级汇总\n")
	for _, reviewee := range r.matrix.Reviewees() {
		grades, ok := gradeSummary[reviewee]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("- **%s**: %s (来自 %d 位评审)\n",
			reviewee, AverageGrade(grades), len(grades)))
	}

	conflicts := IdentifyConflicts(reviews)

	// Stage 3: Consensus discussion
	parts = append(parts, "\n---\n## 阶段 3: 共识讨论\n")
	var discussionText string
	if len(conflicts) > 0 {
		r.notify("stage3", fmt.Sprintf("发现 %d 个分歧点", len(conflicts)))
		parts = append(parts, fmt.Sprintf("发现 %d 个需要讨论的分歧点\n", len(conflicts)))
		discussionText = r.stage3ConsensusDiscussion(ctx, conflicts)
		parts = append(parts, discussionText)
	} else {
		r.notify("stage3", "专家意见一致")
		parts = append(parts, "专家意见基本一致，无需额外讨论\n")
	}

	// Stage 4: Chairman synthesis
	r.notify("stage4", "主管综合裁决")
	parts = append(parts, "\n---\n## 阶段 4: 主管综合裁决\n")
	parts = append(parts, r.stage4ChairmanSynthesis(ctx, task, expertOutputs, gradeSummary, conflicts, discussionText))

	return strings.Join(parts, "\n"), nil
}

type reviewCall struct {
	reviewer Role
	reviewee Role
	focus    string
}

// stage2CrossReview launches every applicable matrix assignment concurrently
// and joins once. A reviewee absent from the outputs is skipped entirely, as
// is any assignment whose reviewer is absent: you cannot ask an absent expert
// to review. Results land at their launch index, so aggregation order is
// matrix order regardless of completion order.
func (r *Runner) stage2CrossReview(ctx context.Context, expertOutputs map[Role]string, contextText string) []ReviewResult {
	var calls []reviewCall
	for _, reviewee := range r.matrix.Reviewees() {
		if _, ok := expertOutputs[reviewee]; !ok {
			continue
		}
		for _, assignment := range r.matrix.AssignmentsFor(reviewee) {
			if _, ok := expertOutputs[assignment.Reviewer]; !ok {
				continue
			}
			calls = append(calls, reviewCall{
				reviewer: assignment.Reviewer,
				reviewee: reviewee,
				focus:    assignment.Focus,
			})
		}
	}

	results := make([]ReviewResult, len(calls))
	g := new(errgroup.Group)
	g.SetLimit(r.reviewLimit)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = r.doReview(ctx, call, expertOutputs[call.reviewee], contextText)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // review goroutines never return errors

	return results
}

// doReview performs a single review call. Any failure degrades this one
// result to grade C with an inline note; it never aborts the batch.
func (r *Runner) doReview(ctx context.Context, call reviewCall, revieweeOutput, contextText string) ReviewResult {
	prompt := r.prompts.CrossReview(call.reviewer, call.reviewee, revieweeOutput, head(contextText, contextSliceLimit), call.focus)
	messages := []llm.Message{
		{Role: "system", Content: r.prompts.Description(call.reviewer)},
		{Role: "user", Content: prompt},
	}

	response, err := r.invoke(ctx, r.providers[call.reviewer], messages)
	if err != nil {
		r.notify("review_failed", fmt.Sprintf("%s → %s: %v", call.reviewer, call.reviewee, err))
		return ReviewResult{
			Reviewer: call.reviewer,
			Reviewee: call.reviewee,
			Grade:    GradeC,
			Content:  fmt.Sprintf("评审失败: %v", err),
		}
	}

	grade, found := ExtractGrade(response)
	r.notify("review_done", fmt.Sprintf("%s → %s: %s", call.reviewer, call.reviewee, grade))
	return ReviewResult{
		Reviewer: call.reviewer,
		Reviewee: call.reviewee,
		Grade:    grade,
		Unparsed: !found,
		Content:  response,
	}
}

// stage3ConsensusDiscussion lets each conflicting reviewee answer its
// reviewer's critique, capped at maxDiscussions calls. Missing handle skips
// the conflict; a failed call becomes a note and the stage continues.
func (r *Runner) stage3ConsensusDiscussion(ctx context.Context, conflicts []Conflict) string {
	if len(conflicts) > maxDiscussions {
		conflicts = conflicts[:maxDiscussions]
	}

	var discussions []string
	for _, conflict := range conflicts {
		provider, ok := r.providers[conflict.Reviewee]
		if !ok {
			continue
		}

		prompt := r.prompts.Discussion(conflict.Reviewee, conflict.Reviewer, conflict.Grade, conflict.Content)
		response, err := r.invoke(ctx, provider, []llm.Message{{Role: "user", Content: prompt}})
		if err != nil {
			discussions = append(discussions,
				fmt.Sprintf("\n### 分歧: %s\n", conflict.Topic),
				fmt.Sprintf("讨论失败: %v\n", err),
			)
			continue
		}

		discussions = append(discussions,
			fmt.Sprintf("\n### 分歧: %s\n", conflict.Topic),
			fmt.Sprintf("**评审等级**: %s\n", conflict.Grade),
			fmt.Sprintf("**%s 的回应**:\n%s\n", conflict.Reviewee, response),
		)
	}

	return strings.Join(discussions, "\n")
}

// stage4ChairmanSynthesis issues the single terminal synthesis call. Its
// failure substitutes an explicit failure string; there is no retry.
func (r *Runner) stage4ChairmanSynthesis(
	ctx context.Context,
	task string,
	expertOutputs map[Role]string,
	gradeSummary map[Role][]Grade,
	conflicts []Conflict,
	discussionText string,
) string {
	var expertSections []string
	for _, expert := range synthesisOrder(expertOutputs) {
		expertSections = append(expertSections, fmt.Sprintf("### %s\n%s", expert, truncate(expertOutputs[expert], synthesisLimit)))
	}

	var reviewLines []string
	for _, reviewee := range r.matrix.Reviewees() {
		if grades, ok := gradeSummary[reviewee]; ok {
			reviewLines = append(reviewLines, fmt.Sprintf("- %s: 平均等级 %s", reviewee, AverageGrade(grades)))
		}
	}

	conflictText := "无明显分歧"
	if len(conflicts) > 0 {
		var lines []string
		for _, c := range conflicts {
			lines = append(lines, fmt.Sprintf("- %s: 等级 %s", c.Topic, c.Grade))
		}
		conflictText = strings.Join(lines, "\n")
	}

	prompt := r.prompts.ChairmanSynthesis(
		task,
		strings.Join(expertSections, "\n\n"),
		strings.Join(reviewLines, "\n"),
		conflictText,
		discussionText,
	)

	messages := []llm.Message{
		{Role: "system", Content: r.prompts.ChairmanSystem},
		{Role: "user", Content: prompt},
	}
	response, err := r.invoke(ctx, r.providers[RoleExpertSupervisor], messages)
	if err != nil {
		return fmt.Sprintf("主管综合失败: %v", err)
	}
	return response
}

// invoke wraps one backend call with the per-call timeout. The only error
// handling policy in the council is degrade-not-propagate, so every caller
// turns the returned error into report content.
func (r *Runner) invoke(ctx context.Context, provider llm.LLMProvider, messages []llm.Message) (string, error) {
	if provider == nil {
		return "", fmt.Errorf("no model handle configured")
	}
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return provider.Chat(callCtx, messages)
}

func (r *Runner) notify(stage, detail string) {
	if r.onProgress != nil {
		r.onProgress(stage, detail)
	}
}

// synthesisOrder lists every supplied output role for the chairman: the
// expected experts in their canonical order, then any extra roles sorted by
// name. The chairman sees everything the caller provided.
func synthesisOrder(expertOutputs map[Role]string) []Role {
	roles := make([]Role, 0, len(expertOutputs))
	seen := map[Role]bool{}
	for _, expert := range ExpectedExperts {
		if _, ok := expertOutputs[expert]; ok {
			roles = append(roles, expert)
			seen[expert] = true
		}
	}

	var extras []Role
	for role := range expertOutputs {
		if !seen[role] {
			extras = append(extras, role)
		}
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i] < extras[j] })

	return append(roles, extras...)
}

// head cuts s to at most limit runes with no ellipsis.
func head(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
