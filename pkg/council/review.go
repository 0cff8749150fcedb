package council

import "regexp"

// ReviewResult captures one reviewer's verdict on one reviewee's output.
// Unparsed marks results whose grade fell back to the neutral default because
// the reviewer response carried no recognizable grade; the default itself is
// kept so off-format reviews stay advisory rather than punitive.
type ReviewResult struct {
	Reviewer Role
	Reviewee Role
	Grade    Grade
	Unparsed bool
	Content  string
}

// Conflict is a review whose grade calls for a consensus discussion.
type Conflict struct {
	Topic    string
	Grade    Grade
	Reviewer Role
	Reviewee Role
	Content  string
}

var (
	overallGradeRe = regexp.MustCompile(`(?i)"overall_grade"\s*:\s*"([ABCD])"`)
	gradeLabelRe   = regexp.MustCompile(`(?i)等级[：:]\s*([ABCD])`)
)

// ExtractGrade mines a reviewer's free-text response for a grade letter.
// Priority: JSON-style "overall_grade" field, then a 等级 label. The second
// return value reports whether a grade was actually found; when false the
// neutral default is returned. Never fails.
func ExtractGrade(text string) (Grade, bool) {
	if m := overallGradeRe.FindStringSubmatch(text); m != nil {
		return ParseGrade(m[1]), true
	}
	if m := gradeLabelRe.FindStringSubmatch(text); m != nil {
		return ParseGrade(m[1]), true
	}
	return DefaultGrade, false
}

const conflictContentLimit = 300

// IdentifyConflicts selects the reviews needing discussion, preserving the
// incoming (matrix) order so the discussion cap stays deterministic.
func IdentifyConflicts(reviews []ReviewResult) []Conflict {
	var conflicts []Conflict
	for _, r := range reviews {
		if !r.Grade.NeedsDiscussion() {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Topic:    string(r.Reviewer) + " 对 " + string(r.Reviewee) + " 的评审",
			Grade:    r.Grade,
			Reviewer: r.Reviewer,
			Reviewee: r.Reviewee,
			Content:  truncate(r.Content, conflictContentLimit),
		})
	}
	return conflicts
}

// truncate cuts s to at most limit runes, appending an ellipsis when cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
