package council

import "strings"

// Grade is the four-level qualitative review scale. Ordering: A > B > C > D.
type Grade string

const (
	GradeA Grade = "A" // 优秀：质量高，无明显问题
	GradeB Grade = "B" // 良好：质量较好，有小问题
	GradeC Grade = "C" // 及格：有明显问题需要改进
	GradeD Grade = "D" // 不及格：严重问题，需要重做
)

// DefaultGrade is used whenever grading input is absent or unrecognized.
// Grading is advisory, so ambiguous input must not crash the pipeline and
// must not count as worst-case either.
const DefaultGrade = GradeB

var gradeWeights = map[Grade]int{
	GradeA: 4,
	GradeB: 3,
	GradeC: 2,
	GradeD: 1,
}

// ParseGrade parses a grade letter from free text. Case-insensitive, and
// suffixed forms like "A+"/"A-" map to the base letter. Anything
// unrecognized falls back to DefaultGrade.
func ParseGrade(s string) Grade {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimRight(s, "+-")
	switch Grade(s) {
	case GradeA, GradeB, GradeC, GradeD:
		return Grade(s)
	default:
		return DefaultGrade
	}
}

// Weight returns the numeric value used for averaging (A=4 .. D=1).
func (g Grade) Weight() int {
	if w, ok := gradeWeights[g]; ok {
		return w
	}
	return gradeWeights[DefaultGrade]
}

// IsPassing reports whether the grade is C or above.
func (g Grade) IsPassing() bool {
	return g == GradeA || g == GradeB || g == GradeC
}

// NeedsDiscussion reports whether the grade triggers a consensus discussion.
func (g Grade) NeedsDiscussion() bool {
	return g == GradeC || g == GradeD
}

// AverageGrade collapses a set of grades into a single letter via the
// arithmetic mean of their weights. Empty input yields DefaultGrade.
func AverageGrade(grades []Grade) Grade {
	if len(grades) == 0 {
		return DefaultGrade
	}

	sum := 0
	for _, g := range grades {
		sum += g.Weight()
	}
	avg := float64(sum) / float64(len(grades))

	switch {
	case avg >= 3.5:
		return GradeA
	case avg >= 2.5:
		return GradeB
	case avg >= 1.5:
		return GradeC
	default:
		return GradeD
	}
}
