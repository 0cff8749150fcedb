package council

// Role identifies an expert seat on the council.
type Role string

const (
	RoleSummarizer       Role = "summarizer"
	RoleFactChecker      Role = "fact_checker"
	RoleResearcher       Role = "researcher"
	RoleImpactAssessor   Role = "impact_assessor"
	RoleExpertSupervisor Role = "expert_supervisor" // chairman
)

// ExpectedExperts are the four content experts whose outputs feed the council.
// The supervisor never produces an independent analysis of its own.
var ExpectedExperts = []Role{
	RoleSummarizer,
	RoleFactChecker,
	RoleResearcher,
	RoleImpactAssessor,
}

// ReviewDimension is an aspect a reviewer is asked to evaluate.
type ReviewDimension string

const (
	DimensionAccuracy     ReviewDimension = "accuracy"
	DimensionCompleteness ReviewDimension = "completeness"
	DimensionConsistency  ReviewDimension = "consistency"
	DimensionEvidence     ReviewDimension = "evidence"
	DimensionLogic        ReviewDimension = "logic"
)

// ReviewAssignment is one static entry of the cross-review matrix: which
// reviewer evaluates a reviewee, on which dimensions, with what focus.
type ReviewAssignment struct {
	Reviewer   Role
	Dimensions []ReviewDimension
	Focus      string
}

type matrixEntry struct {
	Reviewee    Role
	Assignments []ReviewAssignment
}

// ReviewMatrix is the hand-curated bipartite relation driving stage-2 fan-out.
// Entry order is significant: it fixes review launch order and therefore the
// deterministic "first N" conflict selection.
type ReviewMatrix struct {
	entries []matrixEntry
}

// AssignmentsFor returns the reviewer assignments for a reviewee, or nil if
// the reviewee is not part of the matrix.
func (m ReviewMatrix) AssignmentsFor(reviewee Role) []ReviewAssignment {
	for _, e := range m.entries {
		if e.Reviewee == reviewee {
			return e.Assignments
		}
	}
	return nil
}

// Reviewees returns the reviewee roles in matrix order.
func (m ReviewMatrix) Reviewees() []Role {
	roles := make([]Role, 0, len(m.entries))
	for _, e := range m.entries {
		roles = append(roles, e.Reviewee)
	}
	return roles
}

// Size returns the total number of assignments in the matrix.
func (m ReviewMatrix) Size() int {
	n := 0
	for _, e := range m.entries {
		n += len(e.Assignments)
	}
	return n
}

// DefaultMatrix returns the cross-review matrix for the four content experts.
// 借鉴 LLM Council 的思想：异质专家之间按专业角度互审。
func DefaultMatrix() ReviewMatrix {
	return ReviewMatrix{entries: []matrixEntry{
		{
			Reviewee: RoleSummarizer,
			Assignments: []ReviewAssignment{
				{
					Reviewer:   RoleFactChecker,
					Dimensions: []ReviewDimension{DimensionAccuracy},
					Focus:      "摘要中的事实声明是否准确？关键数据是否正确？",
				},
				{
					Reviewer:   RoleResearcher,
					Dimensions: []ReviewDimension{DimensionCompleteness},
					Focus:      "摘要是否遗漏了重要的背景信息或上下文？",
				},
				{
					Reviewer:   RoleImpactAssessor,
					Dimensions: []ReviewDimension{DimensionCompleteness},
					Focus:      "摘要是否涵盖了影响分析所需的关键要素？",
				},
			},
		},
		{
			Reviewee: RoleFactChecker,
			Assignments: []ReviewAssignment{
				{
					Reviewer:   RoleResearcher,
					Dimensions: []ReviewDimension{DimensionEvidence, DimensionCompleteness},
					Focus:      "核查是否涵盖所有关键声明？历史数据引用是否准确？",
				},
				{
					Reviewer:   RoleSummarizer,
					Dimensions: []ReviewDimension{DimensionConsistency},
					Focus:      "核查结果与原始摘要是否一致？是否有矛盾？",
				},
			},
		},
		{
			Reviewee: RoleResearcher,
			Assignments: []ReviewAssignment{
				{
					Reviewer:   RoleFactChecker,
					Dimensions: []ReviewDimension{DimensionAccuracy, DimensionEvidence},
					Focus:      "背景信息是否准确？来源是否可靠？",
				},
				{
					Reviewer:   RoleImpactAssessor,
					Dimensions: []ReviewDimension{DimensionCompleteness, DimensionLogic},
					Focus:      "背景是否为影响分析提供了足够支撑？历史案例是否相关？",
				},
			},
		},
		{
			Reviewee: RoleImpactAssessor,
			Assignments: []ReviewAssignment{
				{
					Reviewer:   RoleResearcher,
					Dimensions: []ReviewDimension{DimensionEvidence, DimensionLogic},
					Focus:      "影响预测是否有历史依据？推理逻辑是否合理？",
				},
				{
					Reviewer:   RoleFactChecker,
					Dimensions: []ReviewDimension{DimensionAccuracy, DimensionLogic},
					Focus:      "预测基于的前提是否经过验证？因果关系是否成立？",
				},
			},
		},
	}}
}
