// internal/models/application.go
package models

// ApplicationStatus enumerates the lifecycle states of an application.
type ApplicationStatus string

const (
	StatusInProgress             ApplicationStatus = "in_progress"
	StatusDisqualified           ApplicationStatus = "disqualified"
	StatusReadyForClassification ApplicationStatus = "ready_for_classification"
	StatusSubmitted              ApplicationStatus = "submitted"
)

// IsTerminal reports whether no further transitions are permitted.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusDisqualified || s == StatusSubmitted
}

// StageResult records the outcome of scoring one stage.
// QuestionScores retains the raw 0-10 score per question so bonus rules can
// be evaluated at finalization without rescoring stored responses.
type StageResult struct {
	StageIndex      int            `json:"stageIndex"`
	NormalizedScore int            `json:"normalizedScore"`
	Passed          bool           `json:"passed"`
	EvaluatedAt     string         `json:"evaluatedAt"` // ISO 8601
	QuestionScores  map[string]int `json:"questionScores,omitempty"`
}

// DisqualificationReport explains a failed qualification gate.
type DisqualificationReport struct {
	StageIndex    int `json:"stageIndex"`
	ActualScore   int `json:"actualScore"`
	RequiredScore int `json:"requiredScore"`
}

// ApplicationState is the single mutable value of an applicant's journey.
// It is advanced exclusively by the engine; callers treat it as immutable
// between calls and replace the stored value only on success.
type ApplicationState struct {
	ID                string            `json:"id"`
	CurrentStageIndex int               `json:"currentStageIndex"`
	StageResults      []StageResult     `json:"stageResults"` // insertion order = evaluation order
	Status            ApplicationStatus `json:"status"`
	TotalScore        *int              `json:"totalScore,omitempty"`     // set only at submitted
	Bonus             *int              `json:"bonus,omitempty"`          // set only at submitted
	Classification    string            `json:"classification,omitempty"` // set only at submitted
	CreatedAt         string            `json:"createdAt"`
	UpdatedAt         string            `json:"updatedAt"`
}

// Clone returns a deep copy so engine operations never mutate their input.
func (a ApplicationState) Clone() ApplicationState {
	out := a
	out.StageResults = make([]StageResult, len(a.StageResults))
	for i, sr := range a.StageResults {
		out.StageResults[i] = sr
		if sr.QuestionScores != nil {
			scores := make(map[string]int, len(sr.QuestionScores))
			for k, v := range sr.QuestionScores {
				scores[k] = v
			}
			out.StageResults[i].QuestionScores = scores
		}
	}
	if a.TotalScore != nil {
		total := *a.TotalScore
		out.TotalScore = &total
	}
	if a.Bonus != nil {
		bonus := *a.Bonus
		out.Bonus = &bonus
	}
	return out
}

// StageResultFor returns the recorded result for a stage, if present.
func (a ApplicationState) StageResultFor(stageIndex int) (StageResult, bool) {
	for _, sr := range a.StageResults {
		if sr.StageIndex == stageIndex {
			return sr, true
		}
	}
	return StageResult{}, false
}
