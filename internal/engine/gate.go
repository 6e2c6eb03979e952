// internal/engine/gate.go
package engine

import (
	"screening-engine/internal/models"
)

// applyGate decides the successor status from a stage result. It mutates
// only the freshly cloned state the engine passes in; disqualification is a
// normal terminal business outcome, not an error.
func applyGate(state *models.ApplicationState, result models.StageResult, lastStage bool, requiredScore int) *models.DisqualificationReport {
	if !result.Passed {
		state.Status = models.StatusDisqualified
		return &models.DisqualificationReport{
			StageIndex:    result.StageIndex,
			ActualScore:   result.NormalizedScore,
			RequiredScore: requiredScore,
		}
	}

	if lastStage {
		state.Status = models.StatusReadyForClassification
		return nil
	}

	state.CurrentStageIndex++
	return nil
}
