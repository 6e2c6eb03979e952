// internal/engine/classify/classify.go

// Package classify maps a final total score to a classification band.
package classify

import (
	"screening-engine/internal/engine/catalog"
)

// Classifier walks the descending classification thresholds and returns the
// first band the total score satisfies. Strictly descending thresholds are
// enforced at catalog load, which makes the mapping monotonic: a higher
// total never classifies below a lower one.
type Classifier struct {
	bands       []catalog.ClassificationBand
	defaultBand string
}

// NewClassifier creates a classifier from the catalog's threshold table.
func NewClassifier(bands []catalog.ClassificationBand, defaultBand string) *Classifier {
	return &Classifier{bands: bands, defaultBand: defaultBand}
}

// Classify returns the label for the given total score, falling back to the
// default band when no threshold is met.
func (c *Classifier) Classify(totalScore int) string {
	for _, band := range c.bands {
		if totalScore >= band.MinTotalScore {
			return band.Label
		}
	}
	return c.defaultBand
}
