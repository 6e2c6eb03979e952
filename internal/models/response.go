// internal/models/response.go
package models

// Response is one submitted answer. Exactly one of the value fields is
// meaningful depending on the question kind:
//   - Selected carries the chosen option score(s) for choice questions
//     (values are opaque scalars matched against the catalog options)
//   - Value carries the slider position
//   - Text carries the free-text answer
type Response struct {
	QuestionID string   `json:"questionId"`
	Selected   []int    `json:"selected,omitempty"`
	Value      *float64 `json:"value,omitempty"`
	Text       string   `json:"text,omitempty"`
}

// ResponseBundle maps question ID to the submitted response for one stage.
type ResponseBundle map[string]Response

// BundleOf builds a ResponseBundle from a list of responses. A later
// response for the same question replaces the earlier one.
func BundleOf(responses []Response) ResponseBundle {
	bundle := make(ResponseBundle, len(responses))
	for _, r := range responses {
		bundle[r.QuestionID] = r
	}
	return bundle
}
