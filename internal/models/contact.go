// internal/models/contact.go
package models

// Contact carries the applicant's delivery addresses for decision
// notifications. The surrounding application supplies it; the engine never
// stores contact data.
type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}
