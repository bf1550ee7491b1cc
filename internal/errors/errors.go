// internal/errors/errors.go
package appErrors

import "fmt"

// NotFoundError is the shared shape for row-lookup misses. Controllers map it
// to a 404.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// Helper constructors
func NewStoryNotFound(id int) error        { return &NotFoundError{Resource: "story", ID: id} }
func NewUserNotFound(id any) error         { return &NotFoundError{Resource: "user", ID: id} }
func NewCampaignNotFound(id int) error     { return &NotFoundError{Resource: "campaign", ID: id} }
func NewTemplateNotFound(key string) error { return &NotFoundError{Resource: "template", ID: key} }
func NewVoiceProfileNotFound(id int) error {
	return &NotFoundError{Resource: "voice profile", ID: id}
}
func NewNarrationNotFound(id int) error    { return &NotFoundError{Resource: "narration", ID: id} }
func NewVideoTaskNotFound(id string) error { return &NotFoundError{Resource: "video task", ID: id} }
func NewDeliveryNotFound(id int) error     { return &NotFoundError{Resource: "delivery", ID: id} }
func NewInviteNotFound(token string) error { return &NotFoundError{Resource: "invite", ID: token} }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// ForbiddenError signals a collaborator-role check failure.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

func NewForbidden(reason string) error {
	return &ForbiddenError{Reason: reason}
}

func IsForbidden(err error) bool {
	_, ok := err.(*ForbiddenError)
	return ok
}
