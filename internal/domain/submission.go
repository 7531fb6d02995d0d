package domain

import (
	"regexp"
	"strings"
)

// FormError is a user-facing validation failure for a form field.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string {
	return e.Message
}

// Form validation messages.
const (
	MsgEmailRequired = "Please enter your email address"
	MsgEmailInvalid  = "Please enter a valid email address"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail applies the waitlist email rules.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &FormError{Field: "email", Message: MsgEmailRequired}
	}
	if !emailPattern.MatchString(email) {
		return &FormError{Field: "email", Message: MsgEmailInvalid}
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &FormError{Field: field, Message: "Please fill in the " + field + " field"}
	}
	return nil
}

// ContactForm is the body of POST /contact.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Validate checks that every contact field is filled and the email is well formed.
func (f ContactForm) Validate() error {
	for _, fv := range [][2]string{{"name", f.Name}, {"email", f.Email}, {"subject", f.Subject}, {"message", f.Message}} {
		if err := required(fv[0], fv[1]); err != nil {
			return err
		}
	}
	return ValidateEmail(f.Email)
}

// FeedbackType categorizes submitted feedback.
type FeedbackType string

const (
	FeedbackGeneral     FeedbackType = "general"
	FeedbackFeature     FeedbackType = "feature"
	FeedbackBug         FeedbackType = "bug"
	FeedbackImprovement FeedbackType = "improvement"
)

// Priority ranks submitted feedback.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// FeedbackForm is the body of POST /feedback.
type FeedbackForm struct {
	Name         string       `json:"name,omitempty"`
	Email        string       `json:"email,omitempty"`
	FeedbackType FeedbackType `json:"feedback_type"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Priority     Priority     `json:"priority"`
}

// WithDefaults fills the type and priority the form preselects.
func (f FeedbackForm) WithDefaults() FeedbackForm {
	if f.FeedbackType == "" {
		f.FeedbackType = FeedbackGeneral
	}
	if f.Priority == "" {
		f.Priority = PriorityMedium
	}
	return f
}

// Validate checks required fields and enumerations. Name and email are optional,
// but a supplied email must be well formed.
func (f FeedbackForm) Validate() error {
	switch f.FeedbackType {
	case FeedbackGeneral, FeedbackFeature, FeedbackBug:
	default:
		return &FormError{Field: "feedback_type", Message: "Feedback type must be one of: general, feature, bug"}
	}
	switch f.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
	default:
		return &FormError{Field: "priority", Message: "Priority must be one of: low, medium, high, urgent"}
	}
	if err := required("title", f.Title); err != nil {
		return err
	}
	if err := required("description", f.Description); err != nil {
		return err
	}
	if strings.TrimSpace(f.Email) != "" {
		return ValidateEmail(f.Email)
	}
	return nil
}

// SubmissionResponse is returned by the contact and feedback endpoints.
type SubmissionResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	TicketID   string `json:"ticket_id,omitempty"`
	FeedbackID string `json:"feedback_id,omitempty"`
}

// ContactSubmission is one past support ticket.
type ContactSubmission struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	TicketID  string `json:"ticket_id"`
	CreatedAt string `json:"created_at"`
}

// FeedbackSubmission is one past feedback entry.
type FeedbackSubmission struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Priority     Priority     `json:"priority"`
	FeedbackType FeedbackType `json:"feedback_type"`
	FeedbackID   string       `json:"feedback_id"`
	CreatedAt    string       `json:"created_at"`
}

// UserSubmissions is the body returned by GET /my-submissions.
type UserSubmissions struct {
	Success             bool                 `json:"success"`
	ContactSubmissions  []ContactSubmission  `json:"contact_submissions"`
	FeedbackSubmissions []FeedbackSubmission `json:"feedback_submissions"`
}

// WaitlistRequest is the body of POST /waitlist.
type WaitlistRequest struct {
	Email string `json:"email"`
}

// WaitlistResponse is the body returned by POST /waitlist.
type WaitlistResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
