package queue

import "time"

// EmailOptions addresses a message.
type EmailOptions struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
}

// EmailContext is rendered into the shared HTML layout.
type EmailContext struct {
	Description string `json:"description"`
	Subject     string `json:"subject"`
	Action      string `json:"action,omitempty"`
	ActionURL   string `json:"actionUrl,omitempty"`
	Message     string `json:"message,omitempty"`
	BtnText     string `json:"btnText,omitempty"`
}

// EmailJob is one queued email.
type EmailJob struct {
	ID           string       `json:"id"`
	EmailOptions EmailOptions `json:"emailOptions"`
	Context      EmailContext `json:"context"`
	Attempts     int          `json:"attempts"`
	EnqueuedAt   time.Time    `json:"enqueuedAt"`
	LastError    string       `json:"lastError,omitempty"`
	// Sensitive jobs carry credentials or single use links in Message and
	// ActionURL. Those fields are blanked before a job is parked as dead.
	Sensitive bool `json:"sensitive,omitempty"`
}

const redacted = "[redacted]"

// Redacted returns the job with credential bearing fields blanked when it
// is sensitive.
func (j EmailJob) Redacted() EmailJob {
	if !j.Sensitive {
		return j
	}
	if j.Context.Message != "" {
		j.Context.Message = redacted
	}
	if j.Context.ActionURL != "" {
		j.Context.ActionURL = redacted
	}
	return j
}
