package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityCritical TicketPriority = "Critical"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityLow      TicketPriority = "Low"
)

// Attachment is an opaque reference to an uploaded file.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
}

// Comment is one entry of a ticket's embedded discussion thread.
type Comment struct {
	Message      string       `json:"message"`
	Attachments  []Attachment `json:"attachments"`
	Timestamp    time.Time    `json:"timestamp"`
	AuthorEmail  string       `json:"authorEmail"`
	AuthorName   string       `json:"authorName,omitempty"`
	AuthorRole   Role         `json:"authorRole"`
	LastEditedAt *time.Time   `json:"lastEditedAt,omitempty"`
	LastEditedBy string       `json:"lastEditedBy,omitempty"`
}

// Ticket is the aggregate for support requests. Comments and attachments are
// embedded: comment edits address entries by index within one ticket.
type Ticket struct {
	ID           string
	TicketNumber string
	Subject      string
	Customer     string
	Email        string
	Project      string
	ProjectID    string
	Module       string
	Category     string
	SubCategory  string
	TypeOfIssue  string
	Priority     TicketPriority
	Description  string
	Status       TicketStatus
	Starred      bool
	Attachments  []Attachment
	Comments     []Comment
	ReportedBy   string
	RequesterID  string
	AssignedTo   *string
	Created      time.Time
	LastUpdated  time.Time
}
