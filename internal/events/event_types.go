package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketUpdated      EventType = "ticket_updated"
	EventTicketCommentAdded EventType = "ticket_comment_added"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	Subject      string                `json:"subject"`
	Project      string                `json:"project"`
	Priority     domain.TicketPriority `json:"priority"`
	Recipients   []string              `json:"recipients"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	TicketNumber string   `json:"ticket_number"`
	Fields       []string `json:"fields"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	TicketNumber string      `json:"ticket_number"`
	AuthorEmail  string      `json:"author_email"`
	AuthorRole   domain.Role `json:"author_role"`
	Preview      string      `json:"preview"`
}
