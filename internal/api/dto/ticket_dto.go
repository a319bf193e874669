package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string                `json:"subject"`
	Customer    string                `json:"customer"`
	Email       string                `json:"email"`
	Project     string                `json:"project"`
	Module      string                `json:"module"`
	Category    string                `json:"category"`
	SubCategory string                `json:"subCategory"`
	TypeOfIssue string                `json:"typeOfIssue"`
	Priority    domain.TicketPriority `json:"priority"`
	Description string                `json:"description"`
	Attachments []domain.Attachment   `json:"attachments"`
	ReportedBy  string                `json:"reportedBy"`
}

// UpdateTicketRequest carries optional updates; absent fields stay untouched.
type UpdateTicketRequest struct {
	Subject     *string                `json:"subject"`
	Customer    *string                `json:"customer"`
	Project     *string                `json:"project"`
	Module      *string                `json:"module"`
	Category    *string                `json:"category"`
	SubCategory *string                `json:"subCategory"`
	TypeOfIssue *string                `json:"typeOfIssue"`
	Priority    *domain.TicketPriority `json:"priority"`
	Description *string                `json:"description"`
	Status      *domain.TicketStatus   `json:"status"`
	Starred     *bool                  `json:"starred"`
	AssignedTo  *string                `json:"assignedTo"`
	ReportedBy  *string                `json:"reportedBy"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticketNumber"`
	Subject      string                `json:"subject"`
	Customer     string                `json:"customer"`
	Email        string                `json:"email"`
	Project      string                `json:"project"`
	ProjectID    string                `json:"projectId"`
	Module       string                `json:"module"`
	Category     string                `json:"category"`
	SubCategory  string                `json:"subCategory"`
	TypeOfIssue  string                `json:"typeOfIssue"`
	Priority     domain.TicketPriority `json:"priority"`
	Description  string                `json:"description"`
	Status       domain.TicketStatus   `json:"status"`
	Starred      bool                  `json:"starred"`
	Attachments  []domain.Attachment   `json:"attachments"`
	Comments     []domain.Comment      `json:"comments"`
	ReportedBy   string                `json:"reportedBy"`
	AssignedTo   *string               `json:"assignedTo"`
	Created      time.Time             `json:"created"`
	LastUpdated  time.Time             `json:"lastUpdated"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Message     string              `json:"message"`
	Attachments []domain.Attachment `json:"attachments"`
	AuthorName  string              `json:"authorName"`
	AuthorEmail string              `json:"authorEmail"`
	AuthorRole  domain.Role         `json:"authorRole"`
}

// EditCommentRequest payload.
type EditCommentRequest struct {
	Message string `json:"message"`
}

// CandidateResponse is an assignment or requester candidate.
type CandidateResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role,omitempty"`
}

// FormConfigRequest carries form configuration updates.
type FormConfigRequest struct {
	Fields             any `json:"fields"`
	ModuleOptions      any `json:"moduleOptions"`
	CategoryOptions    any `json:"categoryOptions"`
	SubCategoryOptions any `json:"subCategoryOptions"`
}
