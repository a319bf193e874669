package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

const (
	createMaxAttempts = 3
	defaultProject    = "General"
	duplicateWindow   = 24 * time.Hour
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	allocator  *NumberAllocator
	projects   *ProjectService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Allocator  *NumberAllocator
	Projects   *ProjectService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject     string
	Customer    string
	Email       string
	Project     string
	Module      string
	Category    string
	SubCategory string
	TypeOfIssue string
	Priority    domain.TicketPriority
	Description string
	Attachments []domain.Attachment
	ReportedBy  string
}

// CommentInput describes a comment to append.
type CommentInput struct {
	Message     string
	Attachments []domain.Attachment
	AuthorEmail string
	AuthorName  string
	AuthorRole  domain.Role
}

// AssignmentCandidate is a user eligible for ticket assignment or requester
// selection, with a ready-to-display name.
type AssignmentCandidate struct {
	ID    string
	Email string
	Name  string
	Role  domain.Role
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		allocator:  deps.Allocator,
		projects:   deps.Projects,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// Create validates the payload, allocates a display number and persists the
// ticket under the ticket_number uniqueness constraint. A constraint
// violation means another in-flight creation won the number, so the attempt
// is discarded and a fresh number allocated, up to createMaxAttempts times.
// Any other persistence error aborts immediately. On success the project's
// member emails are resolved (best-effort) for the caller to notify.
func (s *TicketService) Create(ctx context.Context, requester domain.Identity, input TicketCreateInput) (*domain.Ticket, []string, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, nil, err
	}

	projectName := strings.TrimSpace(input.Project)
	projectID := s.projects.ResolveID(ctx, projectName)
	if projectName == "" {
		projectName = defaultProject
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	attachments := input.Attachments
	if attachments == nil {
		attachments = []domain.Attachment{}
	}

	now := s.now()
	base := domain.Ticket{
		Subject:     strings.TrimSpace(input.Subject),
		Customer:    input.Customer,
		Email:       input.Email,
		Project:     projectName,
		ProjectID:   projectID,
		Module:      input.Module,
		Category:    input.Category,
		SubCategory: input.SubCategory,
		TypeOfIssue: input.TypeOfIssue,
		Priority:    priority,
		Description: input.Description,
		Status:      domain.TicketStatusOpen,
		Starred:     false,
		Attachments: attachments,
		Comments:    []domain.Comment{},
		ReportedBy:  input.ReportedBy,
		RequesterID: requester.ID,
		Created:     now,
		LastUpdated: now,
	}

	var lastErr error
	for attempt := 0; attempt < createMaxAttempts; attempt++ {
		ticket := base
		ticket.TicketNumber = s.allocator.Allocate(ctx, input.TypeOfIssue)

		err := s.tickets.Create(ctx, &ticket)
		if err == nil {
			recipients := s.projects.MemberEmails(ctx, ticket.Project)
			s.publishEvent(ctx, events.Event{
				Type:     events.EventTicketCreated,
				TicketID: ticket.ID,
				Actor:    actorFor(requester),
				Payload: events.TicketCreatedPayload{
					TicketNumber: ticket.TicketNumber,
					Subject:      ticket.Subject,
					Project:      ticket.Project,
					Priority:     ticket.Priority,
					Recipients:   recipients,
				},
			})
			return &ticket, recipients, nil
		}
		if errors.Is(err, repository.ErrDuplicateTicketNumber) {
			s.logger.Warn("duplicate ticket number, retrying",
				zap.String("ticket_number", ticket.TicketNumber),
				zap.Int("attempt", attempt+1))
			lastErr = err
			continue
		}
		return nil, nil, err
	}

	return nil, nil, util.NewCreateExhausted(lastErr)
}

// Get fetches a ticket by id with its comments ordered by timestamp.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ticket.Comments, func(i, j int) bool {
		return ticket.Comments[i].Timestamp.Before(ticket.Comments[j].Timestamp)
	})
	return ticket, nil
}

// TicketUpdateInput carries optional field updates; nil fields are untouched.
type TicketUpdateInput struct {
	Subject     *string
	Customer    *string
	Project     *string
	Module      *string
	Category    *string
	SubCategory *string
	TypeOfIssue *string
	Priority    *domain.TicketPriority
	Description *string
	Status      *domain.TicketStatus
	Starred     *bool
	AssignedTo  *string
	ReportedBy  *string
}

// Update applies field updates to a ticket and refreshes last_updated.
func (s *TicketService) Update(ctx context.Context, actor domain.Identity, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := []string{}
	setString := func(name string, dst *string, src *string) {
		if src != nil {
			*dst = *src
			fields = append(fields, name)
		}
	}
	setString("subject", &ticket.Subject, input.Subject)
	setString("customer", &ticket.Customer, input.Customer)
	setString("module", &ticket.Module, input.Module)
	setString("category", &ticket.Category, input.Category)
	setString("subCategory", &ticket.SubCategory, input.SubCategory)
	setString("typeOfIssue", &ticket.TypeOfIssue, input.TypeOfIssue)
	setString("description", &ticket.Description, input.Description)
	setString("reportedBy", &ticket.ReportedBy, input.ReportedBy)
	if input.Project != nil {
		ticket.Project = *input.Project
		ticket.ProjectID = s.projects.ResolveID(ctx, *input.Project)
		fields = append(fields, "project")
	}
	if input.Priority != nil {
		ticket.Priority = *input.Priority
		fields = append(fields, "priority")
	}
	if input.Status != nil {
		ticket.Status = *input.Status
		fields = append(fields, "status")
	}
	if input.Starred != nil {
		ticket.Starred = *input.Starred
		fields = append(fields, "starred")
	}
	if input.AssignedTo != nil {
		if *input.AssignedTo == "" {
			ticket.AssignedTo = nil
		} else {
			ticket.AssignedTo = input.AssignedTo
		}
		fields = append(fields, "assignedTo")
	}

	ticket.LastUpdated = s.now()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Actor:    actorFor(actor),
		Payload: events.TicketUpdatedPayload{
			TicketNumber: ticket.TicketNumber,
			Fields:       fields,
		},
	})
	return ticket, nil
}

// AddComment appends a comment to the ticket's thread.
func (s *TicketService) AddComment(ctx context.Context, actor domain.Identity, id string, input CommentInput) (*domain.Comment, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, util.NewValidationError("comment message is required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	authorEmail := input.AuthorEmail
	if authorEmail == "" {
		authorEmail = actor.Email
	}
	authorRole := input.AuthorRole
	if authorRole == "" {
		authorRole = domain.RoleEmployee
	}
	attachments := input.Attachments
	if attachments == nil {
		attachments = []domain.Attachment{}
	}

	comment := domain.Comment{
		Message:     input.Message,
		Attachments: attachments,
		Timestamp:   s.now(),
		AuthorEmail: authorEmail,
		AuthorName:  input.AuthorName,
		AuthorRole:  authorRole,
	}
	ticket.Comments = append(ticket.Comments, comment)
	ticket.LastUpdated = s.now()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		Actor:    actorFor(actor),
		Payload: events.TicketCommentAddedPayload{
			TicketNumber: ticket.TicketNumber,
			AuthorEmail:  comment.AuthorEmail,
			AuthorRole:   comment.AuthorRole,
			Preview:      preview(comment.Message, 120),
		},
	})
	return &comment, nil
}

// EditComment replaces the message of the comment at the given index and
// stamps the edit metadata.
func (s *TicketService) EditComment(ctx context.Context, actor domain.Identity, id string, index int, message string) (*domain.Comment, error) {
	if strings.TrimSpace(message) == "" {
		return nil, util.NewValidationError("comment message is required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(ticket.Comments) {
		return nil, util.NewValidationError("invalid comment index", map[string]any{"index": index})
	}

	now := s.now()
	ticket.Comments[index].Message = message
	ticket.Comments[index].LastEditedAt = &now
	ticket.Comments[index].LastEditedBy = actor.Email
	ticket.LastUpdated = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	return &ticket.Comments[index], nil
}

// IsDuplicate reports whether the same requester already filed a ticket with
// this subject within the last 24 hours.
func (s *TicketService) IsDuplicate(ctx context.Context, subject, email string) (bool, error) {
	if subject == "" || email == "" {
		return false, nil
	}
	since := s.now().Add(-duplicateWindow)
	recent, err := s.tickets.ListByEmailSince(ctx, email, since)
	if err != nil {
		return false, err
	}
	for _, ticket := range recent {
		if ticket.Subject == subject {
			return true, nil
		}
	}
	return false, nil
}

// AssignmentCandidates lists employees and project managers of the ticket's
// project, suitable as assignees.
func (s *TicketService) AssignmentCandidates(ctx context.Context, ticketID string) ([]AssignmentCandidate, error) {
	return s.candidatesByRole(ctx, ticketID, true, domain.RoleEmployee, domain.RoleProjectManager)
}

// RequesterCandidates lists the clients of the ticket's project.
func (s *TicketService) RequesterCandidates(ctx context.Context, ticketID string) ([]AssignmentCandidate, error) {
	return s.candidatesByRole(ctx, ticketID, false, domain.RoleClient)
}

func (s *TicketService) candidatesByRole(ctx context.Context, ticketID string, markManagers bool, roles ...domain.Role) ([]AssignmentCandidate, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Project == "" {
		return []AssignmentCandidate{}, nil
	}
	users, err := s.users.ListByProject(ctx, ticket.Project, roles...)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(users))
	candidates := make([]AssignmentCandidate, 0, len(users))
	for i := range users {
		user := &users[i]
		if _, dup := seen[user.Email]; dup {
			continue
		}
		seen[user.Email] = struct{}{}
		name := user.DisplayName()
		if markManagers && user.Role == domain.RoleProjectManager {
			name += " (Project Manager)"
		}
		candidates = append(candidates, AssignmentCandidate{
			ID:    user.ID,
			Email: user.Email,
			Name:  name,
			Role:  user.Role,
		})
	}
	return candidates, nil
}

func validateCreateInput(input TicketCreateInput) error {
	missing := []string{}
	if strings.TrimSpace(input.Subject) == "" {
		missing = append(missing, "subject")
	}
	if strings.TrimSpace(input.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(input.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return util.NewValidationError("subject, email, and description are required",
			map[string]any{"missing": missing})
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFor(identity domain.Identity) events.Actor {
	return events.Actor{
		UserID: identity.ID,
		Email:  identity.Email,
		Role:   identity.Role,
	}
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
