package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	projects *service.ProjectService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, projects *service.ProjectService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, projects: projects}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		Subject:     req.Subject,
		Customer:    req.Customer,
		Email:       req.Email,
		Project:     req.Project,
		Module:      req.Module,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		TypeOfIssue: req.TypeOfIssue,
		Priority:    req.Priority,
		Description: req.Description,
		Attachments: req.Attachments,
		ReportedBy:  req.ReportedBy,
	}
	ticket, recipients, err := h.tickets.Create(c.UserContext(), *identity, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"ticket":       ticketResponse(ticket),
		"memberEmails": recipients,
	})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": ticketResponse(ticket)})
}

// Update PUT /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	input := service.TicketUpdateInput{
		Subject:     req.Subject,
		Customer:    req.Customer,
		Project:     req.Project,
		Module:      req.Module,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		TypeOfIssue: req.TypeOfIssue,
		Priority:    req.Priority,
		Description: req.Description,
		Status:      req.Status,
		Starred:     req.Starred,
		AssignedTo:  req.AssignedTo,
		ReportedBy:  req.ReportedBy,
	}
	ticket, err := h.tickets.Update(c.UserContext(), *identity, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": ticketResponse(ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	comment, err := h.tickets.AddComment(c.UserContext(), *identity, c.Params("id"), service.CommentInput{
		Message:     req.Message,
		Attachments: req.Attachments,
		AuthorEmail: req.AuthorEmail,
		AuthorName:  req.AuthorName,
		AuthorRole:  req.AuthorRole,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"comment": comment})
}

// EditComment PUT /tickets/:id/comments/:index.
func (h *TicketsHandler) EditComment(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return util.NewValidationError("invalid comment index", nil)
	}
	var req dto.EditCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	comment, err := h.tickets.EditComment(c.UserContext(), *identity, c.Params("id"), index, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"comment": comment})
}

// CheckDuplicate GET /tickets/check-duplicate.
func (h *TicketsHandler) CheckDuplicate(c *fiber.Ctx) error {
	subject := c.Query("subject")
	email := c.Query("email")
	isDuplicate, err := h.tickets.IsDuplicate(c.UserContext(), subject, email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"isDuplicate": isDuplicate})
}

// Employees GET /tickets/:id/employees.
func (h *TicketsHandler) Employees(c *fiber.Ctx) error {
	candidates, err := h.tickets.AssignmentCandidates(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"employees": candidateResponses(candidates)})
}

// Clients GET /tickets/:id/clients.
func (h *TicketsHandler) Clients(c *fiber.Ctx) error {
	candidates, err := h.tickets.RequesterCandidates(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"clients": candidateResponses(candidates)})
}

// ProjectMembers GET /tickets/project-members?projectName=.
func (h *TicketsHandler) ProjectMembers(c *fiber.Ctx) error {
	projectName := c.Query("projectName")
	if projectName == "" {
		return util.NewValidationError("project name is required", nil)
	}
	members, err := h.projects.Members(c.UserContext(), projectName)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"members": memberResponses(members)})
}

// ProjectClientMembers GET /tickets/projects/:projectName/members.
func (h *TicketsHandler) ProjectClientMembers(c *fiber.Ctx) error {
	members, err := h.projects.ClientMembers(c.UserContext(), c.Params("projectName"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"members": memberResponses(members)})
}

// ProjectMemberEmails GET /tickets/projects/:projectName/member-emails.
func (h *TicketsHandler) ProjectMemberEmails(c *fiber.Ctx) error {
	emails := h.projects.MemberEmails(c.UserContext(), c.Params("projectName"))
	return c.JSON(fiber.Map{"emails": emails})
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:           ticket.ID,
		TicketNumber: ticket.TicketNumber,
		Subject:      ticket.Subject,
		Customer:     ticket.Customer,
		Email:        ticket.Email,
		Project:      ticket.Project,
		ProjectID:    ticket.ProjectID,
		Module:       ticket.Module,
		Category:     ticket.Category,
		SubCategory:  ticket.SubCategory,
		TypeOfIssue:  ticket.TypeOfIssue,
		Priority:     ticket.Priority,
		Description:  ticket.Description,
		Status:       ticket.Status,
		Starred:      ticket.Starred,
		Attachments:  ticket.Attachments,
		Comments:     ticket.Comments,
		ReportedBy:   ticket.ReportedBy,
		AssignedTo:   ticket.AssignedTo,
		Created:      ticket.Created,
		LastUpdated:  ticket.LastUpdated,
	}
}

func candidateResponses(candidates []service.AssignmentCandidate) []dto.CandidateResponse {
	resp := make([]dto.CandidateResponse, 0, len(candidates))
	for _, candidate := range candidates {
		resp = append(resp, dto.CandidateResponse{
			ID:    candidate.ID,
			Email: candidate.Email,
			Name:  candidate.Name,
			Role:  candidate.Role,
		})
	}
	return resp
}

func memberResponses(members []domain.ProjectMember) []dto.ProjectMemberResponse {
	resp := make([]dto.ProjectMemberResponse, 0, len(members))
	for _, member := range members {
		resp = append(resp, dto.ProjectMemberResponse{
			Email:  member.Email,
			Role:   member.Role,
			UserID: member.UserID,
		})
	}
	return resp
}
