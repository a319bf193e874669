package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ErrDuplicateTicketNumber signals that an insert was rejected by the unique
// constraint on tickets.ticket_number. Callers retry with a fresh number.
var ErrDuplicateTicketNumber = errors.New("duplicate ticket number")

const pgUniqueViolation = "23505"

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByEmailSince(ctx context.Context, email string, since time.Time) ([]domain.Ticket, error)
	ListByProject(ctx context.Context, project string, limit, offset int) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, subject, customer, email, project, project_id,
               module, category, sub_category, type_of_issue, priority, description,
               status, starred, attachments, comments, reported_by, requester_id,
               assigned_to, created, last_updated`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, subject, customer, email, project, project_id,
            module, category, sub_category, type_of_issue, priority, description, status,
            starred, attachments, comments, reported_by, requester_id, assigned_to, created, last_updated)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
        RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.Subject,
		ticket.Customer,
		ticket.Email,
		ticket.Project,
		ticket.ProjectID,
		ticket.Module,
		ticket.Category,
		ticket.SubCategory,
		ticket.TypeOfIssue,
		ticket.Priority,
		ticket.Description,
		ticket.Status,
		ticket.Starred,
		ticket.Attachments,
		ticket.Comments,
		ticket.ReportedBy,
		ticket.RequesterID,
		ticket.AssignedTo,
		ticket.Created,
		ticket.LastUpdated,
	).Scan(&ticket.ID)
	if isTicketNumberViolation(err) {
		return ErrDuplicateTicketNumber
	}
	return err
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET subject=$1, customer=$2, email=$3, project=$4, project_id=$5,
            module=$6, category=$7, sub_category=$8, type_of_issue=$9, priority=$10,
            description=$11, status=$12, starred=$13, attachments=$14, comments=$15,
            reported_by=$16, assigned_to=$17, last_updated=$18
        WHERE id=$19`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Subject,
		ticket.Customer,
		ticket.Email,
		ticket.Project,
		ticket.ProjectID,
		ticket.Module,
		ticket.Category,
		ticket.SubCategory,
		ticket.TypeOfIssue,
		ticket.Priority,
		ticket.Description,
		ticket.Status,
		ticket.Starred,
		ticket.Attachments,
		ticket.Comments,
		ticket.ReportedBy,
		ticket.AssignedTo,
		ticket.LastUpdated,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByEmailSince(ctx context.Context, email string, since time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE email=$1 AND created >= $2 ORDER BY created DESC`
	rows, err := r.pool.Query(ctx, query, email, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByProject(ctx context.Context, project string, limit, offset int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE project=$1 ORDER BY last_updated DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, project, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketFields(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func ticketFields(t *domain.Ticket) []any {
	return []any{
		&t.ID,
		&t.TicketNumber,
		&t.Subject,
		&t.Customer,
		&t.Email,
		&t.Project,
		&t.ProjectID,
		&t.Module,
		&t.Category,
		&t.SubCategory,
		&t.TypeOfIssue,
		&t.Priority,
		&t.Description,
		&t.Status,
		&t.Starred,
		&t.Attachments,
		&t.Comments,
		&t.ReportedBy,
		&t.RequesterID,
		&t.AssignedTo,
		&t.Created,
		&t.LastUpdated,
	}
}

func isTicketNumberViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "tickets_ticket_number_key"
}
