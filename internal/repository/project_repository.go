package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ProjectRepository resolves projects by name.
type ProjectRepository interface {
	GetByName(ctx context.Context, name string) (*domain.Project, error)
}

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository instantiates repository.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

func (r *projectRepository) GetByName(ctx context.Context, name string) (*domain.Project, error) {
	const query = `SELECT id, name, members, created_at FROM projects WHERE name=$1`
	var project domain.Project
	if err := r.pool.QueryRow(ctx, query, name).Scan(
		&project.ID,
		&project.Name,
		&project.Members,
		&project.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &project, nil
}
