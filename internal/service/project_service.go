package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// ProjectService resolves projects and their members.
type ProjectService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
	logger   *zap.Logger
}

// NewProjectService constructs the service.
func NewProjectService(projects repository.ProjectRepository, users repository.UserRepository, logger *zap.Logger) *ProjectService {
	return &ProjectService{projects: projects, users: users, logger: logger}
}

// ResolveID maps a project name to its identifier. Missing projects and
// lookup errors both resolve to an empty identifier: project linkage on
// tickets is best-effort.
func (s *ProjectService) ResolveID(ctx context.Context, name string) string {
	if name == "" {
		return ""
	}
	project, err := s.projects.GetByName(ctx, name)
	if err != nil {
		return ""
	}
	return project.ID
}

// Members returns the full member list of a project, empty when the project
// does not exist.
func (s *ProjectService) Members(ctx context.Context, name string) ([]domain.ProjectMember, error) {
	project, err := s.projects.GetByName(ctx, name)
	if err != nil {
		return []domain.ProjectMember{}, nil
	}
	return project.Members, nil
}

// ClientMembers returns only client-side members of a project.
func (s *ProjectService) ClientMembers(ctx context.Context, name string) ([]domain.ProjectMember, error) {
	project, err := s.projects.GetByName(ctx, name)
	if err != nil {
		return []domain.ProjectMember{}, nil
	}
	return project.ClientMembers(), nil
}

// MemberEmails returns the email addresses of all users belonging to the
// named project. Notification is best-effort: an absent name or a failed
// lookup yields an empty list, never an error.
func (s *ProjectService) MemberEmails(ctx context.Context, name string) []string {
	if name == "" {
		return []string{}
	}
	users, err := s.users.ListByProject(ctx, name)
	if err != nil {
		s.logger.Warn("project member lookup failed",
			zap.String("project", name),
			zap.Error(err))
		return []string{}
	}
	emails := make([]string, 0, len(users))
	for _, user := range users {
		if user.Email == "" {
			continue
		}
		emails = append(emails, user.Email)
	}
	return emails
}
