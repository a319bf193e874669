package domain

import "time"

// ProjectMember is one entry of a project's member list.
type ProjectMember struct {
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	UserID string `json:"userId,omitempty"`
}

// Project scopes tickets and carries the member list used for notifications.
type Project struct {
	ID        string
	Name      string
	Members   []ProjectMember
	CreatedAt time.Time
}

// ClientMembers filters the member list down to client-side roles.
func (p *Project) ClientMembers() []ProjectMember {
	clients := make([]ProjectMember, 0, len(p.Members))
	for _, m := range p.Members {
		if m.Role == RoleClient || m.Role == RoleClientHead {
			clients = append(clients, m)
		}
	}
	return clients
}
