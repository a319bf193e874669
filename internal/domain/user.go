package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleEmployee       Role = "employee"
	RoleProjectManager Role = "project_manager"
	RoleClient         Role = "client"
	RoleClientHead     Role = "client_head"
)

// User is the domain model for accounts that submit or work tickets.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	Projects     []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName builds a human-facing name, falling back to the email local part.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	for i := 0; i < len(u.Email); i++ {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}
