package domain

// Identity is the authenticated caller attached to each request.
type Identity struct {
	ID    string
	Email string
	Role  Role
}
