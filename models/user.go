package models

// UserRole distinguishes book owners from seekers.
type UserRole string

const (
	RoleOwner  UserRole = "owner"
	RoleSeeker UserRole = "seeker"
)

// User is the authenticated account as returned by the backend.
type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	Mobile    string   `json:"mobile"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}
