package model

// Roles returned by the upstream auth API.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User represents an authenticated platform user as returned by /auth/me.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone,omitempty"`
	Wilaya     string `json:"wilaya,omitempty"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AuthTokens is the token pair issued by /auth/login and /auth/refresh.
type AuthTokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
