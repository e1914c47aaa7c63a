package types

import (
	"time"

	"github.com/google/uuid"
)

// Role is the coarse privilege tier attached to every user record.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// UserRecord is the canonical identity entity.
// PasswordHash is never serialized outward.
type UserRecord struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// CreateUserParams carries the fields for user creation (admin create
// and self-registration share it; registration forces Role to RoleUser).
type CreateUserParams struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// UpdateUserParams carries the mutable fields of an update request.
// Pointers distinguish "not provided" from zero values; IsActive in
// particular must arrive as a JSON boolean or the decode fails, so a
// string like "false" is rejected at the boundary instead of coerced.
type UpdateUserParams struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *Role   `json:"role,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// HasFields reports whether the request asks for any change at all.
func (p UpdateUserParams) HasFields() bool {
	return p.Name != nil || p.Email != nil || p.Role != nil || p.IsActive != nil
}

// Response is the generic success/error envelope.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PageRef points at an adjacent page in a listing response.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination carries the next/prev references derived from
// (page, limit, totalCount). A nil reference means no such page.
type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// UserListResponse is the wire contract for GET /users.
// Count is the number of records in this page, not the table total.
type UserListResponse struct {
	Success    bool         `json:"success"`
	Count      int          `json:"count"`
	Pagination Pagination   `json:"pagination"`
	Data       []UserRecord `json:"data"`
}
