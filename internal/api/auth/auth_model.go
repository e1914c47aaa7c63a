package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

// LoginRequest represents the expected JSON body for user login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the successful JSON response after login.
type LoginResponse struct {
	Success     bool              `json:"success"`
	AccessToken string            `json:"accessToken"`
	Data        *types.UserRecord `json:"data"`
}

// RegisterRequest represents the expected JSON body for self-registration.
// Role is deliberately absent: registration always produces a plain user.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Claims represents the custom claims included in the access token.
// The embedded role reflects the record at issuance time; privilege
// checks always use the freshly loaded record, not this value.
type Claims struct {
	UserID               string     `json:"uid"`
	Role                 types.Role `json:"rol"`
	jwt.RegisteredClaims            // ExpiresAt, IssuedAt, Issuer, Audience, Subject
}
