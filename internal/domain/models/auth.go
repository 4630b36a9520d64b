package models

import "github.com/golang-jwt/jwt/v5"

// RoleAuthenticated is the only token role accepted by the API
const RoleAuthenticated = "authenticated"

// AuthClaims is the JWT claim set issued by the auth collaborator (Supabase Auth).
// See: https://supabase.com/docs/guides/auth/jwts
type AuthClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	Role        string `json:"role"` // "authenticated" or "anon"
	SessionID   string `json:"session_id,omitempty"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// GetUserID returns the user ID from the subject claim
func (c *AuthClaims) GetUserID() string {
	return c.Subject
}
