package auth

import "wbuilder/internal/domain/models"

// JWTVerifier validates bearer tokens issued by the auth collaborator.
type JWTVerifier interface {
	// VerifyToken returns the parsed claims, or ErrUnauthorized if the token is
	// invalid, expired, badly signed, or not an authenticated user token.
	VerifyToken(tokenString string) (*models.AuthClaims, error)

	// Close releases any resources held by the verifier
	Close() error
}
