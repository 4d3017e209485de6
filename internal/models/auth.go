package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the access-token payload issued by the external
// identity provider. This service only verifies and reads it.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}
