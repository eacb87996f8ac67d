package types

import (
	"github.com/google/uuid"
)

// TokenClaims carries the identity extracted from a validated JWT.
type TokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
}
