package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ActorClaims is the token shape issued by the identity provider. The
// backend never mints these for end users; it only verifies them. The
// subject uuid is the opaque "current actor identity" everything else keys
// on.
type ActorClaims struct {
	ActorID uuid.UUID `json:"actor_id"`
	Email   string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}
