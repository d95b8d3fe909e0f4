package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/prejin2310/megora-inventory/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ActorID uuid.UUID
	Role    enums.StaffRole
	Name    string
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to staff. The subject
// carries the actor id.
type AccessTokenClaims struct {
	Role enums.StaffRole `json:"role"`
	Name string          `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ActorID parses the subject claim.
func (c *AccessTokenClaims) ActorID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
