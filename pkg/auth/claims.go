package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/kuraeplasma/SPACEGLEAM/pkg/enums"
)

// AdminTokenPayload captures the data available when minting an admin JWT.
type AdminTokenPayload struct {
	Email string
	Role  enums.ActorRole
	JTI   string
}

// AdminTokenClaims represents the typed JWT accepted on admin routes.
type AdminTokenClaims struct {
	Email string          `json:"email"`
	Role  enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
