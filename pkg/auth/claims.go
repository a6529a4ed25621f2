package auth

import (
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ProfileID uuid.UUID
	Role      enums.ProfileRole
	Verified  bool
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	ProfileID uuid.UUID         `json:"profile_id"`
	Role      enums.ProfileRole `json:"role"`
	Verified  bool              `json:"verified"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller attached to request contexts.
type Principal struct {
	ProfileID uuid.UUID
	Role      enums.ProfileRole
	Verified  bool
}

// PrincipalFromClaims converts parsed claims into the request principal.
func PrincipalFromClaims(claims *AccessTokenClaims) Principal {
	return Principal{
		ProfileID: claims.ProfileID,
		Role:      claims.Role,
		Verified:  claims.Verified,
	}
}
