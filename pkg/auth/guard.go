package auth

import (
	"github.com/google/uuid"

	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
)

// RequireOwner rejects callers that do not own the record. Services call this
// on every mutating path even though route policy already scopes access.
func RequireOwner(p Principal, ownerID uuid.UUID) error {
	if p.ProfileID == ownerID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodePermissionDenied, "caller does not own this record")
}

// RequireRole rejects callers whose role is not in the allowed set.
func RequireRole(p Principal, roles ...enums.ProfileRole) error {
	for _, role := range roles {
		if p.Role == role {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted for this operation")
}
