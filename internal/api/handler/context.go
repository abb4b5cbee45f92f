package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/boxtrail/transfer-system/internal/core/domain"
	"github.com/boxtrail/transfer-system/internal/core/ports"
)

// ctxActor extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call:
//   - role must be non-empty (presence proves the middleware ran).
//   - member role requires a base identity; without it the JWT is
//     structurally valid but operationally unusable — reject with 401.
func ctxActor(c echo.Context) (ports.ActorInput, error) {
	role, _ := c.Get("role").(string)
	if role == "" {
		return ports.ActorInput{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	actor := ports.ActorInput{
		UserID: asString(c.Get("user_id")),
		Name:   asString(c.Get("name")),
		Role:   role,
	}
	actor.BaseID = asString(c.Get("base_id"))
	actor.OrganisationID = asString(c.Get("organisation_id"))

	if role == domain.RoleMember && actor.BaseID == "" {
		return ports.ActorInput{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing base identity")
	}

	return actor, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
