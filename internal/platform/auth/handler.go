package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CapabilitiesHandler tells a screen which tabs and pages the current
// operator may see. Screens render from this answer instead of keeping role
// lists of their own.
func CapabilitiesHandler(policy *Policy) echo.HandlerFunc {
	return func(c echo.Context) error {
		roles := RolesFromContext(c.Request().Context())
		return c.JSON(http.StatusOK, map[string]interface{}{
			"roles":        roles,
			"capabilities": policy.Capabilities(roles),
		})
	}
}
