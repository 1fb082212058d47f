package provision

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medtrack/console/internal/platform/auth"
	"github.com/medtrack/console/internal/platform/backend"
	"github.com/medtrack/console/pkg/pagination"
)

// UserAdmin is the slice of the hospital API the user-administration screens
// need.
type UserAdmin interface {
	TestingUserCredentials(ctx context.Context) ([]backend.TestingCredential, error)
	DeleteUser(ctx context.Context, userID int64) error
}

type Handler struct {
	svc        *Service
	users      UserAdmin
	disclosure *Disclosure
	logger     zerolog.Logger

	mu    sync.Mutex
	gates map[string]*Gate
}

func NewHandler(svc *Service, users UserAdmin, disclosure *Disclosure, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:        svc,
		users:      users,
		disclosure: disclosure,
		logger:     logger.With().Str("component", "provision").Logger(),
		gates:      make(map[string]*Gate),
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group, policy *auth.Policy) {
	sections := api.Group("/sections", auth.RequireCapability(policy, auth.TabSections))
	sections.POST("", h.CreateSection)
	sections.POST("/:id/recreate-admin", h.RecreateAdmin)

	creds := api.Group("/credentials", auth.RequireCapability(policy, auth.TabSections))
	creds.GET("/:token", h.ClaimCredentials)
	creds.DELETE("/:token", h.DiscardCredentials)

	users := api.Group("", auth.RequireCapability(policy, auth.TabUsers))
	users.GET("/testing/user-credentials", h.ListTestingCredentials)
	users.DELETE("/users/:id", h.DeleteUser)
}

// gateFor returns the submit gate for one operator's form instance.
func (h *Handler) gateFor(operator string) *Gate {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.gates[operator]
	if !ok {
		g = &Gate{}
		h.gates[operator] = g
	}
	return g
}

type createSectionRequest struct {
	SectionName  string `json:"section_name"`
	ParentUnitID int64  `json:"parent_unit_id"`
}

func (h *Handler) CreateSection(c echo.Context) error {
	var req createSectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	gate := h.gateFor(auth.UserIDFromContext(ctx))
	gen, ok := gate.Begin()
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "a section creation is already in progress")
	}
	defer gate.Finish(gen)

	result, err := h.svc.CreateSection(ctx, req.SectionName, req.ParentUnitID)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
				"errors": verr.Fields,
			})
		}
		return c.JSON(failureStatus(err), map[string]string{
			"message": FailureMessage(err),
		})
	}

	token := h.disclosure.Put(result)
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"section_id":        result.SectionID,
		"username":          result.Username,
		"credentials_token": token,
		"notice":            DisclosureNotice,
	})
}

func (h *Handler) RecreateAdmin(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	result, err := h.svc.RecreateAdmin(c.Request().Context(), id)
	if err != nil {
		return c.JSON(failureStatus(err), map[string]string{
			"message": FailureMessage(err),
		})
	}

	token := h.disclosure.Put(result)
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"section_id":        result.SectionID,
		"username":          result.Username,
		"credentials_token": token,
		"notice":            DisclosureNotice,
	})
}

// ClaimCredentials hands the generated credentials over exactly once. A
// second claim of the same token fails: there is no show-again path.
func (h *Handler) ClaimCredentials(c echo.Context) error {
	result, ok := h.disclosure.Claim(c.Param("token"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "credentials already viewed or expired")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"section_id":    result.SectionID,
		"username":      result.Username,
		"temp_password": result.Secret,
		"notice":        DisclosureNotice,
	})
}

func (h *Handler) DiscardCredentials(c echo.Context) error {
	h.disclosure.Discard(c.Param("token"))
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListTestingCredentials(c echo.Context) error {
	users, err := h.users.TestingUserCredentials(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("listing test credentials failed")
		return echo.NewHTTPError(http.StatusBadGateway, "user inventory unavailable")
	}

	p := pagination.FromContext(c)
	total := len(users)
	if p.Offset >= total {
		users = nil
	} else {
		end := p.Offset + p.Limit
		if end > total {
			end = total
		}
		users = users[p.Offset:end]
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, p.Limit, p.Offset))
}

// DeleteUser forwards a user deletion, except for software-admin accounts:
// those are refused here and the request is never sent upstream.
func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	users, err := h.users.TestingUserCredentials(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("resolving user before delete failed")
		return echo.NewHTTPError(http.StatusBadGateway, "user inventory unavailable")
	}
	for _, u := range users {
		if u.UserID == id && auth.NormalizeRole(u.Role) == auth.RoleSoftwareAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "software admin accounts cannot be deleted")
		}
	}

	if err := h.users.DeleteUser(ctx, id); err != nil {
		return c.JSON(failureStatus(err), map[string]string{
			"message": FailureMessage(err),
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// failureStatus picks the console's response status for an upstream failure:
// the upstream status when there was one, 502 when the call never completed.
func failureStatus(err error) int {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return http.StatusBadGateway
}
