package orgunit

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medtrack/console/internal/platform/auth"
)

type Handler struct {
	dir    *Directory
	logger zerolog.Logger
}

func NewHandler(dir *Directory, logger zerolog.Logger) *Handler {
	return &Handler{dir: dir, logger: logger.With().Str("component", "orgunit").Logger()}
}

func (h *Handler) RegisterRoutes(api *echo.Group, policy *auth.Policy) {
	g := api.Group("/org-units", auth.RequireCapability(policy, auth.PageSections))
	g.GET("", h.ListUnits)
	g.GET("/leaves", h.ListLeaves)
	g.GET("/administrations", h.ListAdministrations)
	g.GET("/departments", h.ListDepartments)
	g.GET("/section-parents", h.ListSectionParents)
	g.GET("/:id/children", h.ListChildren)
	g.POST("/refresh", h.Refresh)
}

// ensureLoaded lazily fetches the inventory on first use. A fetch failure is
// surfaced as 502 so screens render an error state, never an empty tree.
func (h *Handler) ensureLoaded(c echo.Context) error {
	if h.dir.Loaded() {
		return nil
	}
	if err := h.dir.Load(c.Request().Context()); err != nil {
		h.logger.Error().Err(err).Msg("inventory load failed")
		return echo.NewHTTPError(http.StatusBadGateway, "organizational inventory unavailable")
	}
	return nil
}

func (h *Handler) ListUnits(c echo.Context) error {
	if err := h.ensureLoaded(c); err != nil {
		return err
	}
	units := h.dir.Units()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"org_units": units,
		"count":     len(units),
	})
}

func (h *Handler) ListLeaves(c echo.Context) error {
	if err := h.ensureLoaded(c); err != nil {
		return err
	}
	leaves := h.dir.Leaves()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"leaves": leaves,
		"count":  len(leaves),
	})
}

func (h *Handler) ListAdministrations(c echo.Context) error {
	if err := h.ensureLoaded(c); err != nil {
		return err
	}
	admins := h.dir.Administrations()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"administrations": admins,
		"count":           len(admins),
	})
}

func (h *Handler) ListDepartments(c echo.Context) error {
	if err := h.ensureLoaded(c); err != nil {
		return err
	}
	depts := h.dir.Departments()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"departments": depts,
		"count":       len(depts),
	})
}

func (h *Handler) ListSectionParents(c echo.Context) error {
	if err := h.ensureLoaded(c); err != nil {
		return err
	}
	parents := h.dir.SectionParents()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"parents": parents,
		"count":   len(parents),
	})
}

func (h *Handler) ListChildren(c echo.Context) error {
	if err := h.ensureLoaded(c); err != nil {
		return err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if _, ok := h.dir.Get(id); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "org unit not found")
	}
	children := h.dir.ChildrenOf(id)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"children": children,
		"count":    len(children),
	})
}

func (h *Handler) Refresh(c echo.Context) error {
	if err := h.dir.Load(c.Request().Context()); err != nil {
		h.logger.Error().Err(err).Msg("inventory refresh failed")
		return echo.NewHTTPError(http.StatusBadGateway, "organizational inventory unavailable")
	}
	units := h.dir.Units()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"org_units": units,
		"count":     len(units),
	})
}
