package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type registerDeviceBody struct {
	DeviceID   string `json:"device_id"`
	DeviceType string `json:"device_type"`
	Alias      string `json:"alias"`
	Model      string `json:"model"`
}

type controlBody struct {
	Writes []profile.Write `json:"writes"`
}

type snapshotResponse struct {
	DeviceID    string            `json:"device_id"`
	Snapshot    *profile.Snapshot `json:"snapshot"`
	Diagnostics []string          `json:"diagnostics,omitempty"`
}

type fieldErrorResponse struct {
	Path     string `json:"path"`
	Location string `json:"location,omitempty"`
	Error    string `json:"error"`
}

type errorResponse struct {
	Error  string               `json:"error"`
	Fields []fieldErrorResponse `json:"fields,omitempty"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/catalog", s.CatalogHandler)
	e.GET("/profiles/:type", s.ProfileHandler)

	e.GET("/devices", s.ListDevicesHandler)
	e.POST("/devices", s.RegisterDeviceHandler)
	e.DELETE("/devices/:id", s.DeregisterDeviceHandler)
	e.GET("/devices/:id/snapshot", s.SnapshotHandler)
	e.POST("/devices/:id/control", s.ControlHandler)
	e.POST("/devices/:id/refresh", s.RefreshHandler)
	e.GET("/devices/:id/drift", s.DriftHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) CatalogHandler(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/yaml")
	c.Response().WriteHeader(http.StatusOK)
	return profile.ExportManifest(c.Response())
}

func (s *Server) ProfileHandler(c echo.Context) error {
	p, err := s.manager.GetProfile(profile.ParseDeviceType(c.Param("type")))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, profile.DescribeProfile(p))
}

func (s *Server) ListDevicesHandler(c echo.Context) error {
	devices, err := s.manager.Devices(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	if devices == nil {
		devices = []device.Info{}
	}
	return c.JSON(http.StatusOK, devices)
}

func (s *Server) RegisterDeviceHandler(c echo.Context) error {
	var body registerDeviceBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	if body.DeviceID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "device_id is required"})
	}
	info, err := s.manager.RegisterDevice(c.Request().Context(), body.DeviceID, profile.ParseDeviceType(body.DeviceType), body.Alias, body.Model)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, info)
}

func (s *Server) DeregisterDeviceHandler(c echo.Context) error {
	if err := s.manager.DeregisterDevice(c.Request().Context(), c.Param("id")); err != nil {
		return errorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) SnapshotHandler(c echo.Context) error {
	snap, diags, err := s.manager.GetSnapshot(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	resp := snapshotResponse{DeviceID: c.Param("id"), Snapshot: snap}
	for _, d := range diags {
		resp.Diagnostics = append(resp.Diagnostics, d.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) ControlHandler(c echo.Context) error {
	var body controlBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	cmd, err := s.manager.SendControl(c.Request().Context(), c.Param("id"), body.Writes...)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, cmd)
}

func (s *Server) RefreshHandler(c echo.Context) error {
	update, err := s.manager.RefreshStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, update)
}

func (s *Server) DriftHandler(c echo.Context) error {
	report, err := s.manager.CheckDrift(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

func errorJSON(c echo.Context, err error) error {
	resp := errorResponse{Error: err.Error()}
	status := statusOf(err)
	if status == http.StatusBadRequest {
		for _, fe := range profile.FieldErrors(err) {
			resp.Fields = append(resp.Fields, fieldErrorResponse{
				Path:     fe.Path(),
				Location: fe.Location,
				Error:    fe.Error(),
			})
		}
	}
	return c.JSON(status, resp)
}

func statusOf(err error) int {
	switch {
	case profile.IsUnknownDeviceType(err), errors.Is(err, device.ErrNotRegistered):
		return http.StatusNotFound
	case errors.Is(err, device.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCommandTimedOut), errors.Is(err, domain.ErrActorTimeout):
		return http.StatusGatewayTimeout
	case domain.IsTransportError(err):
		return http.StatusBadGateway
	case len(profile.FieldErrors(err)) > 0, errors.Is(err, profile.ErrEmptyCommand):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
