package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Eursukkul/studio-booking/internal/dto"
	"github.com/Eursukkul/studio-booking/internal/middleware"
	"github.com/Eursukkul/studio-booking/internal/service"
	"github.com/Eursukkul/studio-booking/internal/wizard"
	"github.com/labstack/echo/v4"
)

// WizardService is the booking flow as driven over HTTP.
type WizardService interface {
	StartFlow(ctx context.Context, userID, author string) (*wizard.Screen, error)
	Current(ctx context.Context, userID string) (*wizard.Screen, error)
	SelectInstrument(ctx context.Context, userID, tag string) (*wizard.Screen, error)
	SelectResource(ctx context.Context, userID string, resourceID uint) (*wizard.Screen, error)
	SelectDate(ctx context.Context, userID, isoDate string) (*wizard.Screen, error)
	ToggleTimeLabel(ctx context.Context, userID, label string) (*wizard.Screen, error)
	Commit(ctx context.Context, userID string) (*wizard.Screen, error)
}

type WizardHandler struct {
	wizard WizardService
	secret string
}

func NewWizardHandler(w WizardService, secret string) *WizardHandler {
	return &WizardHandler{wizard: w, secret: secret}
}

func (h *WizardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/wizard/:user", middleware.RequireSecret(h.secret))
	g.GET("", h.Current)
	g.POST("/start", h.Start)
	g.POST("/instrument", h.SelectInstrument)
	g.POST("/resource", h.SelectResource)
	g.POST("/date", h.SelectDate)
	g.POST("/time", h.ToggleTime)
	g.POST("/commit", h.Commit)
}

func (h *WizardHandler) Start(c echo.Context) error {
	var req dto.StartFlowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	screen, err := h.wizard.StartFlow(c.Request().Context(), c.Param("user"), req.Author)
	return respond(c, screen, err)
}

func (h *WizardHandler) Current(c echo.Context) error {
	screen, err := h.wizard.Current(c.Request().Context(), c.Param("user"))
	return respond(c, screen, err)
}

func (h *WizardHandler) SelectInstrument(c echo.Context) error {
	var req dto.SelectInstrumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	screen, err := h.wizard.SelectInstrument(c.Request().Context(), c.Param("user"), req.Instrument)
	return respond(c, screen, err)
}

func (h *WizardHandler) SelectResource(c echo.Context) error {
	var req dto.SelectResourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	screen, err := h.wizard.SelectResource(c.Request().Context(), c.Param("user"), req.ResourceID)
	return respond(c, screen, err)
}

func (h *WizardHandler) SelectDate(c echo.Context) error {
	var req dto.SelectDateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	screen, err := h.wizard.SelectDate(c.Request().Context(), c.Param("user"), req.Date)
	return respond(c, screen, err)
}

func (h *WizardHandler) ToggleTime(c echo.Context) error {
	var req dto.ToggleTimeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	screen, err := h.wizard.ToggleTimeLabel(c.Request().Context(), c.Param("user"), req.Label)
	return respond(c, screen, err)
}

func (h *WizardHandler) Commit(c echo.Context) error {
	screen, err := h.wizard.Commit(c.Request().Context(), c.Param("user"))
	return respond(c, screen, err)
}

func respond(c echo.Context, screen *wizard.Screen, err error) error {
	if err == nil {
		return c.JSON(http.StatusOK, screen)
	}

	var code int
	body := dto.WizardErrorResponse{Message: err.Error(), Screen: screen}
	var conflict *service.SlotConflictError
	switch {
	case errors.As(err, &conflict):
		code = http.StatusConflict
		body.Label = conflict.Label
	case errors.Is(err, service.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrResourceNotFound), errors.Is(err, wizard.ErrNoSession):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrStoreUnavailable):
		code = http.StatusServiceUnavailable
		body.Message = "booking store is temporarily unavailable, try again"
	default:
		return err
	}
	return c.JSON(code, body)
}
