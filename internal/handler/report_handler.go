package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Eursukkul/studio-booking/internal/dto"
	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/Eursukkul/studio-booking/internal/service"
	"github.com/Eursukkul/studio-booking/internal/slots"
	"github.com/labstack/echo/v4"
)

type SlotLister interface {
	Available(ctx context.Context, resourceID uint, date time.Time) ([]slots.TimeSlot, error)
}

type ResourceLister interface {
	FindActiveByInstrument(ctx context.Context, instrument string) ([]models.Resource, error)
}

type ReportHandler struct {
	reports   service.ReportService
	catalog   SlotLister
	resources ResourceLister
}

func NewReportHandler(reports service.ReportService, catalog SlotLister, resources ResourceLister) *ReportHandler {
	return &ReportHandler{reports: reports, catalog: catalog, resources: resources}
}

func (h *ReportHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.GET("/reservations", h.ListReservations)
	api.DELETE("/reservations/:id", h.DeleteReservation)
	api.GET("/slots", h.ListSlots)
	api.GET("/resources", h.ListResources)
}

func (h *ReportHandler) ListReservations(c echo.Context) error {
	var filter repository.ReservationFilter
	if s := c.QueryParam("resource_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid resource_id")
		}
		rid := uint(id)
		filter.ResourceID = &rid
	}
	for param, dst := range map[string]**time.Time{"date_from": &filter.DateFrom, "date_to": &filter.DateTo} {
		s := c.QueryParam(param)
		if s == "" {
			continue
		}
		d, err := time.Parse(models.DateLayout, s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid "+param+", expected YYYY-MM-DD")
		}
		*dst = &d
	}

	report, err := h.reports.List(c.Request().Context(), filter)
	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "reservation store unavailable")
		}
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) DeleteReservation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	deleted, err := h.reports.Delete(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "reservation store unavailable")
		}
		return err
	}
	return c.JSON(http.StatusOK, dto.DeleteResponse{ID: uint(id), Deleted: deleted})
}

func (h *ReportHandler) ListSlots(c echo.Context) error {
	id, err := strconv.ParseUint(c.QueryParam("resource_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid resource_id")
	}
	day, err := time.Parse(models.DateLayout, c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}

	available, err := h.catalog.Available(c.Request().Context(), uint(id), day)
	if err != nil {
		if errors.Is(err, slots.ErrStoreUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "reservation store unavailable")
		}
		return err
	}
	dayBucket, evening := slots.Split(available)
	return c.JSON(http.StatusOK, dto.SlotsResponse{
		ResourceID: uint(id),
		Date:       day.Format(models.DateLayout),
		Day:        dayBucket,
		Evening:    evening,
	})
}

func (h *ReportHandler) ListResources(c echo.Context) error {
	instrument := c.QueryParam("instrument")
	if !models.IsInstrument(instrument) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown instrument")
	}

	resources, err := h.resources.FindActiveByInstrument(c.Request().Context(), instrument)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "resource store unavailable")
	}
	resp := make([]dto.ResourceResponse, len(resources))
	for i := range resources {
		resp[i] = dto.ToResourceResponse(&resources[i])
	}
	return c.JSON(http.StatusOK, resp)
}
