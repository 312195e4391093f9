package dto

import (
	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/slots"
	"github.com/Eursukkul/studio-booking/internal/wizard"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

// WizardErrorResponse carries the screen the user is left on, when there is one.
type WizardErrorResponse struct {
	Message string         `json:"message"`
	Label   string         `json:"label,omitempty"`
	Screen  *wizard.Screen `json:"screen,omitempty"`
}

type DeleteResponse struct {
	ID      uint `json:"id"`
	Deleted bool `json:"deleted"`
}

type SlotsResponse struct {
	ResourceID uint             `json:"resource_id"`
	Date       string           `json:"date"`
	Day        []slots.TimeSlot `json:"day"`
	Evening    []slots.TimeSlot `json:"evening"`
}

type ResourceResponse struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Instrument   string          `json:"instrument"`
	Venue        string          `json:"venue,omitempty"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
}

func ToResourceResponse(r *models.Resource) ResourceResponse {
	return ResourceResponse{
		ID:           r.ID,
		Name:         r.Name,
		Instrument:   r.Instrument,
		Venue:        r.Venue,
		PricePerHour: r.PricePerHour,
	}
}
