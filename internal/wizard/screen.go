package wizard

import (
	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/service"
	"github.com/Eursukkul/studio-booking/internal/slots"
	"github.com/shopspring/decimal"
)

type ResourceOption struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Venue        string          `json:"venue,omitempty"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
}

// Screen is the render data for the current step of a flow.
type Screen struct {
	Stage      Stage  `json:"stage"`
	FlowID     string `json:"flow_id"`
	Author     string `json:"author"`
	Instrument string `json:"instrument,omitempty"`
	ResourceID uint   `json:"resource_id,omitempty"`
	Date       string `json:"date,omitempty"`

	Instruments  []string         `json:"instruments,omitempty"`
	Resources    []ResourceOption `json:"resources,omitempty"`
	DaySlots     []slots.TimeSlot `json:"day_slots,omitempty"`
	EveningSlots []slots.TimeSlot `json:"evening_slots,omitempty"`
	Checked      []string         `json:"checked,omitempty"`

	Booking *service.FinalizedBooking `json:"booking,omitempty"`
	Message string                    `json:"message,omitempty"`
}

func newScreen(s *Session) *Screen {
	return &Screen{
		Stage:      s.Stage,
		FlowID:     s.FlowID,
		Author:     s.Author,
		Instrument: s.Instrument,
		ResourceID: s.ResourceID,
		Date:       s.Date,
		Checked:    append([]string(nil), s.Times...),
	}
}

func resourceOptions(resources []models.Resource) []ResourceOption {
	out := make([]ResourceOption, len(resources))
	for i, r := range resources {
		out[i] = ResourceOption{ID: r.ID, Name: r.Name, Venue: r.Venue, PricePerHour: r.PricePerHour}
	}
	return out
}
