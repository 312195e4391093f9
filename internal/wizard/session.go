package wizard

import (
	"time"

	"github.com/Eursukkul/studio-booking/internal/service"
)

type Stage string

const (
	StageSelectInstrument Stage = "select_instrument"
	StageSelectResource   Stage = "select_resource"
	StageSelectDate       Stage = "select_date"
	StageSelectTime       Stage = "select_time"
	StageConfirmed        Stage = "confirmed"
)

// Session is one user's in-progress booking flow. Fields belonging to a later
// stage are only set once the flow has reached that stage.
type Session struct {
	UserID     string                    `json:"user_id"`
	FlowID     string                    `json:"flow_id"`
	Author     string                    `json:"author"`
	Stage      Stage                     `json:"stage"`
	Instrument string                    `json:"instrument,omitempty"`
	ResourceID uint                      `json:"resource_id,omitempty"`
	Date       string                    `json:"date,omitempty"`
	Times      []string                  `json:"times,omitempty"`
	Finalized  *service.FinalizedBooking `json:"finalized,omitempty"`
	UpdatedAt  time.Time                 `json:"updated_at"`
}

func (s *Session) chooseInstrument(tag string) {
	s.Instrument = tag
	s.Stage = StageSelectResource
}

func (s *Session) chooseResource(id uint) {
	s.ResourceID = id
	s.Stage = StageSelectDate
}

func (s *Session) chooseDate(iso string) {
	s.Date = iso
	s.Times = nil
	s.Stage = StageSelectTime
}

// toggle adds label or removes it when already checked. Insertion order is kept.
func (s *Session) toggle(label string) {
	for i, t := range s.Times {
		if t == label {
			s.Times = append(s.Times[:i:i], s.Times[i+1:]...)
			return
		}
	}
	s.Times = append(s.Times, label)
}

func (s *Session) confirm(booking *service.FinalizedBooking) {
	s.Finalized = booking
	s.Stage = StageConfirmed
}

// backToResource drops everything chosen after the instrument.
func (s *Session) backToResource() {
	s.ResourceID = 0
	s.Date = ""
	s.Times = nil
	s.Stage = StageSelectResource
}

func (s *Session) clone() *Session {
	c := *s
	c.Times = append([]string(nil), s.Times...)
	return &c
}
