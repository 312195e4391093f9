// Package wizard drives the per-user booking flow:
// instrument, teacher, date, time slots, confirmation.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/service"
	"github.com/Eursukkul/studio-booking/internal/slots"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SlotLister interface {
	Available(ctx context.Context, resourceID uint, date time.Time) ([]slots.TimeSlot, error)
}

type ResourceLister interface {
	FindActiveByInstrument(ctx context.Context, instrument string) ([]models.Resource, error)
}

type Options struct {
	// RejectPastDates refuses dates before today at the date step.
	RejectPastDates bool
	Now             func() time.Time
	// NewID generates flow ids.
	NewID func() string
}

type Wizard struct {
	sessions    SessionStore
	catalog     SlotLister
	resources   ResourceLister
	coordinator service.ReservationCoordinator
	opts        Options
	log         *zap.Logger
}

func New(
	sessions SessionStore,
	catalog SlotLister,
	resources ResourceLister,
	coordinator service.ReservationCoordinator,
	opts Options,
	log *zap.Logger,
) *Wizard {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Wizard{
		sessions:    sessions,
		catalog:     catalog,
		resources:   resources,
		coordinator: coordinator,
		opts:        opts,
		log:         log,
	}
}

// AuthorFor returns the display author for a user: the username, or user_<id> without one.
func AuthorFor(userID, username string) string {
	if username != "" {
		return username
	}
	return "user_" + userID
}

// StartFlow discards any session of userID and opens a fresh one at instrument selection.
func (w *Wizard) StartFlow(ctx context.Context, userID, author string) (*Screen, error) {
	if userID == "" {
		return nil, service.NewValidationError("user", "user id is required")
	}
	s := &Session{
		UserID: userID,
		FlowID: w.opts.NewID(),
		Author: AuthorFor(userID, author),
		Stage:  StageSelectInstrument,
	}
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}
	w.log.Debug("flow started", zap.String("user", userID), zap.String("flow", s.FlowID))
	return w.render(ctx, s)
}

// Current re-renders the screen of the live session.
func (w *Wizard) Current(ctx context.Context, userID string) (*Screen, error) {
	s, err := w.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return w.render(ctx, s)
}

func (w *Wizard) SelectInstrument(ctx context.Context, userID, tag string) (*Screen, error) {
	return w.step(ctx, userID, StageSelectInstrument, func(s *Session) error {
		if !models.IsInstrument(tag) {
			return service.NewValidationError("instrument", "unknown instrument %q", tag)
		}
		s.chooseInstrument(tag)
		return nil
	})
}

func (w *Wizard) SelectResource(ctx context.Context, userID string, resourceID uint) (*Screen, error) {
	return w.step(ctx, userID, StageSelectResource, func(s *Session) error {
		resources, err := w.resources.FindActiveByInstrument(ctx, s.Instrument)
		if err != nil {
			return fmt.Errorf("%w: list resources: %v", service.ErrStoreUnavailable, err)
		}
		for _, r := range resources {
			if r.ID == resourceID {
				s.chooseResource(resourceID)
				return nil
			}
		}
		return service.NewValidationError("resource", "teacher %d is not available for %s", resourceID, s.Instrument)
	})
}

func (w *Wizard) SelectDate(ctx context.Context, userID, isoDate string) (*Screen, error) {
	return w.step(ctx, userID, StageSelectDate, func(s *Session) error {
		d, err := time.Parse(models.DateLayout, isoDate)
		if err != nil {
			return service.NewValidationError("date", "invalid date %q, expected YYYY-MM-DD", isoDate)
		}
		if w.opts.RejectPastDates && d.Before(models.DateOnly(w.opts.Now())) {
			return service.NewValidationError("date", "date %s is in the past", isoDate)
		}
		s.chooseDate(d.Format(models.DateLayout))
		return nil
	})
}

func (w *Wizard) ToggleTimeLabel(ctx context.Context, userID, label string) (*Screen, error) {
	return w.step(ctx, userID, StageSelectTime, func(s *Session) error {
		if !slots.IsCatalogLabel(label) {
			return service.NewValidationError("time", "unknown time slot %q", label)
		}
		s.toggle(label)
		return nil
	})
}

// Commit reserves the checked slots. Only success moves the flow to Confirmed;
// a taken slot or store failure leaves the selection as it was, and a vanished
// teacher sends the user back to teacher selection.
func (w *Wizard) Commit(ctx context.Context, userID string) (*Screen, error) {
	s, err := w.load(ctx, userID, StageSelectTime)
	if err != nil {
		return w.fail(ctx, s, err)
	}
	if len(s.Times) == 0 {
		return w.fail(ctx, s, service.NewValidationError("times", "select at least one time slot"))
	}

	day, _ := time.Parse(models.DateLayout, s.Date)
	booking, err := w.coordinator.Commit(ctx, service.CommitRequest{
		ResourceID: s.ResourceID,
		Date:       day,
		Labels:     s.Times,
		Author:     s.Author,
	})
	switch {
	case err == nil:
		s.confirm(booking)
		if err := w.save(ctx, s); err != nil {
			return nil, err
		}
		return w.render(ctx, s)
	case errors.Is(err, service.ErrResourceNotFound):
		s.backToResource()
		if saveErr := w.save(ctx, s); saveErr != nil {
			return nil, saveErr
		}
		return w.fail(ctx, s, err)
	case errors.Is(err, service.ErrSlotConflict), errors.Is(err, service.ErrValidation):
		return w.fail(ctx, s, err)
	default:
		w.log.Error("commit failed", zap.String("user", userID), zap.Error(err))
		return w.fail(ctx, s, err)
	}
}

// step loads the session, checks it is at stage, applies fn and saves. On error
// nothing is saved and the unchanged screen comes back with the error.
func (w *Wizard) step(ctx context.Context, userID string, stage Stage, fn func(s *Session) error) (*Screen, error) {
	s, err := w.load(ctx, userID, stage)
	if err != nil {
		return w.fail(ctx, s, err)
	}
	before := s.clone()
	if err := fn(s); err != nil {
		return w.fail(ctx, before, err)
	}
	if err := w.save(ctx, s); err != nil {
		return w.fail(ctx, before, err)
	}
	return w.render(ctx, s)
}

func (w *Wizard) load(ctx context.Context, userID string, stage Stage) (*Session, error) {
	s, err := w.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.Stage == StageConfirmed {
		return s, service.NewValidationError("stage", "booking is already confirmed, start a new one")
	}
	if s.Stage != stage {
		return s, service.NewValidationError("stage", "action not allowed at step %s", s.Stage)
	}
	return s, nil
}

func (w *Wizard) save(ctx context.Context, s *Session) error {
	s.UpdatedAt = w.opts.Now().UTC()
	return w.sessions.Save(ctx, s)
}

// fail renders the current screen of s (when there is one) with err as its message.
func (w *Wizard) fail(ctx context.Context, s *Session, err error) (*Screen, error) {
	if s == nil {
		return nil, err
	}
	screen, renderErr := w.render(ctx, s)
	if renderErr != nil {
		screen = newScreen(s)
	}
	screen.Message = err.Error()
	return screen, err
}

func (w *Wizard) render(ctx context.Context, s *Session) (*Screen, error) {
	screen := newScreen(s)
	switch s.Stage {
	case StageSelectInstrument:
		screen.Instruments = append([]string(nil), models.Instruments...)
	case StageSelectResource:
		resources, err := w.resources.FindActiveByInstrument(ctx, s.Instrument)
		if err != nil {
			return nil, fmt.Errorf("%w: list resources: %v", service.ErrStoreUnavailable, err)
		}
		screen.Resources = resourceOptions(resources)
	case StageSelectTime:
		day, _ := time.Parse(models.DateLayout, s.Date)
		available, err := w.catalog.Available(ctx, s.ResourceID, day)
		if err != nil {
			return nil, err
		}
		screen.DaySlots, screen.EveningSlots = slots.Split(available)
	case StageConfirmed:
		screen.Booking = s.Finalized
	}
	return screen, nil
}
