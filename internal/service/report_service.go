package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/rehearsal"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/Eursukkul/studio-booking/internal/slots"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ReportEntry struct {
	ID           uint            `json:"id"`
	ResourceID   uint            `json:"resource_id"`
	ResourceName string          `json:"resource_name"`
	Time         string          `json:"time"`
	Hour         int             `json:"hour"`
	Bucket       slots.Bucket    `json:"bucket"`
	Author       string          `json:"author"`
	Price        decimal.Decimal `json:"price"`
	// Rehearsal is the 1-based index into ReportDay.Rehearsals, 0 when the hour stands alone.
	Rehearsal int `json:"rehearsal,omitempty"`
}

type RehearsalSummary struct {
	ResourceID   uint   `json:"resource_id"`
	ResourceName string `json:"resource_name"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Hours        int    `json:"hours"`
}

type ReportDay struct {
	Date       string             `json:"date"`
	Entries    []ReportEntry      `json:"entries"`
	Rehearsals []RehearsalSummary `json:"rehearsals"`
}

type ReportStats struct {
	Total int `json:"total"`
	Today int `json:"today"`
	Days  int `json:"days"`
}

type Report struct {
	Days  []ReportDay `json:"days"`
	Stats ReportStats `json:"stats"`
}

type ReportService interface {
	List(ctx context.Context, filter repository.ReservationFilter) (*Report, error)
	Delete(ctx context.Context, id uint) (bool, error)
}

type reportService struct {
	reservations repository.ReservationRepository
	publisher    Publisher
	now          func() time.Time
	log          *zap.Logger
}

func NewReportService(
	reservations repository.ReservationRepository,
	publisher Publisher,
	now func() time.Time,
	log *zap.Logger,
) ReportService {
	if now == nil {
		now = time.Now
	}
	return &reportService{reservations: reservations, publisher: publisher, now: now, log: log}
}

// List returns reservations grouped by date with rehearsal runs flagged. On a
// store failure the report is empty and the error wraps ErrStoreUnavailable.
func (s *reportService) List(ctx context.Context, filter repository.ReservationFilter) (*Report, error) {
	reservations, err := s.reservations.List(ctx, filter)
	if err != nil {
		return &Report{Days: []ReportDay{}}, fmt.Errorf("%w: list reservations: %v", ErrStoreUnavailable, err)
	}

	report := &Report{Days: []ReportDay{}}
	today := models.DateOnly(s.now()).Format(models.DateLayout)

	start := 0
	for i := 1; i <= len(reservations); i++ {
		if i < len(reservations) && reservations[i].Day().Equal(reservations[start].Day()) {
			continue
		}
		day := buildDay(reservations[start:i])
		if day.Date == today {
			report.Stats.Today = len(day.Entries)
		}
		report.Days = append(report.Days, day)
		start = i
	}
	report.Stats.Total = len(reservations)
	report.Stats.Days = len(report.Days)

	return report, nil
}

// buildDay expects reservations of a single date ordered by hour.
func buildDay(reservations []models.Reservation) ReportDay {
	day := ReportDay{
		Date:       reservations[0].Day().Format(models.DateLayout),
		Entries:    make([]ReportEntry, 0, len(reservations)),
		Rehearsals: []RehearsalSummary{},
	}

	var order []uint
	byResource := make(map[uint][]models.Reservation)
	for _, r := range reservations {
		if _, ok := byResource[r.ResourceID]; !ok {
			order = append(order, r.ResourceID)
		}
		byResource[r.ResourceID] = append(byResource[r.ResourceID], r)
	}

	clusterOf := make(map[uint]int)
	for _, resourceID := range order {
		for _, c := range rehearsal.Group(byResource[resourceID]) {
			first, last := c.Reservations[0], c.Reservations[len(c.Reservations)-1]
			day.Rehearsals = append(day.Rehearsals, RehearsalSummary{
				ResourceID:   c.ResourceID,
				ResourceName: resourceName(first),
				Start:        first.TimeLabel,
				End:          last.TimeLabel,
				Hours:        len(c.Reservations),
			})
			for _, member := range c.Reservations {
				clusterOf[member.ID] = len(day.Rehearsals)
			}
		}
	}

	for _, r := range reservations {
		day.Entries = append(day.Entries, ReportEntry{
			ID:           r.ID,
			ResourceID:   r.ResourceID,
			ResourceName: resourceName(r),
			Time:         r.TimeLabel,
			Hour:         r.Hour,
			Bucket:       slots.BucketOf(r.Hour),
			Author:       r.Author,
			Price:        r.Price,
			Rehearsal:    clusterOf[r.ID],
		})
	}
	return day
}

func resourceName(r models.Reservation) string {
	if r.Resource == nil {
		return ""
	}
	return r.Resource.Name
}

// Delete removes a reservation by id. A missing id reports false without error.
func (s *reportService) Delete(ctx context.Context, id uint) (bool, error) {
	found, err := s.reservations.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%w: delete reservation: %v", ErrStoreUnavailable, err)
	}
	if !found {
		return false, nil
	}

	s.log.Info("reservation deleted", zap.Uint("id", id))
	if s.publisher != nil {
		if err := s.publisher.Publish(RoutingReservationDeleted, ReservationEvent{ReservationIDs: []uint{id}}); err != nil {
			s.log.Warn("publish reservation.deleted failed", zap.Error(err))
		}
	}
	return true, nil
}
