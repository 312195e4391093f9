package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/Eursukkul/studio-booking/internal/slots"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoutingReservationCreated = "reservation.created"
	RoutingReservationDeleted = "reservation.deleted"
)

// Publisher sends booking events to the message broker.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

type CommitRequest struct {
	ResourceID uint
	Date       time.Time
	Labels     []string
	Author     string
}

// FinalizedBooking is the snapshot of a successful commit, rendered on the terminal screen.
type FinalizedBooking struct {
	ResourceID     uint            `json:"resource_id"`
	ResourceName   string          `json:"resource_name"`
	Date           string          `json:"date"`
	Times          []string        `json:"times"`
	Author         string          `json:"author"`
	PricePerHour   decimal.Decimal `json:"price_per_hour"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	ReservationIDs []uint          `json:"reservation_ids"`
}

// ReservationEvent is the payload of reservation.created and reservation.deleted.
type ReservationEvent struct {
	ReservationIDs []uint   `json:"reservation_ids"`
	ResourceID     uint     `json:"resource_id,omitempty"`
	Date           string   `json:"date,omitempty"`
	Times          []string `json:"times,omitempty"`
	Author         string   `json:"author,omitempty"`
}

type ReservationCoordinator interface {
	Commit(ctx context.Context, req CommitRequest) (*FinalizedBooking, error)
}

type reservationCoordinator struct {
	reservations repository.ReservationRepository
	resources    repository.ResourceRepository
	publisher    Publisher
	log          *zap.Logger
}

func NewReservationCoordinator(
	reservations repository.ReservationRepository,
	resources repository.ResourceRepository,
	publisher Publisher,
	log *zap.Logger,
) ReservationCoordinator {
	return &reservationCoordinator{
		reservations: reservations,
		resources:    resources,
		publisher:    publisher,
		log:          log,
	}
}

// Commit reserves every requested label or none of them. Conflicts are detected
// only by the store's uniqueness index; there is no availability pre-check.
func (c *reservationCoordinator) Commit(ctx context.Context, req CommitRequest) (*FinalizedBooking, error) {
	labels, err := normalizeLabels(req.Labels)
	if err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, NewValidationError("date", "date is required")
	}
	if req.Author == "" {
		return nil, NewValidationError("author", "author is required")
	}

	resource, err := c.resources.FindByID(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("%w: find resource: %v", ErrStoreUnavailable, err)
	}
	if !resource.Active {
		return nil, ErrResourceNotFound
	}

	day := models.DateOnly(req.Date)
	dayStr := day.Format(models.DateLayout)
	ids := make([]uint, 0, len(labels))

	err = c.reservations.Transaction(ctx, func(tx repository.ReservationRepository) error {
		ids = ids[:0]
		for _, label := range labels {
			hour, _ := slots.Hour(label)
			r := &models.Reservation{
				ResourceID: resource.ID,
				Date:       datatypes.Date(day),
				TimeLabel:  label,
				Hour:       hour,
				Author:     req.Author,
				Price:      resource.PricePerHour,
			}
			if err := tx.Create(ctx, r); err != nil {
				if errors.Is(err, repository.ErrDuplicateReservation) {
					return &SlotConflictError{ResourceID: resource.ID, Date: dayStr, Label: label}
				}
				return err
			}
			ids = append(ids, r.ID)
		}
		return nil
	})
	if err != nil {
		var conflict *SlotConflictError
		if errors.As(err, &conflict) {
			c.log.Info("commit rejected, slot taken",
				zap.Uint("resource_id", resource.ID),
				zap.String("date", dayStr),
				zap.String("label", conflict.Label),
			)
			return nil, conflict
		}
		return nil, fmt.Errorf("%w: commit reservations: %v", ErrStoreUnavailable, err)
	}

	booking := &FinalizedBooking{
		ResourceID:     resource.ID,
		ResourceName:   resource.Name,
		Date:           dayStr,
		Times:          labels,
		Author:         req.Author,
		PricePerHour:   resource.PricePerHour,
		TotalPrice:     resource.PricePerHour.Mul(decimal.NewFromInt(int64(len(labels)))),
		ReservationIDs: ids,
	}

	c.log.Info("reservations committed",
		zap.Uint("resource_id", resource.ID),
		zap.String("date", dayStr),
		zap.Strings("times", labels),
		zap.String("author", req.Author),
	)

	if c.publisher != nil {
		event := ReservationEvent{
			ReservationIDs: ids,
			ResourceID:     resource.ID,
			Date:           dayStr,
			Times:          labels,
			Author:         req.Author,
		}
		if err := c.publisher.Publish(RoutingReservationCreated, event); err != nil {
			c.log.Warn("publish reservation.created failed", zap.Error(err))
		}
	}

	return booking, nil
}

// normalizeLabels validates labels against the catalog, drops repeats and
// returns them in catalog order.
func normalizeLabels(labels []string) ([]string, error) {
	if len(labels) == 0 {
		return nil, NewValidationError("times", "select at least one time slot")
	}
	seen := make(map[string]struct{}, len(labels))
	unique := make([]string, 0, len(labels))
	for _, l := range labels {
		if !slots.IsCatalogLabel(l) {
			return nil, NewValidationError("times", "unknown time slot %q", l)
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		unique = append(unique, l)
	}
	return slots.SortLabels(unique), nil
}
