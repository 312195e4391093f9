package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrDuplicateReservation is returned when the (resource, date, time) index rejects an insert.
var ErrDuplicateReservation = errors.New("reservation slot already taken")

// ReservationFilter narrows List; nil fields are not applied. Dates are inclusive.
type ReservationFilter struct {
	ResourceID *uint
	DateFrom   *time.Time
	DateTo     *time.Time
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *models.Reservation) error
	Delete(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, filter ReservationFilter) ([]models.Reservation, error)
	BookedLabels(ctx context.Context, resourceID uint, date time.Time) ([]string, error)
	// Transaction runs fn against a repository bound to one DB transaction.
	// Any error returned by fn rolls back every write made through tx.
	Transaction(ctx context.Context, fn func(tx ReservationRepository) error) error
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	reservation.Date = datatypes.Date(models.DateOnly(time.Time(reservation.Date)))
	err := r.db.WithContext(ctx).Omit("Resource").Create(reservation).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateReservation
	}
	return err
}

func (r *reservationRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Reservation{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *reservationRepository) List(ctx context.Context, filter ReservationFilter) ([]models.Reservation, error) {
	var reservations []models.Reservation
	q := r.db.WithContext(ctx).Preload("Resource")
	if filter.ResourceID != nil {
		q = q.Where("resource_id = ?", *filter.ResourceID)
	}
	if filter.DateFrom != nil {
		q = q.Where("date >= ?", dateArg(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		q = q.Where("date <= ?", dateArg(*filter.DateTo))
	}
	if err := q.Order("date ASC, hour ASC, resource_id ASC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) BookedLabels(ctx context.Context, resourceID uint, date time.Time) ([]string, error) {
	var labels []string
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("resource_id = ? AND date = ?", resourceID, dateArg(date)).
		Order("hour ASC").
		Pluck("time_label", &labels).Error
	if err != nil {
		return nil, err
	}
	return labels, nil
}

func (r *reservationRepository) Transaction(ctx context.Context, fn func(tx ReservationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&reservationRepository{db: tx})
	})
}

func dateArg(t time.Time) datatypes.Date {
	return datatypes.Date(models.DateOnly(t))
}
