package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Reservation is one committed hour of one resource. Rows are never updated;
// corrections are delete + recreate.
type Reservation struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ResourceID uint            `gorm:"not null;index" json:"resource_id"`
	Date       datatypes.Date  `gorm:"not null;index" json:"date"`
	TimeLabel  string          `gorm:"type:varchar(5);not null" json:"time"`
	Hour       int             `gorm:"not null" json:"hour"`
	Author     string          `gorm:"not null" json:"author"`
	Price      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	CreatedAt  time.Time       `json:"created_at"`

	Resource *Resource `gorm:"foreignKey:ResourceID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"resource,omitempty"`
}

// Day returns the reservation date as a UTC midnight time.
func (r Reservation) Day() time.Time {
	return DateOnly(time.Time(r.Date))
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const DateLayout = "2006-01-02"
