package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Instruments is the fixed list offered at the first wizard step.
var Instruments = []string{"guitar", "bass", "drums", "vocals", "keys", "piano"}

func IsInstrument(tag string) bool {
	for _, i := range Instruments {
		if i == tag {
			return true
		}
	}
	return false
}

// Resource is a bookable teacher. Rows are owned by the admin process and synced
// in through the resource consumer.
type Resource struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	Instrument   string          `gorm:"type:varchar(32);not null;index" json:"instrument"`
	Venue        string          `json:"venue,omitempty"`
	PricePerHour decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_per_hour"`
	Active       bool            `gorm:"not null" json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
