package slots

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrStoreUnavailable is returned when booked labels cannot be read.
var ErrStoreUnavailable = errors.New("reservation store unavailable")

type Bucket string

const (
	BucketDay     Bucket = "day"
	BucketEvening Bucket = "evening"
)

// eveningFrom is the first hour of the evening bucket.
const eveningFrom = 16

// Labels is the process-wide ordered universe of bookable hours.
var Labels = []string{
	"8:00", "9:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00",
	"16:00", "17:00", "18:00", "19:00", "20:00", "21:00", "22:00", "23:00",
}

var position = func() map[string]int {
	m := make(map[string]int, len(Labels))
	for i, l := range Labels {
		m[l] = i
	}
	return m
}()

type TimeSlot struct {
	Date   time.Time `json:"date"`
	Label  string    `json:"label"`
	Hour   int       `json:"hour"`
	Bucket Bucket    `json:"bucket"`
}

// BookedLabelReader is the read side of the reservation store used here.
type BookedLabelReader interface {
	BookedLabels(ctx context.Context, resourceID uint, date time.Time) ([]string, error)
}

type Catalog struct {
	store BookedLabelReader
}

func NewCatalog(store BookedLabelReader) *Catalog {
	return &Catalog{store: store}
}

// Available returns the catalog labels not yet reserved for resourceID on date,
// in catalog order. A missing resource or date yields an empty result.
func (c *Catalog) Available(ctx context.Context, resourceID uint, date time.Time) ([]TimeSlot, error) {
	if resourceID == 0 || date.IsZero() {
		return []TimeSlot{}, nil
	}

	booked, err := c.store.BookedLabels(ctx, resourceID, date)
	if err != nil {
		return nil, fmt.Errorf("%w: booked labels: %v", ErrStoreUnavailable, err)
	}
	taken := make(map[string]struct{}, len(booked))
	for _, l := range booked {
		taken[l] = struct{}{}
	}

	out := make([]TimeSlot, 0, len(Labels))
	for _, l := range Labels {
		if _, ok := taken[l]; ok {
			continue
		}
		h, _ := Hour(l)
		out = append(out, TimeSlot{Date: date, Label: l, Hour: h, Bucket: BucketOf(h)})
	}
	return out, nil
}

// Split partitions slots into the day and evening display buckets.
func Split(slots []TimeSlot) (day, evening []TimeSlot) {
	day, evening = []TimeSlot{}, []TimeSlot{}
	for _, s := range slots {
		if s.Bucket == BucketEvening {
			evening = append(evening, s)
		} else {
			day = append(day, s)
		}
	}
	return day, evening
}

func IsCatalogLabel(label string) bool {
	_, ok := position[label]
	return ok
}

// Hour parses the integer hour of a "H:MM" label.
func Hour(label string) (int, error) {
	hh, _, ok := strings.Cut(label, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time label %q", label)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid time label %q", label)
	}
	return h, nil
}

func BucketOf(hour int) Bucket {
	if hour >= eveningFrom {
		return BucketEvening
	}
	return BucketDay
}

// SortLabels returns a copy of labels in catalog order; unknown labels go last.
func SortLabels(labels []string) []string {
	out := append([]string(nil), labels...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, ok := position[out[i]]
		if !ok {
			pi = len(Labels)
		}
		pj, ok := position[out[j]]
		if !ok {
			pj = len(Labels)
		}
		return pi < pj
	})
	return out
}
