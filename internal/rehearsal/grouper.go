// Package rehearsal detects runs of back-to-back hours booked for one teacher
// on one day. The result is derived for reporting and never stored.
package rehearsal

import (
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
)

// MinSize is the smallest run reported as a rehearsal.
const MinSize = 2

type Cluster struct {
	ResourceID   uint                 `json:"resource_id"`
	Date         time.Time            `json:"date"`
	StartHour    int                  `json:"start_hour"`
	EndHour      int                  `json:"end_hour"`
	Reservations []models.Reservation `json:"reservations"`
}

// Group scans reservations of a single (resource, date), already sorted by hour,
// and returns every run of at least MinSize consecutive hours. Input is not sorted
// here; a repeated hour breaks the run like any other gap.
func Group(sorted []models.Reservation) []Cluster {
	clusters := []Cluster{}
	if len(sorted) == 0 {
		return clusters
	}

	open := []models.Reservation{sorted[0]}
	flush := func() {
		if len(open) >= MinSize {
			clusters = append(clusters, newCluster(open))
		}
	}

	for _, r := range sorted[1:] {
		if r.Hour == open[len(open)-1].Hour+1 {
			open = append(open, r)
			continue
		}
		flush()
		open = []models.Reservation{r}
	}
	flush()

	return clusters
}

func newCluster(run []models.Reservation) Cluster {
	members := append([]models.Reservation(nil), run...)
	return Cluster{
		ResourceID:   members[0].ResourceID,
		Date:         members[0].Day(),
		StartHour:    members[0].Hour,
		EndHour:      members[len(members)-1].Hour,
		Reservations: members,
	}
}
