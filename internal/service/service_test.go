package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/Eursukkul/studio-booking/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- Mock Publisher ---

type published struct {
	key     string
	payload any
}

type mockPublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (m *mockPublisher) Publish(routingKey string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, published{key: routingKey, payload: payload})
	return m.err
}

// --- Fixture ---

type fixture struct {
	db           *gorm.DB
	reservations repository.ReservationRepository
	resources    repository.ResourceRepository
	publisher    *mockPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	f := &fixture{
		db:           db,
		reservations: repository.NewReservationRepository(db),
		resources:    repository.NewResourceRepository(db),
		publisher:    &mockPublisher{},
	}
	f.seedResource(t, 7, "Ivan", "drums", 1500, true)
	return f
}

func (f *fixture) seedResource(t *testing.T, id uint, name, instrument string, price int64, active bool) {
	t.Helper()
	require.NoError(t, f.resources.Upsert(context.Background(), &models.Resource{
		ID:           id,
		Name:         name,
		Instrument:   instrument,
		PricePerHour: decimal.NewFromInt(price),
		Active:       active,
	}))
}

func (f *fixture) coordinator() ReservationCoordinator {
	return NewReservationCoordinator(f.reservations, f.resources, f.publisher, zap.NewNop())
}

func (f *fixture) booked(t *testing.T, resourceID uint, day time.Time) []string {
	t.Helper()
	labels, err := f.reservations.BookedLabels(context.Background(), resourceID, day)
	require.NoError(t, err)
	return labels
}

var march10 = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
