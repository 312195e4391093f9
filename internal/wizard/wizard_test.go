package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/Eursukkul/studio-booking/internal/service"
	"github.com/Eursukkul/studio-booking/internal/slots"
	"github.com/Eursukkul/studio-booking/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mocks ---

type mockResources struct {
	FindActiveByInstrumentFunc func(ctx context.Context, instrument string) ([]models.Resource, error)
}

func (m *mockResources) FindActiveByInstrument(ctx context.Context, instrument string) ([]models.Resource, error) {
	return m.FindActiveByInstrumentFunc(ctx, instrument)
}

type mockCatalog struct {
	AvailableFunc func(ctx context.Context, resourceID uint, date time.Time) ([]slots.TimeSlot, error)
}

func (m *mockCatalog) Available(ctx context.Context, resourceID uint, date time.Time) ([]slots.TimeSlot, error) {
	return m.AvailableFunc(ctx, resourceID, date)
}

type mockCoordinator struct {
	CommitFunc func(ctx context.Context, req service.CommitRequest) (*service.FinalizedBooking, error)
}

func (m *mockCoordinator) Commit(ctx context.Context, req service.CommitRequest) (*service.FinalizedBooking, error) {
	return m.CommitFunc(ctx, req)
}

func drumTeachers() *mockResources {
	return &mockResources{
		FindActiveByInstrumentFunc: func(ctx context.Context, instrument string) ([]models.Resource, error) {
			if instrument != "drums" {
				return []models.Resource{}, nil
			}
			return []models.Resource{{ID: 7, Name: "Ivan", Instrument: "drums", PricePerHour: decimal.NewFromInt(1500), Active: true}}, nil
		},
	}
}

func allFree() *mockCatalog {
	return &mockCatalog{
		AvailableFunc: func(ctx context.Context, resourceID uint, date time.Time) ([]slots.TimeSlot, error) {
			out := make([]slots.TimeSlot, 0, len(slots.Labels))
			for _, l := range slots.Labels {
				h, _ := slots.Hour(l)
				out = append(out, slots.TimeSlot{Date: date, Label: l, Hour: h, Bucket: slots.BucketOf(h)})
			}
			return out, nil
		},
	}
}

var march1 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newMockWizard(coordinator service.ReservationCoordinator) *Wizard {
	now := func() time.Time { return march1 }
	return New(NewMemoryStore(30*time.Minute, now), allFree(), drumTeachers(), coordinator, Options{Now: now}, zap.NewNop())
}

// advance walks userID's flow to time selection on 2025-03-10 with teacher 7.
func advance(t *testing.T, w *Wizard, userID string) {
	t.Helper()
	ctx := context.Background()
	_, err := w.StartFlow(ctx, userID, "alice")
	require.NoError(t, err)
	_, err = w.SelectInstrument(ctx, userID, "drums")
	require.NoError(t, err)
	_, err = w.SelectResource(ctx, userID, 7)
	require.NoError(t, err)
	_, err = w.SelectDate(ctx, userID, "2025-03-10")
	require.NoError(t, err)
}

// --- Tests ---

func TestStartFlow(t *testing.T) {
	w := newMockWizard(nil)

	screen, err := w.StartFlow(context.Background(), "42", "")

	require.NoError(t, err)
	assert.Equal(t, StageSelectInstrument, screen.Stage)
	assert.Equal(t, "user_42", screen.Author)
	assert.NotEmpty(t, screen.FlowID)
	assert.Equal(t, models.Instruments, screen.Instruments)
}

func TestStartFlow_ResetsExisting(t *testing.T) {
	ids := []string{"flow-1", "flow-2"}
	now := func() time.Time { return march1 }
	w := New(NewMemoryStore(time.Hour, now), allFree(), drumTeachers(), nil, Options{
		Now: now,
		NewID: func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		},
	}, zap.NewNop())
	advance(t, w, "42")
	first, err := w.Current(context.Background(), "42")
	require.NoError(t, err)

	screen, err := w.StartFlow(context.Background(), "42", "alice")

	require.NoError(t, err)
	assert.Equal(t, StageSelectInstrument, screen.Stage)
	assert.Equal(t, "flow-1", first.FlowID)
	assert.Equal(t, "flow-2", screen.FlowID)
	assert.Zero(t, screen.ResourceID)
	assert.Empty(t, screen.Date)
}

func TestCurrent_NoSession(t *testing.T) {
	w := newMockWizard(nil)

	_, err := w.Current(context.Background(), "42")

	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStages_AreLinear(t *testing.T) {
	w := newMockWizard(nil)
	ctx := context.Background()
	_, err := w.StartFlow(ctx, "42", "alice")
	require.NoError(t, err)

	_, err = w.SelectResource(ctx, "42", 7)
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = w.SelectDate(ctx, "42", "2025-03-10")
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = w.ToggleTimeLabel(ctx, "42", "9:00")
	assert.ErrorIs(t, err, service.ErrValidation)
	screen, err := w.Commit(ctx, "42")
	assert.ErrorIs(t, err, service.ErrValidation)
	require.NotNil(t, screen)
	assert.Equal(t, StageSelectInstrument, screen.Stage)
	assert.NotEmpty(t, screen.Message)
}

func TestSelectInstrument_Unknown(t *testing.T) {
	w := newMockWizard(nil)
	ctx := context.Background()
	_, err := w.StartFlow(ctx, "42", "alice")
	require.NoError(t, err)

	screen, err := w.SelectInstrument(ctx, "42", "theremin")

	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Equal(t, StageSelectInstrument, screen.Stage)
}

func TestSelectResource_ListsAndValidates(t *testing.T) {
	w := newMockWizard(nil)
	ctx := context.Background()
	_, err := w.StartFlow(ctx, "42", "alice")
	require.NoError(t, err)

	screen, err := w.SelectInstrument(ctx, "42", "drums")
	require.NoError(t, err)
	require.Len(t, screen.Resources, 1)
	assert.Equal(t, "Ivan", screen.Resources[0].Name)

	_, err = w.SelectResource(ctx, "42", 99)
	assert.ErrorIs(t, err, service.ErrValidation)

	screen, err = w.SelectResource(ctx, "42", 7)
	require.NoError(t, err)
	assert.Equal(t, StageSelectDate, screen.Stage)
}

func TestSelectDate(t *testing.T) {
	w := newMockWizard(nil)
	ctx := context.Background()
	_, err := w.StartFlow(ctx, "43", "bob")
	require.NoError(t, err)
	_, err = w.SelectInstrument(ctx, "43", "drums")
	require.NoError(t, err)
	_, err = w.SelectResource(ctx, "43", 7)
	require.NoError(t, err)

	_, err = w.SelectDate(ctx, "43", "10.03.2025")
	assert.ErrorIs(t, err, service.ErrValidation)

	screen, err := w.SelectDate(ctx, "43", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, StageSelectTime, screen.Stage)
	assert.Len(t, screen.DaySlots, 8)
	assert.Len(t, screen.EveningSlots, 8)
	assert.Equal(t, "8:00", screen.DaySlots[0].Label)
}

func TestSelectDate_RejectPast(t *testing.T) {
	now := func() time.Time { return march1 }
	w := New(NewMemoryStore(time.Hour, now), allFree(), drumTeachers(), nil, Options{Now: now, RejectPastDates: true}, zap.NewNop())
	ctx := context.Background()
	_, err := w.StartFlow(ctx, "42", "alice")
	require.NoError(t, err)
	_, err = w.SelectInstrument(ctx, "42", "drums")
	require.NoError(t, err)
	_, err = w.SelectResource(ctx, "42", 7)
	require.NoError(t, err)

	_, err = w.SelectDate(ctx, "42", "2025-02-28")
	assert.ErrorIs(t, err, service.ErrValidation)

	screen, err := w.SelectDate(ctx, "42", "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, StageSelectTime, screen.Stage)
}

func TestToggleTimeLabel(t *testing.T) {
	w := newMockWizard(nil)
	ctx := context.Background()
	advance(t, w, "42")

	_, err := w.ToggleTimeLabel(ctx, "42", "14:00")
	require.NoError(t, err)
	_, err = w.ToggleTimeLabel(ctx, "42", "9:00")
	require.NoError(t, err)
	screen, err := w.ToggleTimeLabel(ctx, "42", "14:00")
	require.NoError(t, err)
	assert.Equal(t, []string{"9:00"}, screen.Checked)

	_, err = w.ToggleTimeLabel(ctx, "42", "7:00")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestCommit_NoLabels(t *testing.T) {
	called := false
	w := newMockWizard(&mockCoordinator{
		CommitFunc: func(ctx context.Context, req service.CommitRequest) (*service.FinalizedBooking, error) {
			called = true
			return nil, nil
		},
	})
	advance(t, w, "42")

	screen, err := w.Commit(context.Background(), "42")

	assert.ErrorIs(t, err, service.ErrValidation)
	assert.False(t, called)
	assert.Equal(t, StageSelectTime, screen.Stage)
}

func TestCommit_ConflictKeepsSelection(t *testing.T) {
	w := newMockWizard(&mockCoordinator{
		CommitFunc: func(ctx context.Context, req service.CommitRequest) (*service.FinalizedBooking, error) {
			return nil, &service.SlotConflictError{ResourceID: 7, Date: "2025-03-10", Label: "14:00"}
		},
	})
	ctx := context.Background()
	advance(t, w, "42")
	_, err := w.ToggleTimeLabel(ctx, "42", "14:00")
	require.NoError(t, err)

	screen, err := w.Commit(ctx, "42")

	assert.ErrorIs(t, err, service.ErrSlotConflict)
	assert.Equal(t, StageSelectTime, screen.Stage)
	assert.Equal(t, []string{"14:00"}, screen.Checked)
	assert.Contains(t, screen.Message, "14:00")

	current, err := w.Current(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, StageSelectTime, current.Stage)
}

func TestCommit_ResourceGoneReturnsToSelection(t *testing.T) {
	w := newMockWizard(&mockCoordinator{
		CommitFunc: func(ctx context.Context, req service.CommitRequest) (*service.FinalizedBooking, error) {
			return nil, service.ErrResourceNotFound
		},
	})
	ctx := context.Background()
	advance(t, w, "42")
	_, err := w.ToggleTimeLabel(ctx, "42", "14:00")
	require.NoError(t, err)

	screen, err := w.Commit(ctx, "42")

	assert.ErrorIs(t, err, service.ErrResourceNotFound)
	assert.Equal(t, StageSelectResource, screen.Stage)
	assert.Zero(t, screen.ResourceID)
	assert.Empty(t, screen.Checked)
}

func TestCommit_StoreFailureKeepsState(t *testing.T) {
	w := newMockWizard(&mockCoordinator{
		CommitFunc: func(ctx context.Context, req service.CommitRequest) (*service.FinalizedBooking, error) {
			return nil, errors.Join(service.ErrStoreUnavailable, errors.New("connection refused"))
		},
	})
	ctx := context.Background()
	advance(t, w, "42")
	_, err := w.ToggleTimeLabel(ctx, "42", "14:00")
	require.NoError(t, err)

	screen, err := w.Commit(ctx, "42")

	assert.ErrorIs(t, err, service.ErrStoreUnavailable)
	assert.Equal(t, StageSelectTime, screen.Stage)
	assert.Equal(t, []string{"14:00"}, screen.Checked)
}

func TestConfirmed_OnlyRestartAllowed(t *testing.T) {
	w := newMockWizard(&mockCoordinator{
		CommitFunc: func(ctx context.Context, req service.CommitRequest) (*service.FinalizedBooking, error) {
			return &service.FinalizedBooking{ResourceID: req.ResourceID, Times: req.Labels}, nil
		},
	})
	ctx := context.Background()
	advance(t, w, "42")
	_, err := w.ToggleTimeLabel(ctx, "42", "14:00")
	require.NoError(t, err)
	screen, err := w.Commit(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, StageConfirmed, screen.Stage)

	_, err = w.ToggleTimeLabel(ctx, "42", "15:00")
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = w.Commit(ctx, "42")
	assert.ErrorIs(t, err, service.ErrValidation)

	screen, err = w.StartFlow(ctx, "42", "alice")
	require.NoError(t, err)
	assert.Equal(t, StageSelectInstrument, screen.Stage)
}

// --- End to end on sqlite ---

func newSQLiteWizard(t *testing.T) *Wizard {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	reservations := repository.NewReservationRepository(db)
	resources := repository.NewResourceRepository(db)
	require.NoError(t, resources.Upsert(context.Background(), &models.Resource{
		ID:           7,
		Name:         "Ivan",
		Instrument:   "drums",
		PricePerHour: decimal.NewFromInt(1500),
		Active:       true,
	}))

	now := func() time.Time { return march1 }
	coordinator := service.NewReservationCoordinator(reservations, resources, nil, zap.NewNop())
	return New(
		NewMemoryStore(30*time.Minute, now),
		slots.NewCatalog(reservations),
		resources,
		coordinator,
		Options{Now: now},
		zap.NewNop(),
	)
}

func TestFlow_EndToEnd(t *testing.T) {
	w := newSQLiteWizard(t)
	ctx := context.Background()
	advance(t, w, "42")
	advance(t, w, "43")
	_, err := w.ToggleTimeLabel(ctx, "42", "15:00")
	require.NoError(t, err)
	_, err = w.ToggleTimeLabel(ctx, "42", "14:00")
	require.NoError(t, err)
	_, err = w.ToggleTimeLabel(ctx, "43", "14:00")
	require.NoError(t, err)

	screen, err := w.Commit(ctx, "42")

	require.NoError(t, err)
	assert.Equal(t, StageConfirmed, screen.Stage)
	require.NotNil(t, screen.Booking)
	assert.Equal(t, "2025-03-10", screen.Booking.Date)
	assert.Equal(t, []string{"14:00", "15:00"}, screen.Booking.Times)
	assert.Equal(t, "alice", screen.Booking.Author)
	assert.True(t, decimal.NewFromInt(3000).Equal(screen.Booking.TotalPrice))

	// The second user picked 14:00 before it was taken.
	screen, err = w.Commit(ctx, "43")

	assert.ErrorIs(t, err, service.ErrSlotConflict)
	assert.Equal(t, StageSelectTime, screen.Stage)
	assert.Equal(t, []string{"14:00"}, screen.Checked)
	assert.Len(t, screen.DaySlots, 6)
	for _, s := range screen.DaySlots {
		assert.NotContains(t, []string{"14:00", "15:00"}, s.Label)
	}
}
