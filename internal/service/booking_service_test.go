package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"parkeasy/internal/api"
	"parkeasy/internal/cache"
	"parkeasy/internal/models"
	"parkeasy/internal/notify"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ListSlots(ctx context.Context, location string, floor int, status string) ([]models.Slot, error) {
	args := m.Called(ctx, location, floor, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Slot), args.Error(1)
}

func (m *mockBackend) UpdateSlot(ctx context.Context, slotID string, update api.SlotUpdate) error {
	return m.Called(ctx, slotID, update).Error(0)
}

func (m *mockBackend) ListBookings(ctx context.Context) ([]models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockBackend) CreateBooking(ctx context.Context, req api.CreateBookingRequest) (*models.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBackend) UpdateBooking(ctx context.Context, bookingID string, update api.BookingUpdate) error {
	return m.Called(ctx, bookingID, update).Error(0)
}

func (m *mockBackend) DeleteBooking(ctx context.Context, bookingID string) error {
	return m.Called(ctx, bookingID).Error(0)
}

func (m *mockBackend) AdminStats(ctx context.Context) (*models.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stats), args.Error(1)
}

func (m *mockBackend) ExportBookings(ctx context.Context) ([]models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockBackend) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type fakeNotifier struct {
	broadcasts int
}

func (n *fakeNotifier) Broadcast(ctx context.Context)                  { n.broadcasts++ }
func (n *fakeNotifier) Subscribe(ctx context.Context, handler func()) {}
func (n *fakeNotifier) Close() error                                  { return nil }

type fakeConfirmer struct {
	answer  bool
	prompts []string
}

func (c *fakeConfirmer) Confirm(prompt string) bool {
	c.prompts = append(c.prompts, prompt)
	return c.answer
}

func newTestService(backend *mockBackend, confirm *fakeConfirmer) (*BookingService, *fakeNotifier) {
	logger := zerolog.Nop()
	slots := cache.New(backend, cache.KeepStale, &logger)
	state := NewState("CityMall", 1, slots)
	notifier := &fakeNotifier{}
	svc := NewBookingService(backend, notifier, confirm, state, &logger)
	return svc, notifier
}

func futureForm(slot string, duration int) CreateForm {
	start := time.Now().Add(48 * time.Hour)
	return CreateForm{
		Name:     "John Doe",
		Vehicle:  "KA-01-1234",
		Slot:     slot,
		Date:     start.Format(models.DateLayout),
		Time:     start.Format(models.TimeLayout),
		Duration: duration,
	}
}

func TestCreateValidation(t *testing.T) {
	t.Run("MissingFields", func(t *testing.T) {
		backend := &mockBackend{}
		svc, _ := newTestService(backend, &fakeConfirmer{})

		form := futureForm("F1-A1", 2)
		form.Vehicle = "   "
		_, err := svc.Create(context.Background(), form)

		assert.ErrorIs(t, err, ErrMissingFields)
		backend.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	})

	t.Run("PastDateRejectedBeforeAnyCall", func(t *testing.T) {
		backend := &mockBackend{}
		svc, _ := newTestService(backend, &fakeConfirmer{})

		start := time.Now().Add(-time.Hour)
		form := futureForm("F1-A1", 2)
		form.Date = start.Format(models.DateLayout)
		form.Time = start.Format(models.TimeLayout)
		_, err := svc.Create(context.Background(), form)

		assert.ErrorIs(t, err, ErrPastDate)
		backend.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
		backend.AssertNotCalled(t, "ListSlots", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("StartExactlyNowRejected", func(t *testing.T) {
		backend := &mockBackend{}
		svc, _ := newTestService(backend, &fakeConfirmer{})

		fixed := time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local)
		svc.now = func() time.Time { return fixed }
		form := futureForm("F1-A1", 2)
		form.Date = fixed.Format(models.DateLayout)
		form.Time = fixed.Format(models.TimeLayout)
		_, err := svc.Create(context.Background(), form)

		assert.ErrorIs(t, err, ErrPastDate)
	})
}

func TestCreateSlotConflict(t *testing.T) {
	backend := &mockBackend{}
	svc, _ := newTestService(backend, &fakeConfirmer{})

	taken := []models.Slot{{ID: "F1-A1", Status: models.SlotBooked, BookedBy: "someone"}}
	backend.On("ListSlots", mock.Anything, "CityMall", 1, "").Return(taken, nil)
	_, err := svc.RefreshSlots(context.Background())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), futureForm("F1-A1", 2))

	assert.ErrorIs(t, err, ErrSlotUnavailable)
	backend.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	// The conflict triggers a second fetch so the caller sees fresh state.
	backend.AssertNumberOfCalls(t, "ListSlots", 2)
}

func TestCreateSuccess(t *testing.T) {
	backend := &mockBackend{}
	svc, notifier := newTestService(backend, &fakeConfirmer{})

	free := []models.Slot{{ID: "F1-A1", Status: models.SlotAvailable}}
	backend.On("ListSlots", mock.Anything, "CityMall", 1, "").Return(free, nil)
	_, err := svc.RefreshSlots(context.Background())
	require.NoError(t, err)

	form := futureForm("F1-A1", 2)
	created := &models.Booking{ID: "bk1", Slot: "F1-A1", Location: "CityMall", Duration: 2, Amount: 35, Status: models.StatusActive}
	backend.On("CreateBooking", mock.Anything, mock.MatchedBy(func(req api.CreateBookingRequest) bool {
		return req.Slot == "F1-A1" && req.Location == "CityMall" && req.Duration == 2 && req.Amount == 35
	})).Return(created, nil)
	backend.On("ListBookings", mock.Anything).Return([]models.Booking{*created}, nil)

	booking, err := svc.Create(context.Background(), form)

	require.NoError(t, err)
	assert.Equal(t, "bk1", booking.ID)
	assert.Equal(t, 1, notifier.broadcasts)
	assert.Equal(t, "CityMall", svc.State().Location())
	assert.Equal(t, 1, svc.State().Floor())
	assert.Len(t, svc.State().Bookings, 1)
	backend.AssertExpectations(t)
}

func TestCreateSwitchesViewToBooking(t *testing.T) {
	backend := &mockBackend{}
	svc, _ := newTestService(backend, &fakeConfirmer{})

	backend.On("ListSlots", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Slot{}, nil)
	backend.On("ListBookings", mock.Anything).Return([]models.Booking{}, nil)

	form := futureForm("F2-B3", 4)
	form.Location = "TechPark"
	created := &models.Booking{ID: "bk2", Slot: "F2-B3", Location: "TechPark", Duration: 4, Amount: 60}
	backend.On("CreateBooking", mock.Anything, mock.Anything).Return(created, nil)

	_, err := svc.Create(context.Background(), form)

	require.NoError(t, err)
	assert.Equal(t, "TechPark", svc.State().Location())
	assert.Equal(t, 2, svc.State().Floor())
}

func TestCancel(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	active := models.Booking{
		ID: "bk1", Slot: "F1-A1", Location: "CityMall",
		Date: future.Format(models.DateLayout), Time: future.Format(models.TimeLayout),
		Duration: 2, Status: models.StatusActive,
	}

	t.Run("Declined", func(t *testing.T) {
		backend := &mockBackend{}
		confirm := &fakeConfirmer{answer: false}
		svc, _ := newTestService(backend, confirm)
		svc.State().Bookings = []models.Booking{active}

		err := svc.Cancel(context.Background(), "bk1")

		assert.ErrorIs(t, err, ErrDeclined)
		assert.Equal(t, []string{"Are you sure you want to cancel this booking?"}, confirm.prompts)
		backend.AssertNotCalled(t, "UpdateBooking", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NotActive", func(t *testing.T) {
		backend := &mockBackend{}
		svc, _ := newTestService(backend, &fakeConfirmer{answer: true})
		done := active
		done.Status = models.StatusCompleted
		svc.State().Bookings = []models.Booking{done}

		err := svc.Cancel(context.Background(), "bk1")

		assert.ErrorIs(t, err, ErrNotModifiable)
	})

	t.Run("AlreadyEnded", func(t *testing.T) {
		backend := &mockBackend{}
		svc, _ := newTestService(backend, &fakeConfirmer{answer: true})
		past := active
		start := time.Now().Add(-5 * time.Hour)
		past.Date = start.Format(models.DateLayout)
		past.Time = start.Format(models.TimeLayout)
		svc.State().Bookings = []models.Booking{past}

		err := svc.Cancel(context.Background(), "bk1")

		assert.ErrorIs(t, err, ErrNotModifiable)
	})

	t.Run("Confirmed", func(t *testing.T) {
		backend := &mockBackend{}
		svc, notifier := newTestService(backend, &fakeConfirmer{answer: true})

		backend.On("ListSlots", mock.Anything, "CityMall", 1, "").
			Return([]models.Slot{{ID: "F1-A1", Status: models.SlotBooked, BookedBy: "John Doe"}}, nil)
		_, err := svc.RefreshSlots(context.Background())
		require.NoError(t, err)
		svc.State().Bookings = []models.Booking{active}

		cancelled := active
		cancelled.Status = models.StatusCancelled
		backend.On("UpdateBooking", mock.Anything, "bk1", api.BookingUpdate{Status: models.StatusCancelled}).Return(nil)
		backend.On("ListBookings", mock.Anything).Return([]models.Booking{cancelled}, nil)

		err = svc.Cancel(context.Background(), "bk1")

		require.NoError(t, err)
		slot, ok := svc.State().Slots.Get("F1-A1")
		require.True(t, ok)
		assert.Equal(t, models.SlotAvailable, slot.Status)
		// Customer cancellations stay local.
		assert.Equal(t, 0, notifier.broadcasts)
		backend.AssertExpectations(t)
	})

	t.Run("OtherLocationLeavesCacheAlone", func(t *testing.T) {
		backend := &mockBackend{}
		svc, _ := newTestService(backend, &fakeConfirmer{answer: true})

		backend.On("ListSlots", mock.Anything, "CityMall", 1, "").
			Return([]models.Slot{{ID: "F1-A1", Status: models.SlotBooked, BookedBy: "other"}}, nil)
		_, err := svc.RefreshSlots(context.Background())
		require.NoError(t, err)

		elsewhere := active
		elsewhere.Location = "TechPark"
		svc.State().Bookings = []models.Booking{elsewhere}
		backend.On("UpdateBooking", mock.Anything, "bk1", mock.Anything).Return(nil)
		backend.On("ListBookings", mock.Anything).Return([]models.Booking{}, nil)

		err = svc.Cancel(context.Background(), "bk1")

		require.NoError(t, err)
		slot, _ := svc.State().Slots.Get("F1-A1")
		assert.Equal(t, models.SlotBooked, slot.Status)
	})
}

func TestExtend(t *testing.T) {
	start := time.Now().Add(2 * time.Hour).Truncate(time.Minute)
	booking := models.Booking{
		ID: "bk1", Slot: "F1-A1", Location: "CityMall",
		Date: start.Format(models.DateLayout), Time: start.Format(models.TimeLayout),
		Duration: 1, Amount: 20, Status: models.StatusActive,
	}

	t.Run("AddsDurationAndReprices", func(t *testing.T) {
		backend := &mockBackend{}
		svc, _ := newTestService(backend, &fakeConfirmer{})
		svc.State().Bookings = []models.Booking{booking}

		wantEnd := start.Add(5 * time.Hour).Format(models.TimestampLayout)
		backend.On("UpdateBooking", mock.Anything, "bk1",
			api.BookingUpdate{Duration: 5, Amount: 80, EndAt: wantEnd}).Return(nil)
		backend.On("ListBookings", mock.Anything).Return([]models.Booking{}, nil)

		updated, err := svc.Extend(context.Background(), "bk1", 4)

		require.NoError(t, err)
		assert.Equal(t, 5, updated.Duration)
		assert.Equal(t, 80, updated.Amount)
		assert.Equal(t, wantEnd, updated.EndAt)
		backend.AssertExpectations(t)
	})

	t.Run("RejectsOffMenuDuration", func(t *testing.T) {
		backend := &mockBackend{}
		svc, _ := newTestService(backend, &fakeConfirmer{})
		svc.State().Bookings = []models.Booking{booking}

		_, err := svc.Extend(context.Background(), "bk1", 3)

		assert.ErrorIs(t, err, ErrInvalidDuration)
		backend.AssertNotCalled(t, "UpdateBooking", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown", func(t *testing.T) {
		backend := &mockBackend{}
		svc, _ := newTestService(backend, &fakeConfirmer{})

		_, err := svc.Extend(context.Background(), "nope", 1)

		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}

func TestToggleStatus(t *testing.T) {
	backend := &mockBackend{}
	svc, notifier := newTestService(backend, &fakeConfirmer{})

	backend.On("ListSlots", mock.Anything, "CityMall", 1, "").
		Return([]models.Slot{{ID: "F1-A1", Status: models.SlotBooked, BookedBy: "John Doe"}}, nil)
	_, err := svc.RefreshSlots(context.Background())
	require.NoError(t, err)

	svc.State().Bookings = []models.Booking{{
		ID: "bk1", Slot: "F1-A1", Location: "CityMall",
		CustomerName: "John Doe", Status: models.StatusActive,
	}}
	backend.On("UpdateBooking", mock.Anything, "bk1", api.BookingUpdate{Status: models.StatusCompleted}).Return(nil)

	status, err := svc.ToggleStatus(context.Background(), "bk1")

	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status)
	slot, _ := svc.State().Slots.Get("F1-A1")
	assert.Equal(t, models.SlotAvailable, slot.Status)
	assert.Equal(t, 1, notifier.broadcasts)

	// Flipping back re-books the slot under the customer's name.
	backend.On("UpdateBooking", mock.Anything, "bk1", api.BookingUpdate{Status: models.StatusActive}).Return(nil)
	status, err = svc.ToggleStatus(context.Background(), "bk1")

	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, status)
	slot, _ = svc.State().Slots.Get("F1-A1")
	assert.Equal(t, models.SlotBooked, slot.Status)
	assert.Equal(t, "John Doe", slot.BookedBy)
	assert.Equal(t, 2, notifier.broadcasts)
}

func TestDelete(t *testing.T) {
	t.Run("ConfirmedRemovesAndFreesSlot", func(t *testing.T) {
		backend := &mockBackend{}
		confirm := &fakeConfirmer{answer: true}
		svc, notifier := newTestService(backend, confirm)

		backend.On("ListSlots", mock.Anything, "CityMall", 1, "").
			Return([]models.Slot{{ID: "F1-A1", Status: models.SlotBooked, BookedBy: "John Doe"}}, nil)
		_, err := svc.RefreshSlots(context.Background())
		require.NoError(t, err)

		svc.State().Bookings = []models.Booking{{ID: "bk1", Slot: "F1-A1", Location: "CityMall"}}
		backend.On("DeleteBooking", mock.Anything, "bk1").Return(nil)

		err = svc.Delete(context.Background(), "bk1")

		require.NoError(t, err)
		assert.Empty(t, svc.State().Bookings)
		slot, _ := svc.State().Slots.Get("F1-A1")
		assert.Equal(t, models.SlotAvailable, slot.Status)
		assert.Equal(t, 1, notifier.broadcasts)
		assert.Equal(t, []string{"Are you sure you want to delete this booking?"}, confirm.prompts)
	})

	t.Run("Declined", func(t *testing.T) {
		backend := &mockBackend{}
		svc, notifier := newTestService(backend, &fakeConfirmer{answer: false})
		svc.State().Bookings = []models.Booking{{ID: "bk1", Slot: "F1-A1"}}

		err := svc.Delete(context.Background(), "bk1")

		assert.ErrorIs(t, err, ErrDeclined)
		assert.Len(t, svc.State().Bookings, 1)
		assert.Equal(t, 0, notifier.broadcasts)
		backend.AssertNotCalled(t, "DeleteBooking", mock.Anything, mock.Anything)
	})
}

// Two views share a broadcast bus: a customer's create must land on the
// admin's screen without the admin doing anything, and the other way the
// customer must see an admin deletion free the slot.
func TestCrossViewUpdates(t *testing.T) {
	bus := notify.NewBus()
	logger := zerolog.Nop()

	adminBackend := &mockBackend{}
	adminSlots := cache.New(adminBackend, cache.KeepStale, &logger)
	adminState := NewState("", 0, adminSlots)
	adminConn := bus.Connect()
	admin := NewBookingService(adminBackend, adminConn, &fakeConfirmer{answer: true}, adminState, &logger)

	customerBackend := &mockBackend{}
	customerSlots := cache.New(customerBackend, cache.SynthesizeGrid, &logger)
	customerState := NewState("CityMall", 1, customerSlots)
	customerConn := bus.Connect()
	customer := NewBookingService(customerBackend, customerConn, &fakeConfirmer{answer: true}, customerState, &logger)

	adminRefreshes := 0
	adminConn.Subscribe(context.Background(), func() {
		adminRefreshes++
		_, _ = admin.RefreshSlots(context.Background())
	})
	customerRefreshes := 0
	customerConn.Subscribe(context.Background(), func() {
		customerRefreshes++
		_, _ = customer.RefreshSlots(context.Background())
	})

	adminBackend.On("ListSlots", mock.Anything, "", 0, "").Return([]models.Slot{
		{ID: "F1-A1", Status: models.SlotBooked, BookedBy: "John Doe", Location: "CityMall"},
	}, nil)
	customerBackend.On("ListSlots", mock.Anything, "CityMall", 1, "").Return([]models.Slot{
		{ID: "F1-A1", Status: models.SlotAvailable},
	}, nil)
	customerBackend.On("ListBookings", mock.Anything).Return([]models.Booking{}, nil)
	created := &models.Booking{ID: "bk1", Slot: "F1-A1", Location: "CityMall", Duration: 2, Amount: 35}
	customerBackend.On("CreateBooking", mock.Anything, mock.Anything).Return(created, nil)

	_, err := customer.Create(context.Background(), futureForm("F1-A1", 2))
	require.NoError(t, err)
	assert.Equal(t, 1, adminRefreshes)
	assert.Equal(t, 0, customerRefreshes, "broadcast must not loop back to the sender")
	slot, ok := admin.State().Slots.Get("F1-A1")
	require.True(t, ok)
	assert.Equal(t, models.SlotBooked, slot.Status)

	admin.State().Bookings = []models.Booking{{ID: "bk1", Slot: "F1-A1", Location: "CityMall"}}
	adminBackend.On("DeleteBooking", mock.Anything, "bk1").Return(nil)

	require.NoError(t, admin.Delete(context.Background(), "bk1"))
	assert.Equal(t, 1, customerRefreshes)
}

// The broadcast subscription goroutine refreshes slots while the
// interactive loop switches views. Meaningful under the race detector.
func TestConcurrentViewSwitchAndRefresh(t *testing.T) {
	backend := &mockBackend{}
	svc, _ := newTestService(backend, &fakeConfirmer{})
	backend.On("ListSlots", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Slot{{ID: "F1-A1", Status: models.SlotAvailable}}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_, _ = svc.RefreshSlots(context.Background())
		}
	}()

	locations := []string{"CityMall", "TechPark", "Airport"}
	for i := 0; i < 100; i++ {
		_ = svc.SetView(context.Background(), locations[i%len(locations)], i%3+1)
	}
	<-done

	location, floor := svc.State().View()
	assert.NotEmpty(t, location)
	assert.GreaterOrEqual(t, floor, 1)
}

func TestStatsFallback(t *testing.T) {
	t.Run("BackendAvailable", func(t *testing.T) {
		backend := &mockBackend{}
		svc, _ := newTestService(backend, &fakeConfirmer{})
		want := &models.Stats{TotalBookings: 7, TotalRevenue: 455, ActiveBookings: 3, AvailableSlots: 9}
		backend.On("AdminStats", mock.Anything).Return(want, nil)

		assert.Equal(t, want, svc.Stats(context.Background()))
	})

	t.Run("FallsBackToLocal", func(t *testing.T) {
		backend := &mockBackend{}
		svc, _ := newTestService(backend, &fakeConfirmer{})
		backend.On("AdminStats", mock.Anything).Return(nil, errors.New("boom"))
		backend.On("ListSlots", mock.Anything, "CityMall", 1, "").Return([]models.Slot{
			{ID: "F1-A1", Status: models.SlotBooked},
			{ID: "F1-A2", Status: models.SlotAvailable},
			{ID: "F1-A3", Status: models.SlotAvailable},
		}, nil)
		_, err := svc.RefreshSlots(context.Background())
		require.NoError(t, err)
		svc.State().Bookings = []models.Booking{
			{ID: "b1", Status: models.StatusActive, Amount: 35},
			{ID: "b2", Status: models.StatusCompleted, Amount: 60},
			{ID: "b3", Status: models.StatusCancelled, Amount: 20},
		}

		stats := svc.Stats(context.Background())

		assert.Equal(t, 3, stats.TotalBookings)
		assert.Equal(t, 95, stats.TotalRevenue)
		assert.Equal(t, 1, stats.ActiveBookings)
		assert.Equal(t, 2, stats.AvailableSlots)
	})
}
