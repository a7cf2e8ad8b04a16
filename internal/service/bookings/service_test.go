package bookings

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/booking"
	customerRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/customer"
	providerRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/provider"
	"github.com/m04kA/SMC-DispatchService/internal/service/bookings/models"
	"github.com/m04kA/SMC-DispatchService/pkg/ptr"
)

// --- Фейки хранилища ---

type fakeStore struct {
	mu sync.Mutex

	nextBookingID int64
	nextEventID   int64

	bookings  map[int64]*domain.Booking
	events    []*domain.BookingEvent
	customers map[int64]*domain.Customer
	providers map[int64]*domain.Provider
}

func newFakeStore(providerIDs ...int64) *fakeStore {
	s := &fakeStore{
		bookings:  make(map[int64]*domain.Booking),
		customers: make(map[int64]*domain.Customer),
		providers: make(map[int64]*domain.Provider),
	}
	for _, id := range providerIDs {
		s.providers[id] = &domain.Provider{ID: id, Name: "Provider"}
	}
	return s
}

func copyBooking(b *domain.Booking) *domain.Booking {
	cp := *b
	return &cp
}

type fakeBookingRepo struct{ store *fakeStore }

func (r *fakeBookingRepo) Create(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextBookingID++
	now := time.Now()

	stored := copyBooking(booking)
	stored.ID = r.store.nextBookingID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.store.bookings[stored.ID] = stored

	return copyBooking(stored), nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, ok := r.store.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return copyBooking(b), nil
}

func (r *fakeBookingRepo) UpdateState(_ context.Context, id int64, status domain.BookingStatus, providerID *int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, ok := r.store.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.Status = status
	b.ProviderID = providerID
	b.UpdatedAt = time.Now()
	return nil
}

func (r *fakeBookingRepo) Cancel(_ context.Context, id int64, status domain.BookingStatus, reason *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, ok := r.store.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	now := time.Now()
	b.Status = status
	b.ProviderID = nil
	b.CancellationReason = reason
	b.CancelledAt = &now
	b.UpdatedAt = now
	return nil
}

func (r *fakeBookingRepo) ExistsActiveForProvider(_ context.Context, providerID int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, b := range r.store.bookings {
		if b.OccupiesProvider() && b.IsAssignedTo(providerID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) GetActiveByProvider(_ context.Context, providerID int64) ([]*domain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []*domain.Booking
	for _, b := range r.store.bookings {
		if b.OccupiesProvider() && b.IsAssignedTo(providerID) {
			result = append(result, copyBooking(b))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeBookingRepo) AppendEvent(_ context.Context, event *domain.BookingEvent) (*domain.BookingEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextEventID++
	stored := *event
	stored.ID = r.store.nextEventID
	stored.CreatedAt = time.Now()
	r.store.events = append(r.store.events, &stored)

	cp := stored
	return &cp, nil
}

func (r *fakeBookingRepo) ListEvents(_ context.Context, bookingID int64) ([]*domain.BookingEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []*domain.BookingEvent
	for _, e := range r.store.events {
		if e.BookingID == bookingID {
			cp := *e
			result = append(result, &cp)
		}
	}
	return result, nil
}

type fakeCustomerRepo struct{ store *fakeStore }

func (r *fakeCustomerRepo) GetByID(_ context.Context, id int64) (*domain.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.customers[id]
	if !ok {
		return nil, customerRepo.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCustomerRepo) Create(_ context.Context, customer *domain.Customer) (*domain.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *customer
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.store.customers[cp.ID] = &cp

	out := cp
	return &out, nil
}

type fakeProviderRepo struct{ store *fakeStore }

func (r *fakeProviderRepo) GetByID(_ context.Context, id int64) (*domain.Provider, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.providers[id]
	if !ok {
		return nil, providerRepo.ErrProviderNotFound
	}
	cp := *p
	return &cp, nil
}

// fakeTxManager сериализует транзакции глобальным мьютексом: транзакции
// не перекрываются, как при SERIALIZABLE в одном соединении, и обрывы
// по SQLSTATE 40001 здесь не возникают. Повтор оборванных транзакций
// (после которого проигравший видит занятого провайдера) покрыт
// тестами pkg/txmanager
type fakeTxManager struct{ mu sync.Mutex }

func (m *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

func (m *fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

func newTestService(store *fakeStore) *Service {
	return NewService(
		&fakeBookingRepo{store: store},
		&fakeCustomerRepo{store: store},
		&fakeProviderRepo{store: store},
		&fakeTxManager{},
		noopLogger{},
	)
}

func createPending(t *testing.T, svc *Service, customerID int64) int64 {
	t.Helper()
	resp, err := svc.Create(context.Background(), &models.CreateBookingRequest{
		CustomerName: "Test Customer",
		ActorRole:    domain.RoleCustomer,
		ActorID:      customerID,
	})
	require.NoError(t, err)
	require.Equal(t, string(domain.StatusPending), resp.Status)
	return resp.ID
}

// --- Create ---

func TestCreate_Success(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	resp, err := svc.Create(context.Background(), &models.CreateBookingRequest{
		CustomerName: "Alice",
		ActorRole:    domain.RoleCustomer,
		ActorID:      7,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), resp.CustomerID)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
	assert.Nil(t, resp.ProviderID)

	// Клиент заведён лениво
	_, ok := store.customers[7]
	assert.True(t, ok)

	// Первое событие истории: NULL -> PENDING
	events, err := svc.GetEvents(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, events.Events, 1)
	assert.Nil(t, events.Events[0].FromStatus)
	assert.Equal(t, string(domain.StatusPending), events.Events[0].ToStatus)
	assert.Equal(t, string(domain.RoleCustomer), events.Events[0].ActorRole)
	require.NotNil(t, events.Events[0].ActorID)
	assert.Equal(t, int64(7), *events.Events[0].ActorID)
}

func TestCreate_ExistingCustomerReused(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	createPending(t, svc, 7)
	createPending(t, svc, 7)

	assert.Len(t, store.customers, 1)
	assert.Len(t, store.bookings, 2)
}

func TestCreate_NonCustomerForbidden(t *testing.T) {
	svc := newTestService(newFakeStore())

	for _, role := range []domain.ActorRole{domain.RoleProvider, domain.RoleAdmin, domain.RoleSystem} {
		_, err := svc.Create(context.Background(), &models.CreateBookingRequest{
			CustomerName: "Bob",
			ActorRole:    role,
			ActorID:      1,
		})
		assert.ErrorIs(t, err, ErrForbidden, "role %s", role)
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	svc := newTestService(newFakeStore())

	longName := make([]byte, domain.MaxCustomerNameLength+1)
	for i := range longName {
		longName[i] = 'a'
	}

	tests := []struct {
		name string
		req  models.CreateBookingRequest
	}{
		{"empty name", models.CreateBookingRequest{CustomerName: "   ", ActorRole: domain.RoleCustomer, ActorID: 1}},
		{"name too long", models.CreateBookingRequest{CustomerName: string(longName), ActorRole: domain.RoleCustomer, ActorID: 1}},
		{"non-positive actor id", models.CreateBookingRequest{CustomerName: "Bob", ActorRole: domain.RoleCustomer, ActorID: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), &tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

// --- Чтение ---

func TestGetByID_NotFound(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestGetEvents_BookingNotFound(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.GetEvents(context.Background(), 404)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

// --- Жизненный цикл ---

func TestLifecycle_AssignAcceptComplete(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	id := createPending(t, svc, 7)

	resp, err := svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusAssigned), resp.Status)
	require.NotNil(t, resp.ProviderID)
	assert.Equal(t, int64(10), *resp.ProviderID)

	resp, err = svc.ProviderAccept(ctx, id, 10)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusInProgress), resp.Status)

	resp, err = svc.Complete(ctx, id, 10)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), resp.Status)
	// Завершённое бронирование сохраняет исполнителя
	require.NotNil(t, resp.ProviderID)
	assert.Equal(t, int64(10), *resp.ProviderID)

	// История непрерывна: from каждого события равен to предыдущего
	events, err := svc.GetEvents(ctx, id)
	require.NoError(t, err)
	require.Len(t, events.Events, 4)
	assert.Nil(t, events.Events[0].FromStatus)
	for i := 1; i < len(events.Events); i++ {
		require.NotNil(t, events.Events[i].FromStatus)
		assert.Equal(t, events.Events[i-1].ToStatus, *events.Events[i].FromStatus)
	}
	assert.Equal(t, string(domain.StatusCompleted), events.Events[3].ToStatus)
}

func TestAssign_EventActorHasNoID(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	id := createPending(t, svc, 7)

	_, err := svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
	require.NoError(t, err)

	events, err := svc.GetEvents(ctx, id)
	require.NoError(t, err)
	require.Len(t, events.Events, 2)
	assert.Equal(t, string(domain.RoleSystem), events.Events[1].ActorRole)
	assert.Nil(t, events.Events[1].ActorID)
}

func TestAssign_Errors(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	id := createPending(t, svc, 7)

	t.Run("forbidden role", func(t *testing.T) {
		_, err := svc.AssignProvider(ctx, id, 10, domain.RoleCustomer)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("booking not found", func(t *testing.T) {
		_, err := svc.AssignProvider(ctx, 404, 10, domain.RoleSystem)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("provider not found", func(t *testing.T) {
		_, err := svc.AssignProvider(ctx, id, 99, domain.RoleSystem)
		assert.ErrorIs(t, err, ErrProviderNotFound)
	})

	t.Run("already assigned", func(t *testing.T) {
		_, err := svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
		require.NoError(t, err)

		_, err = svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestAssign_ProviderBusy(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	first := createPending(t, svc, 7)
	second := createPending(t, svc, 8)

	_, err := svc.AssignProvider(ctx, first, 10, domain.RoleSystem)
	require.NoError(t, err)

	_, err = svc.AssignProvider(ctx, second, 10, domain.RoleSystem)
	assert.ErrorIs(t, err, ErrProviderBusy)

	// Второе бронирование не тронуто
	resp, err := svc.GetByID(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
	assert.Nil(t, resp.ProviderID)

	// Неудачная попытка не оставляет события
	events, err := svc.GetEvents(ctx, second)
	require.NoError(t, err)
	assert.Len(t, events.Events, 1)
}

func TestAssign_FreesAfterReject(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	first := createPending(t, svc, 7)
	second := createPending(t, svc, 8)

	_, err := svc.AssignProvider(ctx, first, 10, domain.RoleSystem)
	require.NoError(t, err)

	resp, err := svc.ProviderReject(ctx, first, 10)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRejected), resp.Status)
	assert.Nil(t, resp.ProviderID)

	// Отказ освобождает провайдера для других бронирований
	_, err = svc.AssignProvider(ctx, second, 10, domain.RoleSystem)
	require.NoError(t, err)

	// И само REJECTED бронирование можно назначить снова
	_, err = svc.ProviderReject(ctx, second, 10)
	require.NoError(t, err)
	_, err = svc.AssignProvider(ctx, first, 10, domain.RoleSystem)
	require.NoError(t, err)
}

func TestAccept_Errors(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	id := createPending(t, svc, 7)

	t.Run("not assigned yet", func(t *testing.T) {
		_, err := svc.ProviderAccept(ctx, id, 10)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	_, err := svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
	require.NoError(t, err)

	t.Run("foreign provider", func(t *testing.T) {
		_, err := svc.ProviderAccept(ctx, id, 20)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("accept is not idempotent", func(t *testing.T) {
		_, err := svc.ProviderAccept(ctx, id, 10)
		require.NoError(t, err)

		_, err = svc.ProviderAccept(ctx, id, 10)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestComplete_OnlyFromInProgress(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	id := createPending(t, svc, 7)
	_, err := svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, id, 10)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// --- Отмены ---

func TestCancelByCustomer(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	t.Run("owner cancels with reason", func(t *testing.T) {
		id := createPending(t, svc, 7)
		_, err := svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
		require.NoError(t, err)

		resp, err := svc.CancelByCustomer(ctx, id, 7, ptr.Ptr("changed my mind"))
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusCancelled), resp.Status)
		assert.Nil(t, resp.ProviderID)
		require.NotNil(t, resp.CancellationReason)
		assert.Equal(t, "changed my mind", *resp.CancellationReason)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		id := createPending(t, svc, 7)
		_, err := svc.CancelByCustomer(ctx, id, 8, nil)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("terminal status", func(t *testing.T) {
		id := createPending(t, svc, 7)
		_, err := svc.CancelByCustomer(ctx, id, 7, nil)
		require.NoError(t, err)

		_, err = svc.CancelByCustomer(ctx, id, 7, nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("reason too long", func(t *testing.T) {
		id := createPending(t, svc, 7)
		long := make([]byte, domain.MaxCancellationReasonLength+1)
		for i := range long {
			long[i] = 'x'
		}
		_, err := svc.CancelByCustomer(ctx, id, 7, ptr.Ptr(string(long)))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestCancelByAdmin_NoOwnershipCheck(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	id := createPending(t, svc, 7)
	_, err := svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
	require.NoError(t, err)

	resp, err := svc.CancelByAdmin(ctx, id, 1, ptr.Ptr("fraud check"))
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	assert.Nil(t, resp.ProviderID)

	// Но терминальные статусы обычной отмене не поддаются
	_, err = svc.CancelByAdmin(ctx, id, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// --- Retry ---

func TestRetry(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	t.Run("from REJECTED", func(t *testing.T) {
		id := createPending(t, svc, 7)
		_, err := svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
		require.NoError(t, err)
		_, err = svc.ProviderReject(ctx, id, 10)
		require.NoError(t, err)

		resp, err := svc.Retry(ctx, id, domain.RoleSystem, 0)
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusPending), resp.Status)
		assert.Nil(t, resp.ProviderID)
	})

	t.Run("from FAILED", func(t *testing.T) {
		id := createPending(t, svc, 7)
		_, err := svc.MarkFailed(ctx, id, 1)
		require.NoError(t, err)

		resp, err := svc.Retry(ctx, id, domain.RoleAdmin, 1)
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusPending), resp.Status)
	})

	t.Run("CANCELLED is not retried", func(t *testing.T) {
		id := createPending(t, svc, 7)
		_, err := svc.CancelByCustomer(ctx, id, 7, nil)
		require.NoError(t, err)

		_, err = svc.Retry(ctx, id, domain.RoleSystem, 0)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("forbidden role", func(t *testing.T) {
		id := createPending(t, svc, 7)
		_, err := svc.Retry(ctx, id, domain.RoleCustomer, 7)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

// --- Административные переопределения ---

func TestForceAssign(t *testing.T) {
	ctx := context.Background()

	t.Run("overrides CANCELLED", func(t *testing.T) {
		svc := newTestService(newFakeStore(10))
		id := createPending(t, svc, 7)
		_, err := svc.CancelByCustomer(ctx, id, 7, nil)
		require.NoError(t, err)

		resp, err := svc.ForceAssign(ctx, id, 10, 1)
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusAssigned), resp.Status)
		require.NotNil(t, resp.ProviderID)
		assert.Equal(t, int64(10), *resp.ProviderID)
	})

	t.Run("skips the busy check", func(t *testing.T) {
		svc := newTestService(newFakeStore(20))
		busyID := createPending(t, svc, 8)
		_, err := svc.AssignProvider(ctx, busyID, 20, domain.RoleSystem)
		require.NoError(t, err)

		id := createPending(t, svc, 9)
		resp, err := svc.ForceAssign(ctx, id, 20, 1)
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusAssigned), resp.Status)
	})

	t.Run("COMPLETED is protected", func(t *testing.T) {
		svc := newTestService(newFakeStore(10))
		id := createPending(t, svc, 7)
		_, err := svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
		require.NoError(t, err)
		_, err = svc.ProviderAccept(ctx, id, 10)
		require.NoError(t, err)
		_, err = svc.Complete(ctx, id, 10)
		require.NoError(t, err)

		_, err = svc.ForceAssign(ctx, id, 10, 1)
		assert.ErrorIs(t, err, ErrCompletedOverride)
	})

	t.Run("unknown provider", func(t *testing.T) {
		svc := newTestService(newFakeStore(10))
		id := createPending(t, svc, 7)
		_, err := svc.ForceAssign(ctx, id, 404, 1)
		assert.ErrorIs(t, err, ErrProviderNotFound)
	})
}

func TestForceCancel(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	t.Run("overrides REJECTED", func(t *testing.T) {
		id := createPending(t, svc, 7)
		_, err := svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
		require.NoError(t, err)
		_, err = svc.ProviderReject(ctx, id, 10)
		require.NoError(t, err)

		resp, err := svc.ForceCancel(ctx, id, 1)
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	})

	t.Run("COMPLETED is protected", func(t *testing.T) {
		id := createPending(t, svc, 7)
		_, err := svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
		require.NoError(t, err)
		_, err = svc.ProviderAccept(ctx, id, 10)
		require.NoError(t, err)
		_, err = svc.Complete(ctx, id, 10)
		require.NoError(t, err)

		_, err = svc.ForceCancel(ctx, id, 1)
		assert.ErrorIs(t, err, ErrCompletedOverride)
	})
}

func TestMarkFailed(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	id := createPending(t, svc, 7)
	_, err := svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
	require.NoError(t, err)

	resp, err := svc.MarkFailed(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusFailed), resp.Status)
	assert.Nil(t, resp.ProviderID)

	// Провайдер освобождён
	busy, err := (&fakeBookingRepo{store: store}).ExistsActiveForProvider(ctx, 10)
	require.NoError(t, err)
	assert.False(t, busy)
}

// --- Очередь провайдера ---

func TestListProviderBookings_ActiveOnly(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	active := createPending(t, svc, 7)
	_, err := svc.AssignProvider(ctx, active, 10, domain.RoleSystem)
	require.NoError(t, err)
	_, err = svc.ProviderAccept(ctx, active, 10)
	require.NoError(t, err)

	done := createPending(t, svc, 8)
	// Нельзя назначить второго, пока провайдер занят: освобождаем
	_, err = svc.Complete(ctx, active, 10)
	require.NoError(t, err)
	_, err = svc.AssignProvider(ctx, done, 10, domain.RoleSystem)
	require.NoError(t, err)

	resp, err := svc.ListProviderBookings(ctx, 10)
	require.NoError(t, err)
	// Завершённое бронирование хранит provider_id, но в очередь не попадает
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, done, resp.Bookings[0].ID)
	assert.Equal(t, string(domain.StatusAssigned), resp.Bookings[0].Status)
}

func TestListProviderBookings_EmptyForUnknownProvider(t *testing.T) {
	svc := newTestService(newFakeStore())

	resp, err := svc.ListProviderBookings(context.Background(), 404)
	require.NoError(t, err)
	assert.Empty(t, resp.Bookings)
}

// --- Гонка назначения ---

func TestAssign_ConcurrentRaceExactlyOneWins(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	const n = 8
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = createPending(t, svc, int64(100+i))
	}

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AssignProvider(ctx, ids[i], 10, domain.RoleSystem)
		}(i)
	}
	wg.Wait()

	var wins, busy int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, ErrProviderBusy)
			busy++
		}
	}
	assert.Equal(t, 1, wins, "ровно одно назначение должно пройти")
	assert.Equal(t, n-1, busy)

	// Инвариант: провайдера занимает ровно одно бронирование
	resp, err := svc.ListProviderBookings(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, resp.Bookings, 1)
}

// --- Инвариант связи статуса и провайдера ---

func TestProviderIDMatchesStatusThroughLifecycle(t *testing.T) {
	store := newFakeStore(10)
	svc := newTestService(store)
	ctx := context.Background()

	id := createPending(t, svc, 7)

	check := func(wantProvider bool) {
		t.Helper()
		resp, err := svc.GetByID(ctx, id)
		require.NoError(t, err)
		if wantProvider {
			assert.NotNil(t, resp.ProviderID)
		} else {
			assert.Nil(t, resp.ProviderID)
		}
	}

	check(false) // PENDING

	_, err := svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
	require.NoError(t, err)
	check(true) // ASSIGNED

	_, err = svc.ProviderReject(ctx, id, 10)
	require.NoError(t, err)
	check(false) // REJECTED

	_, err = svc.Retry(ctx, id, domain.RoleSystem, 0)
	require.NoError(t, err)
	check(false) // PENDING

	_, err = svc.AssignProvider(ctx, id, 10, domain.RoleSystem)
	require.NoError(t, err)
	_, err = svc.ProviderAccept(ctx, id, 10)
	require.NoError(t, err)
	check(true) // IN_PROGRESS

	_, err = svc.Complete(ctx, id, 10)
	require.NoError(t, err)
	check(true) // COMPLETED хранит исполнителя
}
