package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	"github.com/m04kA/SMC-DispatchService/internal/service/providers/models"
)

type fakeProviderRepo struct {
	providers []*domain.Provider
}

func (r *fakeProviderRepo) List(context.Context) ([]*domain.Provider, error) {
	return r.providers, nil
}

type fakeBookingRepo struct {
	busy map[int64]bool
}

func (r *fakeBookingRepo) ExistsActiveForProvider(_ context.Context, providerID int64) (bool, error) {
	return r.busy[providerID], nil
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

func TestListWithAvailability(t *testing.T) {
	svc := NewService(
		&fakeProviderRepo{providers: []*domain.Provider{
			{ID: 10, Name: "Provider A"},
			{ID: 20, Name: "Provider B"},
			{ID: 30, Name: "Provider C"},
		}},
		&fakeBookingRepo{busy: map[int64]bool{20: true}},
		noopLogger{},
	)

	resp, err := svc.ListWithAvailability(context.Background(), domain.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, resp.Providers, 3)

	assert.Equal(t, models.AvailabilityAvailable, resp.Providers[0].Availability)
	assert.Equal(t, models.AvailabilityBusy, resp.Providers[1].Availability)
	assert.Equal(t, models.AvailabilityAvailable, resp.Providers[2].Availability)
}

func TestListWithAvailability_AdminOnly(t *testing.T) {
	svc := NewService(&fakeProviderRepo{}, &fakeBookingRepo{}, noopLogger{})

	for _, role := range []domain.ActorRole{domain.RoleCustomer, domain.RoleProvider, domain.RoleSystem} {
		_, err := svc.ListWithAvailability(context.Background(), role)
		assert.ErrorIs(t, err, ErrForbidden, "role %s", role)
	}
}

func TestIsBusy(t *testing.T) {
	svc := NewService(
		&fakeProviderRepo{},
		&fakeBookingRepo{busy: map[int64]bool{10: true}},
		noopLogger{},
	)

	busy, err := svc.IsBusy(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, busy)

	busy, err = svc.IsBusy(context.Background(), 20)
	require.NoError(t, err)
	assert.False(t, busy)
}
