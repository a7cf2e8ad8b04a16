package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleFor_KnownTriggers(t *testing.T) {
	triggers := []Trigger{
		TriggerAssign,
		TriggerAccept,
		TriggerReject,
		TriggerComplete,
		TriggerCustomerCancel,
		TriggerAdminCancel,
		TriggerRetry,
		TriggerForceAssign,
		TriggerForceCancel,
		TriggerMarkFailed,
	}

	for _, trigger := range triggers {
		_, ok := RuleFor(trigger)
		assert.True(t, ok, "trigger %s must have a rule", trigger)
	}

	_, ok := RuleFor(Trigger("teleport"))
	assert.False(t, ok)
}

func TestTransitionRule_AllowsFrom(t *testing.T) {
	tests := []struct {
		name    string
		trigger Trigger
		from    BookingStatus
		want    bool
	}{
		{"assign from PENDING", TriggerAssign, StatusPending, true},
		{"assign from REJECTED", TriggerAssign, StatusRejected, true},
		{"assign from ASSIGNED", TriggerAssign, StatusAssigned, false},
		{"assign from COMPLETED", TriggerAssign, StatusCompleted, false},

		{"accept from ASSIGNED", TriggerAccept, StatusAssigned, true},
		{"accept from PENDING", TriggerAccept, StatusPending, false},
		{"accept from IN_PROGRESS", TriggerAccept, StatusInProgress, false},

		{"reject from ASSIGNED", TriggerReject, StatusAssigned, true},
		{"reject from IN_PROGRESS", TriggerReject, StatusInProgress, false},

		{"complete from IN_PROGRESS", TriggerComplete, StatusInProgress, true},
		{"complete from ASSIGNED", TriggerComplete, StatusAssigned, false},

		{"customer cancel from PENDING", TriggerCustomerCancel, StatusPending, true},
		{"customer cancel from ASSIGNED", TriggerCustomerCancel, StatusAssigned, true},
		{"customer cancel from IN_PROGRESS", TriggerCustomerCancel, StatusInProgress, true},
		{"customer cancel from COMPLETED", TriggerCustomerCancel, StatusCompleted, false},
		{"customer cancel from CANCELLED", TriggerCustomerCancel, StatusCancelled, false},
		{"customer cancel from REJECTED", TriggerCustomerCancel, StatusRejected, false},
		{"customer cancel from FAILED", TriggerCustomerCancel, StatusFailed, false},

		{"admin cancel from IN_PROGRESS", TriggerAdminCancel, StatusInProgress, true},
		{"admin cancel from FAILED", TriggerAdminCancel, StatusFailed, false},

		{"retry from REJECTED", TriggerRetry, StatusRejected, true},
		{"retry from FAILED", TriggerRetry, StatusFailed, true},
		{"retry from CANCELLED", TriggerRetry, StatusCancelled, false},
		{"retry from COMPLETED", TriggerRetry, StatusCompleted, false},
		{"retry from PENDING", TriggerRetry, StatusPending, false},

		{"force assign from CANCELLED", TriggerForceAssign, StatusCancelled, true},
		{"force assign from IN_PROGRESS", TriggerForceAssign, StatusInProgress, true},
		{"force assign from COMPLETED", TriggerForceAssign, StatusCompleted, false},

		{"force cancel from CANCELLED", TriggerForceCancel, StatusCancelled, true},
		{"force cancel from COMPLETED", TriggerForceCancel, StatusCompleted, false},

		{"mark failed from ASSIGNED", TriggerMarkFailed, StatusAssigned, true},
		{"mark failed from CANCELLED", TriggerMarkFailed, StatusCancelled, true},
		{"mark failed from COMPLETED", TriggerMarkFailed, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := RuleFor(tt.trigger)
			require.True(t, ok)
			assert.Equal(t, tt.want, rule.AllowsFrom(tt.from))
		})
	}
}

func TestTransitionRule_AllowsRole(t *testing.T) {
	tests := []struct {
		name    string
		trigger Trigger
		role    ActorRole
		want    bool
	}{
		{"assign by SYSTEM", TriggerAssign, RoleSystem, true},
		{"assign by ADMIN", TriggerAssign, RoleAdmin, true},
		{"assign by CUSTOMER", TriggerAssign, RoleCustomer, false},
		{"assign by PROVIDER", TriggerAssign, RoleProvider, false},

		{"accept by PROVIDER", TriggerAccept, RoleProvider, true},
		{"accept by ADMIN", TriggerAccept, RoleAdmin, false},

		{"customer cancel by CUSTOMER", TriggerCustomerCancel, RoleCustomer, true},
		{"customer cancel by PROVIDER", TriggerCustomerCancel, RoleProvider, false},

		{"admin cancel by ADMIN", TriggerAdminCancel, RoleAdmin, true},
		{"admin cancel by CUSTOMER", TriggerAdminCancel, RoleCustomer, false},

		{"retry by SYSTEM", TriggerRetry, RoleSystem, true},
		{"retry by CUSTOMER", TriggerRetry, RoleCustomer, false},

		{"force assign by ADMIN", TriggerForceAssign, RoleAdmin, true},
		{"force assign by SYSTEM", TriggerForceAssign, RoleSystem, false},

		{"mark failed by ADMIN", TriggerMarkFailed, RoleAdmin, true},
		{"mark failed by SYSTEM", TriggerMarkFailed, RoleSystem, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := RuleFor(tt.trigger)
			require.True(t, ok)
			assert.Equal(t, tt.want, rule.AllowsRole(tt.role))
		})
	}
}

func TestTransitionTable_TargetsAndProviderEffects(t *testing.T) {
	assertRule := func(trigger Trigger, to BookingStatus, clears, needs bool) {
		t.Helper()
		rule, ok := RuleFor(trigger)
		require.True(t, ok)
		assert.Equal(t, to, rule.To, "trigger %s target", trigger)
		assert.Equal(t, clears, rule.ClearsProvider, "trigger %s clears provider", trigger)
		assert.Equal(t, needs, rule.NeedsProvider, "trigger %s needs provider", trigger)
	}

	assertRule(TriggerAssign, StatusAssigned, false, true)
	assertRule(TriggerAccept, StatusInProgress, false, false)
	assertRule(TriggerReject, StatusRejected, true, false)
	// Завершённое бронирование сохраняет ссылку на исполнителя
	assertRule(TriggerComplete, StatusCompleted, false, false)
	assertRule(TriggerCustomerCancel, StatusCancelled, true, false)
	assertRule(TriggerAdminCancel, StatusCancelled, true, false)
	assertRule(TriggerRetry, StatusPending, true, false)
	assertRule(TriggerForceAssign, StatusAssigned, false, true)
	assertRule(TriggerForceCancel, StatusCancelled, true, false)
	assertRule(TriggerMarkFailed, StatusFailed, true, false)
}

func TestTransitionTable_OnlyAssignChecksAvailability(t *testing.T) {
	for trigger := range transitionTable {
		rule := transitionTable[trigger]
		if trigger == TriggerAssign {
			assert.True(t, rule.ChecksAvailability)
		} else {
			assert.False(t, rule.ChecksAvailability, "trigger %s must skip the busy check", trigger)
		}
	}
}
