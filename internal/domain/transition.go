package domain

// Trigger именованный переход состояния бронирования
type Trigger string

const (
	TriggerAssign         Trigger = "assign"
	TriggerAccept         Trigger = "accept"
	TriggerReject         Trigger = "reject"
	TriggerComplete       Trigger = "complete"
	TriggerCustomerCancel Trigger = "customer_cancel"
	TriggerAdminCancel    Trigger = "admin_cancel"
	TriggerRetry          Trigger = "retry"
	TriggerForceAssign    Trigger = "force_assign"
	TriggerForceCancel    Trigger = "force_cancel"
	TriggerMarkFailed     Trigger = "mark_failed"
)

// Ownership вид проверки принадлежности бронирования актору
type Ownership int

const (
	// OwnershipNone принадлежность не проверяется
	OwnershipNone Ownership = iota
	// OwnershipCustomer actor id должен совпадать с customer_id бронирования
	OwnershipCustomer
	// OwnershipProvider actor id должен совпадать с provider_id бронирования
	OwnershipProvider
)

// TransitionRule одно правило таблицы переходов
//
// Таблица - единственный источник истины по допустимым переходам:
// движок проверяет каждый переход строго по правилу, новые операции
// не могут обойти таблицу
type TransitionRule struct {
	// From допустимые исходные статусы; если пуст, допускается любой
	// статус, кроме перечисленных в FromExcept
	From []BookingStatus
	// FromExcept запрещённые исходные статусы (только при пустом From)
	FromExcept []BookingStatus
	// To целевой статус
	To BookingStatus
	// Roles роли, которым разрешён переход
	Roles []ActorRole
	// Ownership проверка принадлежности бронирования актору
	Ownership Ownership
	// NeedsProvider переход требует существующего целевого провайдера
	NeedsProvider bool
	// ChecksAvailability переход требует свободного провайдера
	ChecksAvailability bool
	// ClearsProvider переход обнуляет provider_id
	ClearsProvider bool
}

// transitionTable таблица переходов состояния бронирования
//
// Создание бронирования (nil -> PENDING) идёт отдельным путём:
// у него нет исходной строки, к которой применимо правило.
//
// COMPLETED - единственный статус, защищённый от административного
// переопределения: force-операции исключают только его, CANCELLED
// они переопределять могут. Retry строже: принимает только
// REJECTED/FAILED - осознанная отмена клиента не воскрешается
var transitionTable = map[Trigger]TransitionRule{
	TriggerAssign: {
		From:               []BookingStatus{StatusPending, StatusRejected},
		To:                 StatusAssigned,
		Roles:              []ActorRole{RoleAdmin, RoleSystem},
		NeedsProvider:      true,
		ChecksAvailability: true,
	},
	TriggerAccept: {
		From:      []BookingStatus{StatusAssigned},
		To:        StatusInProgress,
		Roles:     []ActorRole{RoleProvider},
		Ownership: OwnershipProvider,
	},
	TriggerReject: {
		From:           []BookingStatus{StatusAssigned},
		To:             StatusRejected,
		Roles:          []ActorRole{RoleProvider},
		Ownership:      OwnershipProvider,
		ClearsProvider: true,
	},
	TriggerComplete: {
		From:      []BookingStatus{StatusInProgress},
		To:        StatusCompleted,
		Roles:     []ActorRole{RoleProvider},
		Ownership: OwnershipProvider,
	},
	TriggerCustomerCancel: {
		FromExcept:     TerminalStatuses,
		To:             StatusCancelled,
		Roles:          []ActorRole{RoleCustomer},
		Ownership:      OwnershipCustomer,
		ClearsProvider: true,
	},
	TriggerAdminCancel: {
		FromExcept:     TerminalStatuses,
		To:             StatusCancelled,
		Roles:          []ActorRole{RoleAdmin},
		ClearsProvider: true,
	},
	TriggerRetry: {
		From:           []BookingStatus{StatusRejected, StatusFailed},
		To:             StatusPending,
		Roles:          []ActorRole{RoleAdmin, RoleSystem},
		ClearsProvider: true,
	},
	TriggerForceAssign: {
		FromExcept:    []BookingStatus{StatusCompleted},
		To:            StatusAssigned,
		Roles:         []ActorRole{RoleAdmin},
		NeedsProvider: true,
	},
	TriggerForceCancel: {
		FromExcept:     []BookingStatus{StatusCompleted},
		To:             StatusCancelled,
		Roles:          []ActorRole{RoleAdmin},
		ClearsProvider: true,
	},
	TriggerMarkFailed: {
		FromExcept:     []BookingStatus{StatusCompleted},
		To:             StatusFailed,
		Roles:          []ActorRole{RoleAdmin},
		ClearsProvider: true,
	},
}

// RuleFor возвращает правило перехода для триггера
func RuleFor(trigger Trigger) (TransitionRule, bool) {
	rule, ok := transitionTable[trigger]
	return rule, ok
}

// AllowsRole returns true if the rule permits the role
func (r TransitionRule) AllowsRole(role ActorRole) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// AllowsFrom returns true if the rule permits a transition from the status
func (r TransitionRule) AllowsFrom(status BookingStatus) bool {
	if len(r.From) > 0 {
		for _, from := range r.From {
			if from == status {
				return true
			}
		}
		return false
	}

	for _, except := range r.FromExcept {
		if except == status {
			return false
		}
	}
	return true
}
