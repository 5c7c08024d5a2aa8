package enums

import "slices"

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateSale     OutboxAggregateType = "sale"
	AggregateRegister OutboxAggregateType = "cash_register"
	AggregateProduct  OutboxAggregateType = "product"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateSale,
	AggregateRegister,
	AggregateProduct,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	return slices.Contains(validAggregateTypes, a)
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parseEnum(validAggregateTypes, "aggregate type", value)
}

// OutboxEventType names the domain events written to the outbox.
type OutboxEventType string

const (
	EventSaleCreated     OutboxEventType = "sale_created"
	EventRegisterOpened  OutboxEventType = "register_opened"
	EventRegisterClosed  OutboxEventType = "register_closed"
	EventProductArchived OutboxEventType = "product_deleted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventSaleCreated,
	EventRegisterOpened,
	EventRegisterClosed,
	EventProductArchived,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	return slices.Contains(validOutboxEventTypes, e)
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parseEnum(validOutboxEventTypes, "event type", value)
}

// OutboxDLQErrorReason records why an event was parked instead of published.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)
