package shared

// AggregateRoot is implemented by designs and pricing policies: versioned
// entities that queue domain events until they are saved
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
	PullDomainEvents() []DomainEvent
}

// BaseAggregateRoot carries the optimistic-lock version and pending events
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`
	pending []DomainEvent
}

// NewBaseAggregateRoot starts a new aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// GetVersion returns the version checked by SaveWithLock
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion marks a state change
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent queues an event for publishing after the aggregate is saved
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns the queued events without clearing them
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.pending
}

// ClearDomainEvents drops the queued events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.pending = nil
}

// PullDomainEvents returns the queued events and clears the queue
func (a *BaseAggregateRoot) PullDomainEvents() []DomainEvent {
	events := a.pending
	a.pending = nil
	return events
}
