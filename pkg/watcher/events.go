package watcher

// EventType defines the type of event being broadcast.
type EventType string

const (
	EventBalancesUpdated EventType = "balances_updated"
	EventGasUpdated      EventType = "gas_updated"
	EventPricesUpdated   EventType = "prices_updated"
	EventDepositDetected EventType = "deposit_detected"
	EventActivityUpdated EventType = "activity_updated"
)

// Event represents a monitoring event.
type Event struct {
	Type EventType
	Data interface{}
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
