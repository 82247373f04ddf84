package models

// EventKind is the closed set of webhook event variants the reconciler
// understands. Anything the processor sends outside this set decodes into
// EventUnrecognized, which is acknowledged without action so the processor
// stops redelivering it.
type EventKind string

const (
	EventIntentSucceeded EventKind = "intent_succeeded"
	EventIntentFailed    EventKind = "intent_payment_failed"
	EventMethodAttached  EventKind = "payment_method_attached"
	EventUnrecognized    EventKind = "unrecognized"
)

// IntentSnapshot is the intent state embedded in a processor event.
// DealID carries the correlation metadata echoed back by the processor
// and may be empty if the intent was created without it.
type IntentSnapshot struct {
	ExternalID       string
	AmountMinorUnits int64
	Currency         string
	Status           string
	DealID           string
}

// ProcessorEvent is an authenticated, classified webhook notification
type ProcessorEvent struct {
	ID      string
	Kind    EventKind
	RawType string
	Intent  *IntentSnapshot
}
