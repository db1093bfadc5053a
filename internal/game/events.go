package game

import (
	"time"

	"github.com/cardroomlabs/holdem/internal/deck"
)

func now() time.Time { return time.Now() }

// EventType represents a game event type with type safety
type EventType string

const (
	EventTypeHandStart    EventType = "hand_start"
	EventTypeBlindPosted  EventType = "blind_posted"
	EventTypePhaseChange  EventType = "phase_change"
	EventTypePlayerTurn   EventType = "player_turn"
	EventTypePlayerAction EventType = "player_action"
	EventTypeBoard        EventType = "board"
	EventTypeShowdown     EventType = "showdown"
	EventTypeHandEnd      EventType = "hand_end"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents any event that occurs during a hand. Delivery is
// synchronous and on the caller's goroutine; subscribers must not call back
// into the engine from OnEvent.
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// HandStartEvent is published when a new hand begins. The board is implicitly
// cleared at this point.
type HandStartEvent struct {
	HandID     string
	Players    []*Player
	DealerSeat int
	SmallBlind int
	BigBlind   int
	timestamp  time.Time
}

func (e HandStartEvent) EventType() EventType { return EventTypeHandStart }
func (e HandStartEvent) Timestamp() time.Time { return e.timestamp }

// BlindKind distinguishes the two forced bets.
type BlindKind string

const (
	SmallBlind BlindKind = "small"
	BigBlind   BlindKind = "big"
)

// BlindPostedEvent is published for each forced bet at hand start. Amount is
// the chips actually posted, which is less than the configured blind when the
// seat is short-stacked.
type BlindPostedEvent struct {
	Seat      int
	Kind      BlindKind
	Amount    int
	AllIn     bool
	timestamp time.Time
}

func (e BlindPostedEvent) EventType() EventType { return EventTypeBlindPosted }
func (e BlindPostedEvent) Timestamp() time.Time { return e.timestamp }

// PhaseChangeEvent is published on every phase transition.
type PhaseChangeEvent struct {
	Phase     Phase
	timestamp time.Time
}

func (e PhaseChangeEvent) EventType() EventType { return EventTypePhaseChange }
func (e PhaseChangeEvent) Timestamp() time.Time { return e.timestamp }

// PlayerTurnEvent is published when a seat comes on turn.
type PlayerTurnEvent struct {
	Seat      int
	CallOwed  int
	timestamp time.Time
}

func (e PlayerTurnEvent) EventType() EventType { return EventTypePlayerTurn }
func (e PlayerTurnEvent) Timestamp() time.Time { return e.timestamp }

// PlayerActionEvent is published once per completed player action.
type PlayerActionEvent struct {
	Seat      int
	Action    Action
	Amount    int
	PotAfter  int
	timestamp time.Time
}

func (e PlayerActionEvent) EventType() EventType { return EventTypePlayerAction }
func (e PlayerActionEvent) Timestamp() time.Time { return e.timestamp }

// BoardEvent is published when community cards are revealed. Revealed holds
// only the new cards for the street; Board is the full board after the deal.
// An empty event signals the board was cleared.
type BoardEvent struct {
	Phase     Phase
	Revealed  []deck.Card
	Board     []deck.Card
	timestamp time.Time
}

func (e BoardEvent) EventType() EventType { return EventTypeBoard }
func (e BoardEvent) Timestamp() time.Time { return e.timestamp }

// ShowdownEvent is published when the hand reaches showdown. Contenders are
// the non-folded seats. Winner determination is not performed here; the
// collaborator owning hand ranking settles the pots.
type ShowdownEvent struct {
	Contenders []int
	Pots       []int
	timestamp  time.Time
}

func (e ShowdownEvent) EventType() EventType { return EventTypeShowdown }
func (e ShowdownEvent) Timestamp() time.Time { return e.timestamp }

// HandEndEvent is published when the hand completes and the dealer rotates.
type HandEndEvent struct {
	HandID     string
	Pots       []int
	DealerSeat int
	timestamp  time.Time
}

func (e HandEndEvent) EventType() EventType { return EventTypeHandEnd }
func (e HandEndEvent) Timestamp() time.Time { return e.timestamp }

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is a basic in-memory event bus implementation
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() EventBus {
	return &SimpleEventBus{}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}
