package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	uuid "github.com/satori/go.uuid"

	"github.com/cardroomlabs/holdem/internal/deck"
	"github.com/cardroomlabs/holdem/internal/game"
	"github.com/cardroomlabs/holdem/internal/randutil"
)

// Broadcaster delivers a message to every client watching a table.
type Broadcaster interface {
	BroadcastToTable(tableID string, msg *Message)
}

// handBreak is the pause between an auto-started hand ending and the next
// one being dealt.
const handBreak = 3 * time.Second

// Table wraps one engine for concurrent use. The engine itself is
// single-threaded, so every call into it happens under the table mutex; the
// table also owns the per-turn action timer (auto-fold on expiry) and fans
// engine events out to connected clients.
type Table struct {
	ID     string
	Name   string
	Config TableConfig

	mu          sync.Mutex
	engine      *game.Engine
	seats       map[string]int // player name -> engine player ID
	logger      *log.Logger
	clock       quartz.Clock
	broadcaster Broadcaster

	// Guarded by mu via the engine-call paths: every engine mutation, and
	// therefore every synchronous event callback, runs with mu held.
	turnSeq   int
	turnTimer *quartz.Timer
}

// NewTable creates a table from its configuration. The clock is injected so
// tests can drive timeouts deterministically.
func NewTable(cfg TableConfig, logger *log.Logger, clock quartz.Clock, broadcaster Broadcaster) *Table {
	t := &Table{
		ID:          uuid.NewV4().String(),
		Name:        cfg.Name,
		Config:      cfg,
		seats:       make(map[string]int),
		clock:       clock,
		broadcaster: broadcaster,
	}
	t.logger = logger.WithPrefix("table").With("table", cfg.Name)

	t.engine = game.NewEngine(
		randutil.NewFromTime(),
		cfg.SmallBlind,
		cfg.BigBlind,
		game.WithLogger(t.logger),
		game.WithMaxSeats(cfg.MaxSeats),
	)
	t.engine.EventBus().Subscribe(t)
	return t
}

// Join seats a player. The buy-in must be inside the table limits and the
// name free.
func (t *Table) Join(name string, buyIn int, seat int) (*game.Player, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seats[name]; ok {
		return nil, fmt.Errorf("%s: %w", name, ErrAlreadySeated)
	}
	if buyIn < t.Config.BuyInMin || buyIn > t.Config.BuyInMax {
		return nil, fmt.Errorf("buy-in %d outside [%d, %d]: %w",
			buyIn, t.Config.BuyInMin, t.Config.BuyInMax, ErrInvalidBuyIn)
	}

	player, err := t.engine.AddPlayer(name, buyIn, seat)
	if err != nil {
		return nil, err
	}
	t.seats[name] = player.ID

	t.maybeAutoStartLocked()
	return player, nil
}

// Leave removes a player from the table. Mid-hand the engine folds them out
// first, which may end the hand.
func (t *Table) Leave(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.seats[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrPlayerNotSeated)
	}
	delete(t.seats, name)
	return t.engine.RemovePlayer(id)
}

// StartHand deals a new hand.
func (t *Table) StartHand() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine.StartHand()
}

// Action applies a betting action on behalf of a seated player. The action
// string is the wire form ("fold", "check", "call", "bet", "raise", "allin").
func (t *Table) Action(name, actionName string, amount int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.seats[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrPlayerNotSeated)
	}
	action, ok := game.ParseAction(actionName)
	if !ok {
		return fmt.Errorf("unknown action %q: %w", actionName, game.ErrInvalidAction)
	}

	var seat = -1
	for _, p := range t.engine.Players() {
		if p.ID == id {
			seat = p.Seat
			break
		}
	}
	if seat == -1 {
		return fmt.Errorf("%s: %w", name, ErrPlayerNotSeated)
	}

	return t.engine.ProcessAction(seat, action, amount)
}

// State snapshots the table for clients. Hole cards are never included;
// clients only ever learn their own cards from the hand-start deal message.
func (t *Table) State() TableStateData {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *Table) stateLocked() TableStateData {
	return TableStateData{
		TableID:    t.ID,
		Phase:      t.engine.Phase().String(),
		Pot:        t.engine.Pot(),
		CurrentBet: t.engine.CurrentBet(),
		Board:      cardStrings(t.engine.CommunityCards()),
		DealerSeat: t.engine.DealerSeat(),
		TurnSeat:   t.engine.CurrentSeat(),
		Players:    playerStatesFromGame(t.engine.Players()),
	}
}

// Info summarizes the table for lobby listings.
func (t *Table) Info() TableInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	return TableInfo{
		ID:          t.ID,
		Name:        t.Name,
		PlayerCount: len(t.seats),
		MaxSeats:    t.Config.MaxSeats,
		Stakes:      fmt.Sprintf("%d/%d", t.Config.SmallBlind, t.Config.BigBlind),
		HandActive:  t.engine.HandInProgress(),
	}
}

// HandInProgress reports whether a hand is running.
func (t *Table) HandInProgress() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine.HandInProgress()
}

// OnEvent receives engine events. The engine delivers synchronously, so this
// always runs with t.mu held by the caller that mutated the engine; it must
// not lock t.mu or call back into the engine.
func (t *Table) OnEvent(ev game.GameEvent) {
	switch ev := ev.(type) {
	case game.HandStartEvent:
		t.broadcast(MessageTypeHandStart, HandStartData{
			TableID:    t.ID,
			HandID:     ev.HandID,
			DealerSeat: ev.DealerSeat,
			SmallBlind: ev.SmallBlind,
			BigBlind:   ev.BigBlind,
			Players:    playerStatesFromGame(ev.Players),
		})

	case game.BlindPostedEvent:
		t.broadcast(MessageTypeBlindPosted, BlindPostedData{
			TableID: t.ID,
			Seat:    ev.Seat,
			Kind:    string(ev.Kind),
			Amount:  ev.Amount,
			AllIn:   ev.AllIn,
		})

	case game.PhaseChangeEvent:
		t.broadcast(MessageTypePhaseChange, PhaseChangeData{
			TableID: t.ID,
			Phase:   ev.Phase.String(),
		})

	case game.PlayerTurnEvent:
		t.armTurnTimer(ev.Seat)
		t.broadcast(MessageTypePlayerTurn, PlayerTurnData{
			TableID:        t.ID,
			Seat:           ev.Seat,
			CallOwed:       ev.CallOwed,
			TimeoutSeconds: t.Config.ActionTimeoutSeconds,
		})

	case game.PlayerActionEvent:
		t.broadcast(MessageTypePlayerAction, PlayerActionData{
			TableID:  t.ID,
			Seat:     ev.Seat,
			Action:   ev.Action.String(),
			Amount:   ev.Amount,
			PotAfter: ev.PotAfter,
		})

	case game.BoardEvent:
		t.broadcast(MessageTypeBoard, BoardData{
			TableID:  t.ID,
			Phase:    ev.Phase.String(),
			Revealed: cardStrings(ev.Revealed),
			Board:    cardStrings(ev.Board),
		})

	case game.ShowdownEvent:
		t.broadcast(MessageTypeShowdown, ShowdownData{
			TableID:    t.ID,
			Contenders: ev.Contenders,
			Pots:       ev.Pots,
		})

	case game.HandEndEvent:
		t.cancelTurnTimer()
		t.broadcast(MessageTypeHandEnd, HandEndData{
			TableID:    t.ID,
			HandID:     ev.HandID,
			Pots:       ev.Pots,
			DealerSeat: ev.DealerSeat,
		})
		if t.Config.AutoStart {
			t.clock.AfterFunc(handBreak, t.autoStartNextHand)
		}
	}
}

func (t *Table) broadcast(mt MessageType, data interface{}) {
	if t.broadcaster == nil {
		return
	}
	msg, err := NewMessage(mt, data)
	if err != nil {
		t.logger.Error("failed to encode message", "type", mt, "error", err)
		return
	}
	t.broadcaster.BroadcastToTable(t.ID, msg)
}

// armTurnTimer schedules an auto-fold for the seat now on turn. A zero
// timeout disables the timer. Runs with t.mu held (event callback).
func (t *Table) armTurnTimer(seat int) {
	t.cancelTurnTimer()
	if t.Config.ActionTimeoutSeconds <= 0 {
		return
	}

	t.turnSeq++
	seq := t.turnSeq
	timeout := time.Duration(t.Config.ActionTimeoutSeconds) * time.Second
	t.turnTimer = t.clock.AfterFunc(timeout, func() {
		t.expireTurn(seq, seat)
	})
}

func (t *Table) cancelTurnTimer() {
	t.turnSeq++
	if t.turnTimer != nil {
		t.turnTimer.Stop()
		t.turnTimer = nil
	}
}

// expireTurn fires on the timer goroutine when a seat ran out of time. The
// sequence check discards stale timers that lost the race with a real action.
func (t *Table) expireTurn(seq, seat int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if seq != t.turnSeq || !t.engine.HandInProgress() {
		return
	}
	if t.engine.CurrentSeat() != seat {
		return
	}

	t.logger.Warn("action timeout, folding", "seat", seat)
	t.engine.ForceFold(seat)
}

// autoStartNextHand fires after the inter-hand break on auto-start tables.
func (t *Table) autoStartNextHand() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.engine.HandInProgress() {
		return
	}
	if err := t.engine.StartHand(); err != nil {
		t.logger.Debug("auto-start skipped", "error", err)
	}
}

// maybeAutoStartLocked deals the first hand once enough players are seated.
func (t *Table) maybeAutoStartLocked() {
	if !t.Config.AutoStart || t.engine.HandInProgress() {
		return
	}
	if err := t.engine.StartHand(); err != nil {
		t.logger.Debug("auto-start skipped", "error", err)
	}
}

func cardStrings(cards []deck.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
