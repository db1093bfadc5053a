package game

import (
	"fmt"
	rand "math/rand/v2"
	"sort"

	"github.com/charmbracelet/log"
	uuid "github.com/satori/go.uuid"

	"github.com/cardroomlabs/holdem/internal/deck"
)

// DefaultMaxSeats is the table size used when no option overrides it.
const DefaultMaxSeats = 6

// Engine drives one hand at a time from start to completion, enforcing the
// betting rules. It owns the seat list, the deck, the pot, and the phase
// machine. All mutation is synchronous: the engine never blocks, never runs
// timers, and accepts exactly one action at a time through ProcessAction.
// Callers exposing it over concurrent requests must serialize StartHand and
// ProcessAction per table.
type Engine struct {
	logger *log.Logger
	bus    EventBus
	rng    *rand.Rand

	maxSeats   int
	smallBlind int
	bigBlind   int

	players    []*Player // seat-ordered, owned exclusively
	nextID     int
	dealer     int // index into players
	current    int // index into players, -1 when nobody is on turn
	acted      map[int]bool
	pots       *PotManager
	currentBet int
	phase      Phase
	community  []deck.Card
	deck       *deck.Deck
	handID     string
	inProgress bool
}

// Option configures an Engine during creation.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithEventBus sets the bus the engine publishes to.
func WithEventBus(bus EventBus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithMaxSeats overrides the table size.
func WithMaxSeats(n int) Option {
	return func(e *Engine) { e.maxSeats = n }
}

// WithDeck sets a specific deck, overriding the RNG-built one. Intended for
// deterministic tests.
func WithDeck(d *deck.Deck) Option {
	return func(e *Engine) { e.deck = d }
}

// NewEngine creates an engine for a table with the given blind levels. The
// RNG is required so shuffles are reproducible in tests.
func NewEngine(rng *rand.Rand, smallBlind, bigBlind int, opts ...Option) *Engine {
	if rng == nil {
		panic("game: rng is required")
	}
	if smallBlind <= 0 || bigBlind <= smallBlind {
		panic(fmt.Sprintf("game: invalid blind levels %d/%d", smallBlind, bigBlind))
	}

	e := &Engine{
		logger:     log.Default(),
		bus:        NewEventBus(),
		rng:        rng,
		maxSeats:   DefaultMaxSeats,
		smallBlind: smallBlind,
		bigBlind:   bigBlind,
		current:    -1,
		acted:      make(map[int]bool),
		pots:       NewPotManager(),
		phase:      WaitingToStart,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithPrefix("engine")
	if e.deck == nil {
		e.deck = deck.New(rng)
	}
	return e
}

// EventBus returns the bus engine events are published on.
func (e *Engine) EventBus() EventBus { return e.bus }

// AddPlayer seats a new player. Pass seat -1 to take the first free seat. A
// player joining mid-hand is dealt in from the next hand.
func (e *Engine) AddPlayer(name string, stack, seat int) (*Player, error) {
	if len(e.players) >= e.maxSeats {
		return nil, ErrTableFull
	}

	occupied := make(map[int]bool, len(e.players))
	for _, p := range e.players {
		occupied[p.Seat] = true
	}

	if seat < 0 {
		for i := 0; i < e.maxSeats; i++ {
			if !occupied[i] {
				seat = i
				break
			}
		}
	}
	if seat < 0 || seat >= e.maxSeats {
		return nil, fmt.Errorf("seat %d: %w", seat, ErrInvalidSeat)
	}
	if occupied[seat] {
		return nil, fmt.Errorf("seat %d: %w", seat, ErrSeatOccupied)
	}

	player := NewPlayer(e.nextID, name, stack, seat)
	e.nextID++
	if e.inProgress {
		// Not part of the running hand; PrepareForNewHand restores them.
		player.SetStatus(StatusFolded)
	}

	idx := sort.Search(len(e.players), func(i int) bool {
		return e.players[i].Seat > seat
	})
	e.players = append(e.players, nil)
	copy(e.players[idx+1:], e.players[idx:])
	e.players[idx] = player

	if len(e.players) > 1 {
		if idx <= e.dealer {
			e.dealer++
		}
		if e.current != -1 && idx <= e.current {
			e.current++
		}
	}

	e.logger.Info("player joined", "name", name, "seat", seat, "stack", stack)
	return player, nil
}

// RemovePlayer takes a player off the table. If they are in the running hand
// they are folded out first.
func (e *Engine) RemovePlayer(id int) error {
	idx := -1
	for i, p := range e.players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrUnknownPlayer
	}

	player := e.players[idx]
	if e.inProgress && player.InHand() {
		e.ForceFold(player.Seat)
	}

	e.players = append(e.players[:idx], e.players[idx+1:]...)

	if idx < e.dealer {
		e.dealer--
	}
	if e.dealer >= len(e.players) {
		e.dealer = 0
	}
	if e.current != -1 {
		if idx < e.current {
			e.current--
		} else if idx == e.current {
			e.current = -1
		}
	}

	e.logger.Info("player left", "name", player.Name, "seat", player.Seat)
	return nil
}

// SitOut takes a player out of future deals. Mid-hand it also folds them.
func (e *Engine) SitOut(id int) error {
	player := e.playerByID(id)
	if player == nil {
		return ErrUnknownPlayer
	}
	if e.inProgress && player.InHand() {
		e.ForceFold(player.Seat)
	}
	player.SetStatus(StatusSittingOut)
	return nil
}

// SitIn returns a sitting-out player to the game from the next hand.
func (e *Engine) SitIn(id int) error {
	player := e.playerByID(id)
	if player == nil {
		return ErrUnknownPlayer
	}
	if player.Status() == StatusSittingOut && player.Stack() > 0 {
		player.SetStatus(StatusFolded) // dealt in at next PrepareForNewHand
	}
	return nil
}

// SetBlindLevels updates the blinds, effective from the next hand.
func (e *Engine) SetBlindLevels(smallBlind, bigBlind int) error {
	if smallBlind <= 0 || bigBlind <= smallBlind {
		return fmt.Errorf("%d/%d: %w", smallBlind, bigBlind, ErrInvalidBlinds)
	}
	e.smallBlind = smallBlind
	e.bigBlind = bigBlind
	e.logger.Info("blind levels updated", "smallBlind", smallBlind, "bigBlind", bigBlind)
	return nil
}

// StartHand begins a new hand: resets seats and pot, shuffles, deals two hole
// cards to every eligible seat, posts blinds and puts the first actor on
// turn. It fails without touching state when a hand is already running, when
// fewer than two seats are eligible, or when neither blind seat can post.
func (e *Engine) StartHand() error {
	if e.inProgress {
		return ErrHandInProgress
	}

	eligible := e.eligibleIdx()
	if len(eligible) < 2 {
		return fmt.Errorf("%d eligible: %w", len(eligible), ErrInsufficientPlayers)
	}

	dealer := e.dealer
	if !e.isEligible(e.players[dealer]) {
		dealer = e.nextEligibleIdx(dealer)
	}
	sbIdx, bbIdx := e.blindIdx(dealer, len(eligible))
	sbAmount := min(e.smallBlind, e.players[sbIdx].Stack())
	bbAmount := min(e.bigBlind, e.players[bbIdx].Stack())
	if sbAmount == 0 && bbAmount == 0 {
		return ErrBlindsNotMet
	}

	// Validations passed, mutate.
	e.dealer = dealer
	e.handID = uuid.NewV4().String()
	e.community = e.community[:0]
	e.pots.Reset()
	e.currentBet = 0
	e.current = -1
	e.acted = make(map[int]bool)
	for _, p := range e.players {
		p.PrepareForNewHand()
	}
	e.deck.Reset()
	e.inProgress = true

	e.logger.Info("starting hand",
		"handID", e.handID,
		"dealerSeat", e.players[e.dealer].Seat,
		"players", len(eligible))

	e.bus.Publish(HandStartEvent{
		HandID:     e.handID,
		Players:    e.Players(),
		DealerSeat: e.players[e.dealer].Seat,
		SmallBlind: e.smallBlind,
		BigBlind:   e.bigBlind,
		timestamp:  now(),
	})
	e.bus.Publish(BoardEvent{Phase: WaitingToStart, Board: nil, timestamp: now()})

	e.dealHoleCards()
	e.setPhase(PreFlop)
	e.postBlinds(sbIdx, bbIdx)

	// Heads-up the big blind acts first preflop, otherwise the seat after it.
	var first int
	if len(eligible) == 2 && e.players[bbIdx].CanAct() {
		first = bbIdx
	} else {
		first = e.nextActorIdx(bbIdx)
	}
	if first == -1 {
		// Blinds put everyone all-in; run the board out.
		e.endBettingRound()
		return nil
	}
	e.setCurrent(first)
	return nil
}

// ProcessAction applies one action for the seat currently on turn. Rejected
// actions leave all state unchanged.
func (e *Engine) ProcessAction(seat int, action Action, amount int) error {
	if !e.inProgress || e.current == -1 {
		return ErrNoCurrentActor
	}
	actor := e.players[e.current]
	if actor.Seat != seat {
		return fmt.Errorf("seat %d is not on turn: %w", seat, ErrActorCannotAct)
	}
	if !actor.CanAct() {
		return fmt.Errorf("seat %d: %w", seat, ErrActorCannotAct)
	}

	var moved int
	switch action {
	case Fold:
		actor.Fold()

	case Check:
		if actor.Bet() != e.currentBet {
			return fmt.Errorf("check with %d owed: %w", e.currentBet-actor.Bet(), ErrInvalidAction)
		}

	case Call:
		// A call with nothing owed degenerates to a no-op.
		if owed := e.currentBet - actor.Bet(); owed > 0 {
			moved = actor.MakeBet(owed)
			e.pots.Add(moved)
		}

	case Bet, Raise:
		if amount <= e.currentBet {
			return fmt.Errorf("%s to %d with table bet %d: %w", action, amount, e.currentBet, ErrInvalidAction)
		}
		moved = actor.MakeBet(amount - actor.Bet())
		e.pots.Add(moved)
		// A short stack may not reach the announced amount; the table bet
		// never drops below bets already posted this round.
		e.currentBet = max(e.currentBet, actor.Bet())

	case AllIn:
		moved = actor.MakeBet(actor.Stack())
		e.pots.Add(moved)
		if actor.Bet() > e.currentBet {
			e.currentBet = actor.Bet()
		}

	default:
		return fmt.Errorf("unknown action %d: %w", action, ErrInvalidAction)
	}

	e.acted[actor.Seat] = true
	e.logger.Debug("action applied",
		"seat", seat, "action", action, "moved", moved,
		"pot", e.pots.Total(), "currentBet", e.currentBet)
	e.bus.Publish(PlayerActionEvent{
		Seat:      seat,
		Action:    action,
		Amount:    moved,
		PotAfter:  e.pots.Total(),
		timestamp: now(),
	})

	if e.IsBettingRoundComplete() {
		e.endBettingRound()
		return nil
	}
	next := e.nextActorIdx(e.current)
	if next == -1 {
		e.endBettingRound()
		return nil
	}
	e.setCurrent(next)
	return nil
}

// ForceFold folds a seat immediately regardless of turn order. Used for
// occupancy changes like disconnects; a no-op outside a hand.
func (e *Engine) ForceFold(seat int) {
	if !e.inProgress {
		return
	}
	player := e.PlayerBySeat(seat)
	if player == nil || !player.InHand() {
		return
	}

	wasCurrent := e.current != -1 && e.players[e.current].Seat == seat
	player.Fold()
	e.acted[seat] = true
	e.bus.Publish(PlayerActionEvent{
		Seat:      seat,
		Action:    Fold,
		PotAfter:  e.pots.Total(),
		timestamp: now(),
	})

	if e.IsBettingRoundComplete() {
		e.endBettingRound()
		return
	}
	if wasCurrent {
		next := e.nextActorIdx(e.current)
		if next == -1 {
			e.endBettingRound()
			return
		}
		e.setCurrent(next)
	}
}

// IsBettingRoundComplete reports whether the open betting round has finished:
// at most one contender remains, or every active seat has acted and matched
// the table bet. All-in seats are exempt from matching; a short all-in can
// never reach the table bet.
func (e *Engine) IsBettingRoundComplete() bool {
	if e.contenderCount() <= 1 {
		return true
	}
	for _, p := range e.players {
		if p.Status() != StatusActive {
			continue
		}
		if p.Bet() != e.currentBet || !e.acted[p.Seat] {
			return false
		}
	}
	return true
}

func (e *Engine) endBettingRound() {
	for _, p := range e.players {
		p.ResetBet()
	}
	e.currentBet = 0
	e.current = -1
	e.acted = make(map[int]bool)

	if e.contenderCount() <= 1 {
		e.startShowdown()
		return
	}

	switch e.phase {
	case PreFlop:
		e.dealCommunity(3, Flop)
	case Flop:
		e.dealCommunity(1, Turn)
	case Turn:
		e.dealCommunity(1, River)
	case River:
		e.startShowdown()
		return
	default:
		return
	}

	next := e.nextActorIdx(e.dealer)
	if next == -1 {
		// Everyone left is all-in, run out the remaining streets.
		e.endBettingRound()
		return
	}
	e.setCurrent(next)
}

// dealCommunity burns one card, reveals n more, and advances to phase.
func (e *Engine) dealCommunity(n int, phase Phase) {
	e.drawCard() // burn
	revealed := make([]deck.Card, 0, n)
	for i := 0; i < n; i++ {
		card := e.drawCard()
		revealed = append(revealed, card)
		e.community = append(e.community, card)
	}
	e.setPhase(phase)
	e.logger.Info("community cards dealt", "phase", phase, "cards", revealed)
	e.bus.Publish(BoardEvent{
		Phase:     phase,
		Revealed:  revealed,
		Board:     e.CommunityCards(),
		timestamp: now(),
	})
}

// drawCard draws the next card. The deck cannot realistically run out with
// 52 cards and a full table, but if it does the engine reshuffles rather than
// aborting the hand.
func (e *Engine) drawCard() deck.Card {
	card, err := e.deck.Draw()
	if err != nil {
		e.logger.Warn("deck exhausted mid-hand, reshuffling", "phase", e.phase)
		e.deck.Reset()
		card, _ = e.deck.Draw()
	}
	return card
}

func (e *Engine) startShowdown() {
	e.setPhase(Showdown)

	contenders := make([]int, 0, len(e.players))
	for _, p := range e.players {
		if p.InHand() {
			contenders = append(contenders, p.Seat)
		}
	}
	e.logger.Info("showdown", "contenders", len(contenders), "pot", e.pots.Total())
	e.bus.Publish(ShowdownEvent{
		Contenders: contenders,
		Pots:       e.pots.Pots(),
		timestamp:  now(),
	})

	// Winner determination is owned by the hand-ranking collaborator; the
	// hand ends here and the pot totals stay readable until the next deal.
	e.endHand()
}

func (e *Engine) endHand() {
	e.setPhase(HandComplete)
	e.inProgress = false
	e.current = -1

	if next := e.nextEligibleIdx(e.dealer); next != -1 {
		e.dealer = next
	}

	e.logger.Info("hand complete", "handID", e.handID, "dealerSeat", e.players[e.dealer].Seat)
	e.bus.Publish(HandEndEvent{
		HandID:     e.handID,
		Pots:       e.pots.Pots(),
		DealerSeat: e.players[e.dealer].Seat,
		timestamp:  now(),
	})
}

// postBlinds posts the forced bets. Each seat posts the lesser of the
// configured blind and its stack; the table bet becomes the larger of the
// two actual posts so short-stack blinds don't inflate it.
func (e *Engine) postBlinds(sbIdx, bbIdx int) {
	sb := e.players[sbIdx]
	bb := e.players[bbIdx]

	sbPosted := sb.MakeBet(e.smallBlind)
	e.pots.Add(sbPosted)
	e.bus.Publish(BlindPostedEvent{
		Seat: sb.Seat, Kind: SmallBlind, Amount: sbPosted,
		AllIn: sb.Status() == StatusAllIn, timestamp: now(),
	})

	bbPosted := bb.MakeBet(e.bigBlind)
	e.pots.Add(bbPosted)
	e.bus.Publish(BlindPostedEvent{
		Seat: bb.Seat, Kind: BigBlind, Amount: bbPosted,
		AllIn: bb.Status() == StatusAllIn, timestamp: now(),
	})

	e.currentBet = max(sbPosted, bbPosted)
	e.logger.Info("blinds posted",
		"sbSeat", sb.Seat, "sbAmount", sbPosted,
		"bbSeat", bb.Seat, "bbAmount", bbPosted,
		"currentBet", e.currentBet)
}

// blindIdx computes the blind positions. Heads-up the dealer posts the small
// blind; otherwise the seat after the dealer does.
func (e *Engine) blindIdx(dealer, eligibleCount int) (sbIdx, bbIdx int) {
	if eligibleCount == 2 {
		sbIdx = dealer
	} else {
		sbIdx = e.nextEligibleIdx(dealer)
	}
	bbIdx = e.nextEligibleIdx(sbIdx)
	return sbIdx, bbIdx
}

func (e *Engine) dealHoleCards() {
	// Two passes around the table, one card at a time, like a live deal.
	cards := make(map[int][]deck.Card, len(e.players))
	for pass := 0; pass < 2; pass++ {
		for _, idx := range e.eligibleIdx() {
			p := e.players[idx]
			cards[p.ID] = append(cards[p.ID], e.drawCard())
		}
	}
	for _, p := range e.players {
		if dealt := cards[p.ID]; len(dealt) == 2 {
			if err := p.SetHoleCards(dealt); err != nil {
				e.logger.Error("failed to deal hole cards", "player", p.Name, "error", err)
			}
		}
	}
}

func (e *Engine) setPhase(phase Phase) {
	e.phase = phase
	e.bus.Publish(PhaseChangeEvent{Phase: phase, timestamp: now()})
}

func (e *Engine) setCurrent(idx int) {
	e.current = idx
	player := e.players[idx]
	e.bus.Publish(PlayerTurnEvent{
		Seat:      player.Seat,
		CallOwed:  e.currentBet - player.Bet(),
		timestamp: now(),
	})
}

// isEligible reports whether a seat takes part in the next deal.
func (e *Engine) isEligible(p *Player) bool {
	return p.Status() != StatusSittingOut && p.Stack() > 0
}

func (e *Engine) eligibleIdx() []int {
	out := make([]int, 0, len(e.players))
	for i, p := range e.players {
		if e.isEligible(p) {
			out = append(out, i)
		}
	}
	return out
}

// nextEligibleIdx finds the next eligible seat clockwise of from, or -1.
func (e *Engine) nextEligibleIdx(from int) int {
	n := len(e.players)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if idx == from {
			break
		}
		if e.isEligible(e.players[idx]) {
			return idx
		}
	}
	return -1
}

// nextActorIdx finds the next seat clockwise of from that can act, or -1.
func (e *Engine) nextActorIdx(from int) int {
	n := len(e.players)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if e.players[idx].CanAct() {
			return idx
		}
	}
	return -1
}

func (e *Engine) contenderCount() int {
	count := 0
	for _, p := range e.players {
		if p.InHand() {
			count++
		}
	}
	return count
}

func (e *Engine) playerByID(id int) *Player {
	for _, p := range e.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Read accessors. Collaborators may read freely; the documented entry points
// above are the only mutators.

// Phase returns the current phase.
func (e *Engine) Phase() Phase { return e.phase }

// HandID returns the identifier of the current (or last) hand.
func (e *Engine) HandID() string { return e.handID }

// HandInProgress reports whether a hand is being played.
func (e *Engine) HandInProgress() bool { return e.inProgress }

// Pot returns the total chips across all pots.
func (e *Engine) Pot() int { return e.pots.Total() }

// Pots returns the per-pot totals.
func (e *Engine) Pots() []int { return e.pots.Pots() }

// CurrentBet returns the bet to match in the open round.
func (e *Engine) CurrentBet() int { return e.currentBet }

// Blinds returns the configured blind amounts.
func (e *Engine) Blinds() (smallBlind, bigBlind int) { return e.smallBlind, e.bigBlind }

// Players returns the seat-ordered player list. The slice is a copy; the
// players are live.
func (e *Engine) Players() []*Player {
	out := make([]*Player, len(e.players))
	copy(out, e.players)
	return out
}

// PlayerBySeat returns the player at seat, or nil.
func (e *Engine) PlayerBySeat(seat int) *Player {
	for _, p := range e.players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

// DealerSeat returns the dealer's seat index, or -1 on an empty table.
func (e *Engine) DealerSeat() int {
	if len(e.players) == 0 {
		return -1
	}
	return e.players[e.dealer].Seat
}

// CurrentSeat returns the seat on turn, or -1.
func (e *Engine) CurrentSeat() int {
	if e.current == -1 {
		return -1
	}
	return e.players[e.current].Seat
}

// CommunityCards returns a copy of the board.
func (e *Engine) CommunityCards() []deck.Card {
	out := make([]deck.Card, len(e.community))
	copy(out, e.community)
	return out
}

// SmallBlindSeat returns the seat posting the small blind for the next deal,
// or -1 when a hand cannot start.
func (e *Engine) SmallBlindSeat() int {
	eligible := e.eligibleIdx()
	if len(eligible) < 2 {
		return -1
	}
	dealer := e.dealer
	if !e.isEligible(e.players[dealer]) {
		dealer = e.nextEligibleIdx(dealer)
	}
	sbIdx, _ := e.blindIdx(dealer, len(eligible))
	return e.players[sbIdx].Seat
}

// BigBlindSeat returns the seat posting the big blind for the next deal, or
// -1 when a hand cannot start.
func (e *Engine) BigBlindSeat() int {
	eligible := e.eligibleIdx()
	if len(eligible) < 2 {
		return -1
	}
	dealer := e.dealer
	if !e.isEligible(e.players[dealer]) {
		dealer = e.nextEligibleIdx(dealer)
	}
	_, bbIdx := e.blindIdx(dealer, len(eligible))
	return e.players[bbIdx].Seat
}
