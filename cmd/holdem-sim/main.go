package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/cardroomlabs/holdem/internal/game"
	"github.com/cardroomlabs/holdem/internal/randutil"
)

var CLI struct {
	Hands      int   `short:"n" default:"10" help:"Number of hands to play"`
	Seats      int   `short:"s" default:"4" help:"Number of seated players"`
	Stack      int   `default:"1000" help:"Starting stack per player"`
	SmallBlind int   `default:"10" help:"Small blind"`
	BigBlind   int   `default:"20" help:"Big blind"`
	Seed       int64 `default:"0" help:"RNG seed (0 = time-based)"`
	Verbose    bool  `short:"v" help:"Log every event"`
}

// eventLogger prints engine events as they happen.
type eventLogger struct {
	logger *log.Logger
}

func (el *eventLogger) OnEvent(ev game.GameEvent) {
	switch ev := ev.(type) {
	case game.HandStartEvent:
		el.logger.Info("hand start", "handID", ev.HandID, "dealerSeat", ev.DealerSeat)
	case game.BlindPostedEvent:
		el.logger.Info("blind posted", "seat", ev.Seat, "kind", ev.Kind, "amount", ev.Amount)
	case game.PlayerActionEvent:
		el.logger.Info("action", "seat", ev.Seat, "action", ev.Action, "amount", ev.Amount, "pot", ev.PotAfter)
	case game.BoardEvent:
		if len(ev.Revealed) > 0 {
			el.logger.Info("board", "phase", ev.Phase, "cards", ev.Board)
		}
	case game.ShowdownEvent:
		el.logger.Info("showdown", "contenders", ev.Contenders, "pots", ev.Pots)
	case game.HandEndEvent:
		el.logger.Info("hand end", "handID", ev.HandID, "pots", ev.Pots)
	}
}

func main() {
	kctx := kong.Parse(&CLI)

	logger := log.New(os.Stderr)
	if CLI.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	seed := CLI.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	if CLI.Seats < 2 {
		fmt.Println("need at least 2 seats")
		kctx.Exit(1)
	}

	engine := game.NewEngine(
		randutil.New(seed),
		CLI.SmallBlind,
		CLI.BigBlind,
		game.WithLogger(logger),
		game.WithMaxSeats(CLI.Seats),
	)
	engine.EventBus().Subscribe(&eventLogger{logger: logger.WithPrefix("event")})

	for i := 0; i < CLI.Seats; i++ {
		name := fmt.Sprintf("player%d", i+1)
		if _, err := engine.AddPlayer(name, CLI.Stack, i); err != nil {
			logger.Error("failed to seat player", "name", name, "error", err)
			kctx.Exit(1)
		}
	}

	logger.Info("simulating", "hands", CLI.Hands, "seats", CLI.Seats, "seed", seed)

	played := 0
	for h := 0; h < CLI.Hands; h++ {
		if err := engine.StartHand(); err != nil {
			logger.Warn("cannot start hand, stopping", "error", err)
			break
		}
		playHand(engine, logger)
		played++
	}

	logger.Info("simulation complete", "handsPlayed", played)
	for _, p := range engine.Players() {
		logger.Info("final stack", "name", p.Name, "seat", p.Seat, "stack", p.Stack())
	}
}

// playHand drives a hand to completion with call-station seats: every player
// calls when chips are owed and checks otherwise, so each street completes
// and the full board runs out.
func playHand(engine *game.Engine, logger *log.Logger) {
	for engine.HandInProgress() {
		seat := engine.CurrentSeat()
		if seat == -1 {
			return
		}

		player := engine.PlayerBySeat(seat)
		action := game.Check
		if engine.CurrentBet()-player.Bet() > 0 {
			action = game.Call
		}

		if err := engine.ProcessAction(seat, action, 0); err != nil {
			logger.Error("action rejected", "seat", seat, "action", action, "error", err)
			return
		}
	}
}
