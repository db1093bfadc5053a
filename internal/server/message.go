package server

import (
	"encoding/json"
	"time"

	"github.com/cardroomlabs/holdem/internal/game"
)

// MessageType identifies a message on the wire.
type MessageType string

const (
	// Client → server.
	MessageTypeAuth       MessageType = "auth"
	MessageTypeJoinTable  MessageType = "join_table"
	MessageTypeLeaveTable MessageType = "leave_table"
	MessageTypeListTables MessageType = "list_tables"
	MessageTypeStartHand  MessageType = "start_hand"
	MessageTypeAction     MessageType = "action"
	MessageTypeGetState   MessageType = "get_state"

	// Server → client.
	MessageTypeAuthResponse MessageType = "auth_response"
	MessageTypeTableJoined  MessageType = "table_joined"
	MessageTypeTableLeft    MessageType = "table_left"
	MessageTypeTableList    MessageType = "table_list"
	MessageTypeTableState   MessageType = "table_state"
	MessageTypeError        MessageType = "error"

	// Server → client game event fan-out. Types mirror the engine's events.
	MessageTypeHandStart    MessageType = "hand_start"
	MessageTypeBlindPosted  MessageType = "blind_posted"
	MessageTypePhaseChange  MessageType = "phase_change"
	MessageTypePlayerTurn   MessageType = "player_turn"
	MessageTypePlayerAction MessageType = "player_action"
	MessageTypeBoard        MessageType = "board"
	MessageTypeShowdown     MessageType = "showdown"
	MessageTypeHandEnd      MessageType = "hand_end"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	PlayerName string `json:"playerName"`
}

type JoinTableData struct {
	TableID string `json:"tableId"`
	Seat    *int   `json:"seat,omitempty"`
	BuyIn   int    `json:"buyIn"`
}

type LeaveTableData struct {
	TableID string `json:"tableId"`
}

type StartHandData struct {
	TableID string `json:"tableId"`
}

type ActionData struct {
	TableID string `json:"tableId"`
	Action  string `json:"action"`
	Amount  int    `json:"amount,omitempty"`
}

type GetStateData struct {
	TableID string `json:"tableId"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TableInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
	MaxSeats    int    `json:"maxSeats"`
	Stakes      string `json:"stakes"`
	HandActive  bool   `json:"handActive"`
}

type TableListData struct {
	Tables []TableInfo `json:"tables"`
}

type TableJoinedData struct {
	TableID string        `json:"tableId"`
	Seat    int           `json:"seat"`
	Players []PlayerState `json:"players"`
}

type PlayerState struct {
	Name   string `json:"name"`
	Seat   int    `json:"seat"`
	Stack  int    `json:"stack"`
	Bet    int    `json:"bet"`
	Status string `json:"status"`
}

type TableStateData struct {
	TableID    string        `json:"tableId"`
	Phase      string        `json:"phase"`
	Pot        int           `json:"pot"`
	CurrentBet int           `json:"currentBet"`
	Board      []string      `json:"board"`
	DealerSeat int           `json:"dealerSeat"`
	TurnSeat   int           `json:"turnSeat"`
	Players    []PlayerState `json:"players"`
}

type HandStartData struct {
	TableID    string        `json:"tableId"`
	HandID     string        `json:"handId"`
	DealerSeat int           `json:"dealerSeat"`
	SmallBlind int           `json:"smallBlind"`
	BigBlind   int           `json:"bigBlind"`
	Players    []PlayerState `json:"players"`
}

type BlindPostedData struct {
	TableID string `json:"tableId"`
	Seat    int    `json:"seat"`
	Kind    string `json:"kind"`
	Amount  int    `json:"amount"`
	AllIn   bool   `json:"allIn"`
}

type PhaseChangeData struct {
	TableID string `json:"tableId"`
	Phase   string `json:"phase"`
}

type PlayerTurnData struct {
	TableID        string `json:"tableId"`
	Seat           int    `json:"seat"`
	CallOwed       int    `json:"callOwed"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type PlayerActionData struct {
	TableID  string `json:"tableId"`
	Seat     int    `json:"seat"`
	Action   string `json:"action"`
	Amount   int    `json:"amount"`
	PotAfter int    `json:"potAfter"`
}

type BoardData struct {
	TableID  string   `json:"tableId"`
	Phase    string   `json:"phase"`
	Revealed []string `json:"revealed"`
	Board    []string `json:"board"`
}

type ShowdownData struct {
	TableID    string `json:"tableId"`
	Contenders []int  `json:"contenders"`
	Pots       []int  `json:"pots"`
}

type HandEndData struct {
	TableID    string `json:"tableId"`
	HandID     string `json:"handId"`
	Pots       []int  `json:"pots"`
	DealerSeat int    `json:"dealerSeat"`
}

// Helper functions to convert between internal types and message types

func PlayerStateFromGame(p *game.Player) PlayerState {
	return PlayerState{
		Name:   p.Name,
		Seat:   p.Seat,
		Stack:  p.Stack(),
		Bet:    p.Bet(),
		Status: p.Status().String(),
	}
}

func playerStatesFromGame(players []*game.Player) []PlayerState {
	out := make([]PlayerState, len(players))
	for i, p := range players {
		out[i] = PlayerStateFromGame(p)
	}
	return out
}
