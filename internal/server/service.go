package server

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Service is the table registry: it creates tables from configuration and
// routes join/leave/action requests from connections to the right table.
type Service struct {
	mu          sync.RWMutex
	tables      map[string]*Table // table ID -> table
	byName      map[string]string // table name -> table ID
	logger      *log.Logger
	clock       quartz.Clock
	broadcaster Broadcaster
}

// NewService creates a service. Tables created through it share the clock and
// broadcaster.
func NewService(logger *log.Logger, clock quartz.Clock, broadcaster Broadcaster) *Service {
	return &Service{
		tables:      make(map[string]*Table),
		byName:      make(map[string]string),
		logger:      logger.WithPrefix("service"),
		clock:       clock,
		broadcaster: broadcaster,
	}
}

// CreateTable creates and registers a table.
func (s *Service) CreateTable(cfg TableConfig) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[cfg.Name]; ok {
		return nil, fmt.Errorf("%s: %w", cfg.Name, ErrTableNameTaken)
	}

	table := NewTable(cfg, s.logger, s.clock, s.broadcaster)
	s.tables[table.ID] = table
	s.byName[cfg.Name] = table.ID

	s.logger.Info("table created",
		"id", table.ID,
		"name", cfg.Name,
		"stakes", fmt.Sprintf("%d/%d", cfg.SmallBlind, cfg.BigBlind),
		"maxSeats", cfg.MaxSeats)
	return table, nil
}

// GetTable returns a table by ID, or nil.
func (s *Service) GetTable(id string) *Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[id]
}

// GetTableByName returns a table by its configured name, or nil.
func (s *Service) GetTableByName(name string) *Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byName[name]; ok {
		return s.tables[id]
	}
	return nil
}

// ListTables returns lobby info for every table.
func (s *Service) ListTables() []TableInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]TableInfo, 0, len(s.tables))
	for _, table := range s.tables {
		infos = append(infos, table.Info())
	}
	return infos
}

// JoinTable seats a player at a table.
func (s *Service) JoinTable(tableID, playerName string, buyIn, seat int) error {
	table := s.GetTable(tableID)
	if table == nil {
		return fmt.Errorf("%s: %w", tableID, ErrTableNotFound)
	}
	_, err := table.Join(playerName, buyIn, seat)
	return err
}

// LeaveTable removes a player from a table.
func (s *Service) LeaveTable(tableID, playerName string) error {
	table := s.GetTable(tableID)
	if table == nil {
		return fmt.Errorf("%s: %w", tableID, ErrTableNotFound)
	}
	return table.Leave(playerName)
}

// StartHand deals a hand at a table on request.
func (s *Service) StartHand(tableID string) error {
	table := s.GetTable(tableID)
	if table == nil {
		return fmt.Errorf("%s: %w", tableID, ErrTableNotFound)
	}
	return table.StartHand()
}

// HandleAction applies a player's betting action.
func (s *Service) HandleAction(tableID, playerName, action string, amount int) error {
	table := s.GetTable(tableID)
	if table == nil {
		return fmt.Errorf("%s: %w", tableID, ErrTableNotFound)
	}
	return table.Action(playerName, action, amount)
}

// TableState snapshots a table for a client.
func (s *Service) TableState(tableID string) (TableStateData, error) {
	table := s.GetTable(tableID)
	if table == nil {
		return TableStateData{}, fmt.Errorf("%s: %w", tableID, ErrTableNotFound)
	}
	return table.State(), nil
}
