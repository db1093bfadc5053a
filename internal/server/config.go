package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joeshaw/envdecode"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Tables []TableConfig  `hcl:"table,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// TableConfig defines one table: stakes, seat count, buy-in limits and the
// per-turn action timeout enforced by the server.
type TableConfig struct {
	Name                 string `hcl:"name,label"`
	MaxSeats             int    `hcl:"max_seats,optional"`
	SmallBlind           int    `hcl:"small_blind"`
	BigBlind             int    `hcl:"big_blind"`
	BuyInMin             int    `hcl:"buy_in_min,optional"`
	BuyInMax             int    `hcl:"buy_in_max,optional"`
	AutoStart            bool   `hcl:"auto_start,optional"`
	ActionTimeoutSeconds int    `hcl:"action_timeout_seconds,optional"`
}

// envOverrides maps HOLDEM_* environment variables onto server settings.
// Environment wins over the config file.
type envOverrides struct {
	Address  string `env:"HOLDEM_ADDRESS"`
	Port     int    `env:"HOLDEM_PORT"`
	LogLevel string `env:"HOLDEM_LOG_LEVEL"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Tables: []TableConfig{
			{
				Name:                 "main",
				MaxSeats:             6,
				SmallBlind:           1,
				BigBlind:             2,
				BuyInMin:             100,
				BuyInMax:             1000,
				AutoStart:            true,
				ActionTimeoutSeconds: 30,
			},
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file, falling back
// to defaults when the file does not exist, then applies HOLDEM_* environment
// overrides.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	config := DefaultServerConfig()

	if _, err := os.Stat(filename); err == nil {
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCLFile(filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
		}

		config = &ServerConfig{}
		diags = gohcl.DecodeBody(file.Body, nil, config)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
		}
	}

	applyDefaults(config)

	var env envOverrides
	if err := envdecode.Decode(&env); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	if env.Address != "" {
		config.Server.Address = env.Address
	}
	if env.Port != 0 {
		config.Server.Port = env.Port
	}
	if env.LogLevel != "" {
		config.Server.LogLevel = env.LogLevel
	}

	return config, nil
}

func applyDefaults(config *ServerConfig) {
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}

	for i := range config.Tables {
		if config.Tables[i].MaxSeats == 0 {
			config.Tables[i].MaxSeats = 6
		}
		if config.Tables[i].BuyInMin == 0 {
			config.Tables[i].BuyInMin = config.Tables[i].BigBlind * 50
		}
		if config.Tables[i].BuyInMax == 0 {
			config.Tables[i].BuyInMax = config.Tables[i].BigBlind * 500
		}
		if config.Tables[i].ActionTimeoutSeconds == 0 {
			config.Tables[i].ActionTimeoutSeconds = 30
		}
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}

	seen := make(map[string]bool, len(c.Tables))
	for _, table := range c.Tables {
		if seen[table.Name] {
			return fmt.Errorf("duplicate table name: %s", table.Name)
		}
		seen[table.Name] = true

		if table.SmallBlind <= 0 {
			return fmt.Errorf("table %s: small blind must be positive", table.Name)
		}
		if table.BigBlind <= table.SmallBlind {
			return fmt.Errorf("table %s: big blind must be greater than small blind", table.Name)
		}
		if table.MaxSeats < 2 || table.MaxSeats > 10 {
			return fmt.Errorf("table %s: max seats must be between 2 and 10", table.Name)
		}
		if table.BuyInMin >= table.BuyInMax {
			return fmt.Errorf("table %s: buy-in minimum must be less than maximum", table.Name)
		}
		if table.ActionTimeoutSeconds < 0 {
			return fmt.Errorf("table %s: action timeout cannot be negative", table.Name)
		}
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GetTableByName returns a table configuration by name
func (c *ServerConfig) GetTableByName(name string) *TableConfig {
	for i := range c.Tables {
		if c.Tables[i].Name == name {
			return &c.Tables[i]
		}
	}
	return nil
}
