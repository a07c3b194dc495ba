package config

import (
	"fmt"

	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/state"
	"github.com/basinledger/settled/internal/tokens"
)

// Config is the complete settled configuration.
type Config struct {
	Server ServerConfig `toml:"server" mapstructure:"server"`

	// Ports is populated dynamically from whichever port_* sections
	// Server.Ports names.
	Ports map[string]PortConfig `toml:"-" mapstructure:"-"`

	Engine  EngineConfig  `toml:"engine" mapstructure:"engine"`
	Storage StorageConfig `toml:"storage" mapstructure:"storage"`

	DebugLogfile string `toml:"debug_logfile" mapstructure:"debug_logfile"`

	configPath string
}

// EngineConfig names the global settlement parameters a BaseState is
// constructed with.
type EngineConfig struct {
	VerifyingContract  string `toml:"verifying_contract" mapstructure:"verifying_contract"`
	FeeCollector       string `toml:"fee_collector" mapstructure:"fee_collector"`
	ProtocolFeePips    uint32 `toml:"protocol_fee_pips" mapstructure:"protocol_fee_pips"`
	WrappedNativeToken string `toml:"wrapped_native_token" mapstructure:"wrapped_native_token"`
}

// StorageConfig names the durable account-book backend.
type StorageConfig struct {
	Path string `toml:"path" mapstructure:"path"`

	// Backend selects the key-value engine behind storage.DB: "pebble"
	// (default) or "leveldb".
	Backend string `toml:"backend" mapstructure:"backend"`
}

// ConfigPaths holds the path to the configuration file.
type ConfigPaths struct {
	Main string
}

// DefaultConfigPaths returns the default configuration file path.
func DefaultConfigPaths() ConfigPaths {
	return ConfigPaths{Main: "settled.toml"}
}

// GetConfigPath returns the path the config was loaded from.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// GetPort returns the configuration for a specific port by name.
func (c *Config) GetPort(name string) (PortConfig, bool) {
	port, exists := c.Ports[name]
	return port, exists
}

// EngineParams resolves the toml-level EngineConfig into the typed
// state.Params an engine.Engine is constructed over.
func (c *Config) EngineParams() (state.Params, error) {
	fee, err := numeric.NewPips(c.Engine.ProtocolFeePips)
	if err != nil {
		return state.Params{}, fmt.Errorf("engine.protocol_fee_pips: %w", err)
	}
	if c.Engine.VerifyingContract == "" {
		return state.Params{}, fmt.Errorf("engine.verifying_contract is required")
	}
	if c.Engine.FeeCollector == "" {
		return state.Params{}, fmt.Errorf("engine.fee_collector is required")
	}
	if c.Engine.WrappedNativeToken == "" {
		return state.Params{}, fmt.Errorf("engine.wrapped_native_token is required")
	}
	wrapped, err := tokens.ParseTokenId(c.Engine.WrappedNativeToken)
	if err != nil {
		return state.Params{}, fmt.Errorf("engine.wrapped_native_token: %w", err)
	}
	return state.Params{
		VerifyingContract: account.PrincipalID(c.Engine.VerifyingContract),
		FeeCollector:      account.PrincipalID(c.Engine.FeeCollector),
		Fee:               fee,
		WrappedNative:     wrapped,
	}, nil
}
