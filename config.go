package catalogaccess

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the declarative configuration: engine settings plus seedable rule
// fixtures. Seeds go through the normal write path, so they are validated,
// audited and invalidate caches like any other mutation.
type Config struct {
	Version     uint16        `json:"version" yaml:"version"`
	Engine      EngineConfig  `json:"engine" yaml:"engine"`
	ClientRules []*ClientRule `json:"client_rules" yaml:"client_rules"`
	UserRules   []*UserRule   `json:"user_rules" yaml:"user_rules"`
}

type EngineConfig struct {
	CacheTTL            int64  `json:"cache_ttl_ms" yaml:"cache_ttl_ms"`
	RedisAddr           string `json:"redis_addr" yaml:"redis_addr"`
	RedisKeyPrefix      string `json:"redis_key_prefix" yaml:"redis_key_prefix"`
	RistrettoNumCounter int64  `json:"ristretto_num_counter" yaml:"ristretto_num_counter"`
	RistrettoMaxCost    int64  `json:"ristretto_max_cost" yaml:"ristretto_max_cost"`
	RistrettoBuffer     int64  `json:"ristretto_buffer" yaml:"ristretto_buffer"`
}

// ConfigLoader loads configuration from various formats
type ConfigLoader struct{}

func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

func (l *ConfigLoader) LoadYAML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *ConfigLoader) LoadJSON(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToYAML exports config to YAML
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ToJSON exports config to JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Validate checks seed rules against the enumerations without touching any
// store.
func (c *Config) Validate() error {
	for _, r := range c.ClientRules {
		if r.ClientID == "" {
			return &ValidationError{Field: "client_id", Value: ""}
		}
		if !r.AccessMode.Valid() {
			return &ValidationError{Field: "access_mode", Value: string(r.AccessMode)}
		}
	}
	for _, r := range c.UserRules {
		if r.UserID == "" {
			return &ValidationError{Field: "user_id", Value: ""}
		}
		if !r.AccessMode.Valid() {
			return &ValidationError{Field: "access_mode", Value: string(r.AccessMode)}
		}
		if !r.InheritanceMode.Valid() {
			return &ValidationError{Field: "inheritance_mode", Value: string(r.InheritanceMode)}
		}
	}
	return nil
}

// ApplyConfig applies engine settings and pushes seed rules through the
// engine write path as the given actor.
func (e *Engine) ApplyConfig(ctx context.Context, cfg *Config, actor Actor) error {
	if cfg.Engine.CacheTTL > 0 {
		e.cacheTTL = time.Duration(cfg.Engine.CacheTTL) * time.Millisecond
	}
	for _, r := range cfg.ClientRules {
		if _, err := e.SetClientRule(ctx, r, actor); err != nil {
			return fmt.Errorf("apply client rule %s: %w", r.ClientID, err)
		}
	}
	for _, r := range cfg.UserRules {
		if _, err := e.SetUserRule(ctx, r, actor); err != nil {
			return fmt.Errorf("apply user rule %s: %w", r.UserID, err)
		}
	}
	return nil
}
