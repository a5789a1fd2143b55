package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/meltforce/gripdose/internal/dosing"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Dosing    DosingConfig    `yaml:"dosing"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DosingConfig holds the curve family, recovery constants, and planner
// defaults. Weights and taus here are global; per-side weight overrides live
// in the dosing_settings table and win when present.
type DosingConfig struct {
	Curve    CurveConfig    `yaml:"curve"`
	Recovery RecoveryConfig `yaml:"recovery"`
	Planner  PlannerConfig  `yaml:"planner"`
	Policy   string         `yaml:"policy"`
}

type CurveConfig struct {
	W1   float64 `yaml:"w1"`
	W2   float64 `yaml:"w2"`
	W3   float64 `yaml:"w3"`
	Tau1 float64 `yaml:"tau1"`
	Tau2 float64 `yaml:"tau2"`
	Tau3 float64 `yaml:"tau3"`
}

type RecoveryConfig struct {
	R1 float64 `yaml:"r1"`
	R2 float64 `yaml:"r2"`
	R3 float64 `yaml:"r3"`
}

type PlannerConfig struct {
	RestRepSec float64 `yaml:"rest_rep_sec"`
	RestSetSec float64 `yaml:"rest_set_sec"`
	CapDrop    float64 `yaml:"cap_drop"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// CurveParams converts the configured curve section to dosing parameters.
func (d DosingConfig) CurveParams() dosing.CurveParams {
	return dosing.CurveParams{
		W1: d.Curve.W1, W2: d.Curve.W2, W3: d.Curve.W3,
		Tau1: d.Curve.Tau1, Tau2: d.Curve.Tau2, Tau3: d.Curve.Tau3,
	}
}

// RecoveryParams converts the configured recovery section.
func (d DosingConfig) RecoveryParams() dosing.RecoveryParams {
	return dosing.RecoveryParams{R1: d.Recovery.R1, R2: d.Recovery.R2, R3: d.Recovery.R3}
}

// DefaultDosing returns the dosing defaults used when the config file omits
// the section: a fast/medium/slow grip fatigue curve and rest intervals
// typical for isometric grip work.
func DefaultDosing() DosingConfig {
	return DosingConfig{
		Curve:    CurveConfig{W1: 0.5, W2: 0.3, W3: 0.2, Tau1: 7, Tau2: 45, Tau3: 180},
		Recovery: RecoveryConfig{R1: 25, R2: 90, R3: 300},
		Planner:  PlannerConfig{RestRepSec: 60, RestSetSec: 180, CapDrop: 0.05},
		Policy:   string(dosing.PolicyAverage),
	}
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix GRIPDOSE_ and underscore-separated
// paths:
//
//	GRIPDOSE_SERVER_HOST, GRIPDOSE_SERVER_PORT,
//	GRIPDOSE_DB_HOST, GRIPDOSE_DB_PORT, GRIPDOSE_DB_NAME,
//	GRIPDOSE_DB_USER, GRIPDOSE_DB_PASSWORD, GRIPDOSE_DB_SSLMODE,
//	GRIPDOSE_AUTH_API_KEY
func Load(path string) (*Config, error) {
	cfg := &Config{Dosing: DefaultDosing()}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRIPDOSE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("GRIPDOSE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GRIPDOSE_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("GRIPDOSE_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("GRIPDOSE_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("GRIPDOSE_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("GRIPDOSE_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("GRIPDOSE_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("GRIPDOSE_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	return c.Dosing.validate()
}

func (d DosingConfig) validate() error {
	cw := d.Curve
	if cw.W1 < 0 || cw.W2 < 0 || cw.W3 < 0 {
		return fmt.Errorf("dosing.curve weights must be non-negative")
	}
	if cw.W1+cw.W2+cw.W3 <= 0 {
		return fmt.Errorf("dosing.curve weights must not all be zero")
	}
	if cw.Tau1 <= 0 || cw.Tau2 <= 0 || cw.Tau3 <= 0 {
		return fmt.Errorf("dosing.curve taus must be positive")
	}
	if d.Recovery.R1 <= 0 || d.Recovery.R2 <= 0 || d.Recovery.R3 <= 0 {
		return fmt.Errorf("dosing.recovery constants must be positive")
	}
	if d.Planner.RestRepSec < 0 || d.Planner.RestSetSec < 0 || d.Planner.CapDrop < 0 {
		return fmt.Errorf("dosing.planner values must be non-negative")
	}
	if _, ok := dosing.ParsePolicy(d.Policy); !ok {
		return fmt.Errorf("dosing.policy must be one of average, min, model, ratio")
	}
	return nil
}
