package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"charge-optimizer/internal/logging"
	"charge-optimizer/internal/model"
	"charge-optimizer/internal/optimizer"
	"charge-optimizer/internal/solver"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Solver      SolverConfig      `yaml:"solver"`
	Formulation FormulationConfig `yaml:"formulation"`
	API         APIConfig         `yaml:"api"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	// Mode is "debug" or "release".
	Mode           string   `yaml:"mode"`
	CORSOrigins    []string `yaml:"cors_origins"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

type SolverConfig struct {
	TimeLimit     Duration `yaml:"time_limit"`
	MIPRelGap     float64  `yaml:"mip_rel_gap"`
	Threads       int      `yaml:"threads"`
	MaxConcurrent int64    `yaml:"max_concurrent"`
	Output        bool     `yaml:"output"`
	// Tolerance bounds the replay residuals (Wh) of an optimal schedule.
	Tolerance float64 `yaml:"tolerance"`
}

type FormulationConfig struct {
	BigMFactor       float64 `yaml:"big_m_factor"`
	ChargeFloor      string  `yaml:"charge_floor"`
	GoalMode         string  `yaml:"goal_mode"`
	StrictInitialSOC bool    `yaml:"strict_initial_soc"`
}

type APIConfig struct {
	// NonOptimalAsError answers non-optimal outcomes with HTTP 500 instead
	// of a 200 body carrying the status.
	NonOptimalAsError *bool `yaml:"non_optimal_as_error"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	NoColor bool   `yaml:"no_color"`
}

// Duration reads YAML strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.applyDefaults()
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadOrDefault loads path, or returns the defaults (with environment
// overrides) when path is empty.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		c := Default()
		c.applyEnv()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil
	}
	return Load(path)
}

// LoadUnchecked loads the file without defaults or validation.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "7050"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Server.RequestTimeout.Duration == 0 {
		c.Server.RequestTimeout.Duration = 60 * time.Second
	}

	def := solver.DefaultOptions()
	if c.Solver.TimeLimit.Duration == 0 {
		c.Solver.TimeLimit.Duration = def.TimeLimit
	}
	if c.Solver.MIPRelGap == 0 {
		c.Solver.MIPRelGap = def.MIPRelGap
	}
	if c.Solver.Threads == 0 {
		c.Solver.Threads = def.Threads
	}
	if c.Solver.MaxConcurrent == 0 {
		c.Solver.MaxConcurrent = def.MaxConcurrent
	}
	if c.Solver.Tolerance == 0 {
		c.Solver.Tolerance = optimizer.DefaultTolerance
	}

	form := optimizer.DefaultOptions()
	if c.Formulation.BigMFactor == 0 {
		c.Formulation.BigMFactor = form.BigMFactor
	}
	if c.Formulation.ChargeFloor == "" {
		c.Formulation.ChargeFloor = string(form.ChargeFloor)
	}
	if c.Formulation.GoalMode == "" {
		c.Formulation.GoalMode = string(form.GoalMode)
	}

	if c.API.NonOptimalAsError == nil {
		v := true
		c.API.NonOptimalAsError = &v
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// applyEnv lets API_PORT, API_ENV and LOG_LEVEL override the file.
func (c *Config) applyEnv() {
	if port := os.Getenv("API_PORT"); port != "" {
		c.Server.Port = port
	}
	if os.Getenv("API_ENV") == "production" {
		c.Server.Mode = "release"
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if p, err := strconv.Atoi(c.Server.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("server.port must be a TCP port, got %q", c.Server.Port)
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" && c.Server.Mode != "test" {
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	if c.Server.RequestTimeout.Duration < 0 {
		return errors.New("server.request_timeout must not be negative")
	}
	if c.Solver.TimeLimit.Duration <= 0 {
		return errors.New("solver.time_limit must be positive")
	}
	if c.Solver.MIPRelGap < 0 || c.Solver.MIPRelGap >= 1 {
		return fmt.Errorf("solver.mip_rel_gap must be in [0, 1), got %g", c.Solver.MIPRelGap)
	}
	if c.Solver.Threads < 0 {
		return errors.New("solver.threads must not be negative")
	}
	if c.Solver.MaxConcurrent < 1 {
		return errors.New("solver.max_concurrent must be at least 1")
	}
	if c.Solver.Tolerance <= 0 {
		return errors.New("solver.tolerance must be positive")
	}
	if err := c.OptimizerConfig().Formulation.Validate(); err != nil {
		return fmt.Errorf("formulation config invalid: %w", err)
	}
	if !logging.IsLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) SolverOptions() solver.Options {
	return solver.Options{
		TimeLimit:     c.Solver.TimeLimit.Duration,
		MIPRelGap:     c.Solver.MIPRelGap,
		Threads:       c.Solver.Threads,
		Output:        c.Solver.Output,
		MaxConcurrent: c.Solver.MaxConcurrent,
	}
}

func (c *Config) OptimizerConfig() optimizer.Config {
	return optimizer.Config{
		Formulation: optimizer.Options{
			ChargeFloor: optimizer.ChargeFloor(c.Formulation.ChargeFloor),
			GoalMode:    optimizer.GoalMode(c.Formulation.GoalMode),
			BigMFactor:  c.Formulation.BigMFactor,
		},
		Validation: model.ValidationOptions{StrictInitialSOC: c.Formulation.StrictInitialSOC},
		Tolerance:  c.Solver.Tolerance,
	}
}

// NonOptimalAsError reports the API status convention; true when unset.
func (c *Config) NonOptimalAsError() bool {
	return c.API.NonOptimalAsError == nil || *c.API.NonOptimalAsError
}
