package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/shootbench/internal/numdiff"
)

const (
	DefaultTrials   = 5000
	DefaultNodes    = 200
	DefaultMaxIter  = 1
	DefaultScale    = 10.0
	DefaultModifier = 1e4
	DefaultLogLevel = "info"
	DefaultDataDir  = ".shootbench"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		panic(fmt.Sprintf("config: register loglevel validation: %v", err))
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	var level slog.Level
	return level.UnmarshalText([]byte(fl.Field().String())) == nil
}

type Config struct {
	Trials          int             `yaml:"trials" validate:"gte=1"`
	Nodes           int             `yaml:"nodes" validate:"gte=1"`
	MaxIter         int             `yaml:"max_iter" validate:"gte=1"`
	X0              []float64       `yaml:"x0" validate:"len=3"`
	Implementations []string        `yaml:"implementations" validate:"min=1,dive,oneof=native boxed derived lqr"`
	Reference       ReferenceConfig `yaml:"reference"`
	Verify          VerifyConfig    `yaml:"verify"`
	LogLevel        string          `yaml:"log_level" validate:"loglevel"`
	DataDir         string          `yaml:"data_dir"`
}

// ReferenceConfig names the reference command. An empty command means the
// sibling reference binary, skipped when it is not installed.
type ReferenceConfig struct {
	Command []string `yaml:"command"`
}

type VerifyConfig struct {
	Disturbance float64 `yaml:"disturbance" validate:"gte=0"`
	Scale       float64 `yaml:"scale" validate:"gt=0"`
	Modifier    float64 `yaml:"modifier" validate:"gt=0"`
	Scheme      string  `yaml:"scheme" validate:"oneof=forward central"`
	Seed        int64   `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Trials:          DefaultTrials,
		Nodes:           DefaultNodes,
		MaxIter:         DefaultMaxIter,
		X0:              []float64{1, 0, 0},
		Implementations: []string{"native", "boxed", "derived"},
		Verify: VerifyConfig{
			Scale:    DefaultScale,
			Modifier: DefaultModifier,
			Scheme:   numdiff.Forward.String(),
		},
		LogLevel: DefaultLogLevel,
		DataDir:  DefaultDataDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	return validate.Struct(c)
}

// NumDiff returns the scaled finite-difference configuration.
func (c *Config) NumDiff() (numdiff.Config, error) {
	scheme, err := numdiff.ParseScheme(c.Verify.Scheme)
	if err != nil {
		return numdiff.Config{}, err
	}
	nd := numdiff.Config{Disturbance: c.Verify.Disturbance, Scheme: scheme}
	if nd.Disturbance == 0 {
		nd.Disturbance = numdiff.DefaultDisturbance
	}
	return nd.Scaled(c.Verify.Scale), nil
}

func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
