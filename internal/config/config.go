// Package config loads the optional blackjack.hcl file shared by the CLI
// commands.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/sdk/solver"
)

// DefaultFile is the config path used when none is given.
const DefaultFile = "blackjack.hcl"

// Config is the resolved configuration with defaults applied.
type Config struct {
	Seed        int64
	Environment EnvironmentConfig
	Training    TrainingConfig
	Evaluation  EvaluationConfig
	Server      ServerConfig
}

// fileConfig is the HCL shape of the file; every block is optional.
type fileConfig struct {
	Seed        int64              `hcl:"seed,optional"`
	Environment *EnvironmentConfig `hcl:"environment,block"`
	Training    *TrainingConfig    `hcl:"training,block"`
	Evaluation  *EvaluationConfig  `hcl:"evaluation,block"`
	Server      *ServerConfig      `hcl:"server,block"`
}

// EnvironmentConfig holds the table rules.
type EnvironmentConfig struct {
	Counting       bool `hcl:"counting,optional"`
	DealerStandOn  int  `hcl:"dealer_stand_on,optional"`
	ReshuffleBelow int  `hcl:"reshuffle_below,optional"`
	CountThreshold int  `hcl:"count_threshold,optional"`
}

// TrainingConfig holds Q-learning settings. Discount and InitialEpsilon are
// pointers because zero is a meaningful value for both.
type TrainingConfig struct {
	Episodes        int      `hcl:"episodes,optional"`
	LearningRate    float64  `hcl:"learning_rate,optional"`
	Discount        *float64 `hcl:"discount,optional"`
	InitialEpsilon  *float64 `hcl:"initial_epsilon,optional"`
	ProgressEvery   int      `hcl:"progress_every,optional"`
	CheckpointEvery int      `hcl:"checkpoint_every,optional"`
	Output          string   `hcl:"output,optional"`
}

// EvaluationConfig holds simulate/eval settings.
type EvaluationConfig struct {
	Rounds  int `hcl:"rounds,optional"`
	Workers int `hcl:"workers,optional"`
}

// ServerConfig holds agent gateway settings.
type ServerConfig struct {
	Address        string `hcl:"address,optional"`
	MaxConnections int    `hcl:"max_connections,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads filename. A missing file yields Default.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(file.Body)
}

// Parse decodes HCL source held in memory; filename is only used in
// diagnostics.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(file.Body)
}

func decode(body hcl.Body) (*Config, error) {
	var f fileConfig
	if diags := gohcl.DecodeBody(body, nil, &f); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := &Config{Seed: f.Seed}
	if f.Environment != nil {
		cfg.Environment = *f.Environment
	}
	if f.Training != nil {
		cfg.Training = *f.Training
	}
	if f.Evaluation != nil {
		cfg.Evaluation = *f.Evaluation
	}
	if f.Server != nil {
		cfg.Server = *f.Server
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	env := game.DefaultConfig()
	if c.Environment.DealerStandOn == 0 {
		c.Environment.DealerStandOn = env.DealerStandOn
	}
	if c.Environment.ReshuffleBelow == 0 {
		c.Environment.ReshuffleBelow = env.ReshuffleBelow
	}
	if c.Environment.CountThreshold == 0 {
		c.Environment.CountThreshold = env.CountThreshold
	}

	train := solver.DefaultTrainingConfig()
	if c.Training.Episodes == 0 {
		c.Training.Episodes = train.Episodes
	}
	if c.Training.LearningRate == 0 {
		c.Training.LearningRate = train.Params.LearningRate
	}
	if c.Training.Discount == nil {
		c.Training.Discount = &train.Params.Discount
	}
	if c.Training.InitialEpsilon == nil {
		c.Training.InitialEpsilon = &train.Params.InitialEpsilon
	}
	if c.Training.Output == "" {
		c.Training.Output = "qtable.json.gz"
	}

	if c.Evaluation.Rounds == 0 {
		c.Evaluation.Rounds = 100000
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost:8080"
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = 64
	}
}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if err := c.Game().Validate(); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if err := c.Solver().Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if c.Training.CheckpointEvery < 0 {
		return fmt.Errorf("training: checkpoint_every cannot be negative")
	}
	if c.Evaluation.Rounds <= 0 {
		return fmt.Errorf("evaluation: rounds must be > 0")
	}
	if c.Evaluation.Workers < 0 {
		return fmt.Errorf("evaluation: workers cannot be negative")
	}
	if c.Server.MaxConnections <= 0 {
		return fmt.Errorf("server: max_connections must be > 0")
	}
	return nil
}

// Game returns the table rules.
func (c *Config) Game() game.Config {
	return game.Config{
		Counting:       c.Environment.Counting,
		DealerStandOn:  c.Environment.DealerStandOn,
		ReshuffleBelow: c.Environment.ReshuffleBelow,
		CountThreshold: c.Environment.CountThreshold,
	}
}

// Solver returns the training configuration. The policy key scheme always
// follows the environment's counting setting.
func (c *Config) Solver() solver.TrainingConfig {
	return solver.TrainingConfig{
		Episodes:      c.Training.Episodes,
		Seed:          c.Seed,
		ProgressEvery: c.Training.ProgressEvery,
		Params: solver.Params{
			LearningRate:   c.Training.LearningRate,
			Discount:       *c.Training.Discount,
			InitialEpsilon: *c.Training.InitialEpsilon,
			Counting:       c.Environment.Counting,
		},
		Env: c.Game(),
	}
}
