package solver

import (
	"errors"
	"fmt"

	"github.com/lox/blackjackforbots/internal/game"
)

// Params are the learning hyper-parameters of a QPolicy.
type Params struct {
	// LearningRate is the step size α of the update.
	LearningRate float64 `json:"learning_rate"`

	// Discount is γ, applied to the next state's best value.
	Discount float64 `json:"discount"`

	// InitialEpsilon is the exploration rate before the first episode
	// completes; EpsilonAt takes over afterwards.
	InitialEpsilon float64 `json:"initial_epsilon"`

	// Counting appends the count bin to table keys. It must match between
	// training and evaluation or lookups silently miss.
	Counting bool `json:"counting"`
}

// Validate ensures the parameters are in range.
func (p Params) Validate() error {
	if p.LearningRate <= 0 || p.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1], got %v", p.LearningRate)
	}
	if p.Discount < 0 || p.Discount > 1 {
		return fmt.Errorf("discount must be in [0, 1], got %v", p.Discount)
	}
	if p.InitialEpsilon < 0 || p.InitialEpsilon > 1 {
		return fmt.Errorf("initial epsilon must be in [0, 1], got %v", p.InitialEpsilon)
	}
	return nil
}

// DefaultParams returns the parameters used by the train command.
func DefaultParams() Params {
	return Params{
		LearningRate:   0.01,
		Discount:       0.95,
		InitialEpsilon: 1.0,
	}
}

// TrainingConfig aggregates parameters that control a training run.
type TrainingConfig struct {
	Episodes      int         `json:"episodes"`
	Seed          int64       `json:"seed"`
	ProgressEvery int         `json:"progress_every"`
	Params        Params      `json:"params"`
	Env           game.Config `json:"env"`
}

// Validate ensures the training parameters are safe to use.
func (c TrainingConfig) Validate() error {
	if c.Episodes <= 0 {
		return errors.New("episodes must be > 0")
	}
	if c.ProgressEvery < 0 {
		return errors.New("progress interval cannot be negative")
	}
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.Params.Counting != c.Env.Counting {
		return errors.New("policy counting must match the environment counting setting")
	}
	return c.Env.Validate()
}

// DefaultTrainingConfig returns a configuration for local experimentation.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Episodes:      100000,
		Seed:          1,
		ProgressEvery: 0,
		Params:        DefaultParams(),
		Env:           game.DefaultConfig(),
	}
}
