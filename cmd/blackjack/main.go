package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/lox/blackjackforbots/cmd/blackjack/shared"
	"github.com/lox/blackjackforbots/internal/config"
	"github.com/lox/blackjackforbots/internal/store"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Config  string `short:"c" default:"blackjack.hcl" help:"Path to the HCL config file (missing file uses defaults)"`
	Debug   bool   `help:"Enable debug logging"`
	LogJSON bool   `name:"log-json" help:"Emit structured JSON logs"`
	Seed    int64  `env:"BLACKJACK_SEED" help:"RNG seed overriding the config file; 0 keeps the configured seed"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" help:"Play blackjack interactively in the terminal"`
	Simulate SimulateCmd      `cmd:"" help:"Simulate many rounds with a built-in policy"`
	Train    TrainCmd         `cmd:"" help:"Train a Q-learning policy"`
	Eval     EvalCmd          `cmd:"" help:"Evaluate a trained Q-table greedily"`
	Serve    ServeCmd         `cmd:"" help:"Run the WebSocket agent gateway"`
	Remote   RemoteCmd        `cmd:"" help:"Play rounds against a running gateway"`
}

func main() {
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Blackjack environment, simulator and Q-learning trainer for bots"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}

// Logger builds the zerolog logger selected by the flags.
func (g *Globals) Logger() zerolog.Logger {
	if g.LogJSON {
		return shared.SetupStructuredLogger(g.Debug)
	}
	return shared.SetupLogger(g.Debug)
}

// LoadConfig reads the config file, applies the seed override and validates
// the result.
func (g *Globals) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Seed != 0 {
		cfg.Seed = g.Seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", g.Config, err)
	}
	return cfg, nil
}

// openStore connects and migrates when dsn is set. A nil DB means results
// are not persisted.
func openStore(ctx context.Context, dsn string, logger zerolog.Logger) (*store.DB, error) {
	if dsn == "" {
		return nil, nil
	}
	db, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := store.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Debug().Msg("Connected to results database")
	return db, nil
}
