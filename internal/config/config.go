package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/DoyleJ11/pfn-backend/internal/engine"
)

type Config struct {
	Port           string        `env:"PORT,default=8080"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
	Development    bool          `env:"DEV,default=false"`
	TurnSeconds    int           `env:"TURN_SECONDS,default=60"`
	PlayersPerTeam int           `env:"PLAYERS_PER_TEAM,default=2"`
	ClampPenalty   bool          `env:"CLAMP_PENALTY,default=false"`
	DeckSize       int           `env:"DECK_SIZE,default=0"`
	CardsFile      string        `env:"CARDS_FILE"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	TickInterval   time.Duration `env:"TICK_INTERVAL,default=1s"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS,default=*"`
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("failed to decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.TurnSeconds <= 0 {
		return fmt.Errorf("TURN_SECONDS must be positive, got %d", c.TurnSeconds)
	}
	if c.PlayersPerTeam < 1 {
		return fmt.Errorf("PLAYERS_PER_TEAM must be at least 1, got %d", c.PlayersPerTeam)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	return nil
}

func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// NewGameState is the lobby every new room starts from.
func (c Config) NewGameState(cards []engine.Card) engine.State {
	s := engine.NewEmptyState()
	s.TurnSeconds = c.TurnSeconds
	s.RemainingSeconds = c.TurnSeconds
	s.Rules = engine.Rules{PlayersPerTeam: c.PlayersPerTeam, ClampPenalty: c.ClampPenalty}
	s.AllCards = append(s.AllCards, cards...)
	return s
}
