package search

import (
	"fmt"

	"github.com/wricardo/mcp-training/slpu/game/engine"
)

// Players is the only player count the search supports. The target is the
// last player.
const Players = 2

// Options tune one search. They are stored as JSON search profiles.
type Options struct {
	Name              string       `json:"name"`
	Description       string       `json:"description,omitempty"`
	Players           int          `json:"players"`
	Attempts          int          `json:"attempts"`
	MaxRolls          int          `json:"max_rolls"`
	CoverageThreshold float64      `json:"coverage_threshold"`
	Rules             engine.Rules `json:"rules"`
	// Seed fixes the random source; 0 picks a fresh seed per search
	Seed int64 `json:"seed,omitempty"`
}

// DefaultOptions returns the built-in default profile
func DefaultOptions() Options {
	return Options{
		Name:              "default",
		Description:       "Balanced search: 10000 attempts of up to 200 rolls, stop at 50% coverage",
		Players:           Players,
		Attempts:          10000,
		MaxRolls:          200,
		CoverageThreshold: 0.5,
		Rules:             engine.DefaultRules,
	}
}

// Target is the player index the search wants to win
func (o Options) Target() int {
	return o.Players - 1
}

// withDefaults fills zero values from DefaultOptions
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Players == 0 {
		o.Players = def.Players
	}
	if o.Attempts == 0 {
		o.Attempts = def.Attempts
	}
	if o.MaxRolls == 0 {
		o.MaxRolls = def.MaxRolls
	}
	if o.Rules == "" {
		o.Rules = def.Rules
	}
	return o
}

// Normalize fills unset fields and validates the result
func Normalize(o Options) (Options, error) {
	o = o.withDefaults()
	if err := ValidateOptions(&o); err != nil {
		return Options{}, err
	}
	return o, nil
}

// ValidateOptions validates a search profile
func ValidateOptions(o *Options) error {
	if o == nil {
		return fmt.Errorf("options cannot be nil")
	}
	if o.Players != Players {
		return fmt.Errorf("players must be %d, got %d", Players, o.Players)
	}
	if o.Attempts < 1 {
		return fmt.Errorf("attempts must be positive, got %d", o.Attempts)
	}
	if o.Attempts > 1_000_000 {
		return fmt.Errorf("attempts must be at most 1000000, got %d", o.Attempts)
	}
	if o.MaxRolls < 1 {
		return fmt.Errorf("max_rolls must be positive, got %d", o.MaxRolls)
	}
	if o.MaxRolls > 10_000 {
		return fmt.Errorf("max_rolls must be at most 10000, got %d", o.MaxRolls)
	}
	if o.CoverageThreshold < 0 || o.CoverageThreshold > 1 {
		return fmt.Errorf("coverage_threshold must be between 0 and 1, got %g", o.CoverageThreshold)
	}
	if err := engine.ValidateRules(o.Rules); err != nil {
		return err
	}
	return nil
}
