package engine

import "fmt"

// Rules selects the rule set a simulation runs under
type Rules string

const (
	// PowerUp starts players before square 1 and runs the die mode machine
	PowerUp Rules = "powerup"
	// Classic starts players on square 1 with a plain die
	Classic Rules = "classic"
)

// DefaultRules is the rule set used when none is configured
const DefaultRules = PowerUp

// ValidateRules checks that r names a known rule set
func ValidateRules(r Rules) error {
	switch r {
	case PowerUp, Classic:
		return nil
	}
	return fmt.Errorf("unknown rules %q (want %q or %q)", r, PowerUp, Classic)
}

// StartPosition is where every player begins
func (r Rules) StartPosition() int {
	if r == Classic {
		return 1
	}
	return 0
}

// NextMode applies the die mode transition for a roll
func (r Rules) NextMode(mode DieMode, roll int) DieMode {
	if r == Classic {
		return Regular
	}
	switch {
	case mode == Regular && roll == MaxRoll:
		return Boosted
	case mode == Boosted && roll == MinRoll:
		return Regular
	}
	return mode
}
