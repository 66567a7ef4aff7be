package engine

import "slices"

// DieMode is a player's current die state
type DieMode string

const (
	Regular DieMode = "regular"
	Boosted DieMode = "boosted"

	// NoWinner marks a trace whose rolls ran out before anyone finished
	NoWinner = -1

	MinRoll = 1
	MaxRoll = 6
)

// Player is the state of one player during a simulation
type Player struct {
	Position int     `json:"position"`
	Mode     DieMode `json:"mode"`
}

// Step records a single turn
type Step struct {
	Turn       int     `json:"turn"`
	Player     int     `json:"player"`
	Roll       int     `json:"roll"`
	ModeBefore DieMode `json:"mode_before"`
	ModeAfter  DieMode `json:"mode_after"`
	Magnitude  int     `json:"magnitude"`
	From       int     `json:"from"`
	Landed     int     `json:"landed"`
	To         int     `json:"to"`
	Transition bool    `json:"transition,omitempty"`
	Bounced    bool    `json:"bounced,omitempty"`
	Won        bool    `json:"won,omitempty"`
}

// Trace is the outcome of a simulation
type Trace struct {
	Rolls     []int     `json:"rolls"`
	Positions []int     `json:"positions"`
	Modes     []DieMode `json:"modes"`
	Visited   []int     `json:"visited"`
	Winner    int       `json:"winner"`
	RollsUsed int       `json:"rolls_used"`
	Steps     []Step    `json:"steps,omitempty"`
}

// HasWinner reports whether someone finished on the last square
func (t *Trace) HasWinner() bool {
	return t.Winner != NoWinner
}

// Coverage is the fraction of the board's squares visited
func (t *Trace) Coverage(size int) float64 {
	if size <= 0 {
		return 0
	}
	return float64(len(t.Visited)) / float64(size)
}

// WasVisited reports whether square appears in the visited set
func (t *Trace) WasVisited(square int) bool {
	_, found := slices.BinarySearch(t.Visited, square)
	return found
}
