package engine

import (
	"errors"
	"fmt"

	"github.com/wricardo/mcp-training/slpu/game/board"
)

var (
	ErrGameOver    = errors.New("game is already over")
	ErrInvalidRoll = errors.New("roll must be between 1 and 6")
)

// Game is the running state of a single simulation.
// A Game is not safe for concurrent use.
type Game struct {
	board   *board.Board
	rules   Rules
	players []Player
	turn    int
	current int
	winner  int
	visited []bool
	count   int
	rolls   []int
}

// NewGame places players on their starting squares
func NewGame(b *board.Board, players int, rules Rules) (*Game, error) {
	if b == nil {
		return nil, fmt.Errorf("board cannot be nil")
	}
	if b.Size < 1 {
		return nil, fmt.Errorf("board size must be positive, got %d", b.Size)
	}
	if players < 1 {
		return nil, fmt.Errorf("need at least one player, got %d", players)
	}
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}

	g := &Game{
		board:   b,
		rules:   rules,
		players: make([]Player, players),
		winner:  NoWinner,
		visited: make([]bool, b.Size+1),
	}
	for i := range g.players {
		g.players[i] = Player{Position: rules.StartPosition(), Mode: Regular}
	}
	return g, nil
}

// Play consumes one die value for the player whose turn it is
func (g *Game) Play(roll int) (Step, error) {
	if g.Over() {
		return Step{}, ErrGameOver
	}
	if roll < MinRoll || roll > MaxRoll {
		return Step{}, fmt.Errorf("%w: got %d", ErrInvalidRoll, roll)
	}

	p := &g.players[g.current]
	step := Step{
		Turn:       g.turn,
		Player:     g.current,
		Roll:       roll,
		ModeBefore: p.Mode,
		From:       p.Position,
	}

	magnitude := Magnitude(p.Mode, roll)
	if g.rules == Classic {
		magnitude = roll
	}
	p.Mode = g.rules.NextMode(p.Mode, roll)

	tentative := p.Position + magnitude
	landed := Bounce(g.board.Size, tentative)
	g.visit(landed)

	final := landed
	if tr, ok := g.board.TransitionAt(landed); ok {
		final = tr.Resolve(magnitude, g.board.Size)
		g.visit(final)
		step.Transition = true
	}
	p.Position = final

	step.ModeAfter = p.Mode
	step.Magnitude = magnitude
	step.Landed = landed
	step.To = final
	step.Bounced = tentative > g.board.Size
	g.rolls = append(g.rolls, roll)
	g.turn++

	if final == g.board.Size {
		g.winner = g.current
		step.Won = true
		return step, nil
	}

	g.current = (g.current + 1) % len(g.players)
	return step, nil
}

func (g *Game) visit(square int) {
	if !g.visited[square] {
		g.visited[square] = true
		g.count++
	}
}

// Over reports whether a player has won
func (g *Game) Over() bool {
	return g.winner != NoWinner
}

// Winner returns the winning player index or NoWinner
func (g *Game) Winner() int {
	return g.winner
}

// Current returns the index of the player to move next
func (g *Game) Current() int {
	return g.current
}

// Players returns a copy of every player's state
func (g *Game) Players() []Player {
	out := make([]Player, len(g.players))
	copy(out, g.players)
	return out
}

// VisitedCount is the number of distinct squares visited so far
func (g *Game) VisitedCount() int {
	return g.count
}

// Rolls returns the die values consumed so far
func (g *Game) Rolls() []int {
	out := make([]int, len(g.rolls))
	copy(out, g.rolls)
	return out
}

// Trace snapshots the game into a Trace without steps
func (g *Game) Trace() *Trace {
	t := &Trace{
		Rolls:     g.Rolls(),
		Positions: make([]int, len(g.players)),
		Modes:     make([]DieMode, len(g.players)),
		Visited:   make([]int, 0, g.count),
		Winner:    g.winner,
		RollsUsed: len(g.rolls),
	}
	for i, p := range g.players {
		t.Positions[i] = p.Position
		t.Modes[i] = p.Mode
	}
	for sq := 1; sq < len(g.visited); sq++ {
		if g.visited[sq] {
			t.Visited = append(t.Visited, sq)
		}
	}
	return t
}

// Simulate plays rolls in order until a player wins or the rolls run out.
// It is deterministic for a given board, player count, roll sequence and rules.
func Simulate(b *board.Board, players int, rolls []int, rules Rules) (*Trace, error) {
	g, err := NewGame(b, players, rules)
	if err != nil {
		return nil, err
	}

	steps := make([]Step, 0, len(rolls))
	for i, roll := range rolls {
		if g.Over() {
			break
		}
		step, err := g.Play(roll)
		if err != nil {
			return nil, fmt.Errorf("roll %d: %w", i+1, err)
		}
		steps = append(steps, step)
	}

	trace := g.Trace()
	trace.Steps = steps
	return trace, nil
}
