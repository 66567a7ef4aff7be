package search

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/wricardo/mcp-training/slpu/game/board"
	"github.com/wricardo/mcp-training/slpu/game/engine"
)

// ErrSearchExhausted is returned when no attempt produced a win for the target player
var ErrSearchExhausted = errors.New("search exhausted without a winning sequence")

// Candidate is one sampled roll sequence, played until someone won or the
// roll cap was hit.
type Candidate struct {
	Attempt int
	Rolls   []int
	Winner  int
}

// Candidates lazily produces one candidate per attempt
type Candidates struct {
	board   *board.Board
	opts    Options
	rng     *rand.Rand
	attempt int
}

// NewCandidates creates an iterator over at most opts.Attempts candidates
func NewCandidates(b *board.Board, opts Options, rng *rand.Rand) *Candidates {
	return &Candidates{board: b, opts: opts, rng: rng}
}

// Next samples the next candidate. It returns false once the attempt budget is spent.
func (c *Candidates) Next() (Candidate, bool, error) {
	if c.attempt >= c.opts.Attempts {
		return Candidate{}, false, nil
	}
	c.attempt++

	g, err := engine.NewGame(c.board, c.opts.Players, c.opts.Rules)
	if err != nil {
		return Candidate{}, false, err
	}
	for i := 0; i < c.opts.MaxRolls && !g.Over(); i++ {
		if _, err := g.Play(engine.MinRoll + c.rng.Intn(engine.MaxRoll)); err != nil {
			return Candidate{}, false, err
		}
	}

	return Candidate{Attempt: c.attempt, Rolls: g.Rolls(), Winner: g.Winner()}, true, nil
}

// Attempts is the number of candidates produced so far
func (c *Candidates) Attempts() int {
	return c.attempt
}

// Result is the best sequence found by a search
type Result struct {
	Rolls      []int         `json:"rolls"`
	Coverage   float64       `json:"coverage"`
	Winner     int           `json:"winner"`
	Visited    int           `json:"visited"`
	Attempts   int           `json:"attempts"`
	Qualifying int           `json:"qualifying"`
	EarlyStop  bool          `json:"early_stop"`
	Seed       int64         `json:"seed"`
	Duration   time.Duration `json:"duration"`
}

// Found reports whether a winning sequence was retained
func (r *Result) Found() bool {
	return len(r.Rolls) > 0
}

// Digits renders the rolls as the response text, empty when nothing was found
func (r *Result) Digits() string {
	return engine.FormatRolls(r.Rolls)
}

// Search samples random roll sequences and keeps the one that makes the last
// player win with the highest coverage. The result is never nil; when no
// sequence qualifies it carries empty rolls alongside ErrSearchExhausted.
// Cancelling ctx stops the search between attempts and returns ctx.Err() with
// the best result so far.
func Search(ctx context.Context, b *board.Board, opts Options) (*Result, error) {
	start := time.Now()
	opts, err := Normalize(opts)
	if err != nil {
		return &Result{Winner: engine.NoWinner}, fmt.Errorf("invalid search options: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	res := &Result{Winner: engine.NoWinner, Seed: seed}
	defer func() { res.Duration = time.Since(start) }()

	candidates := NewCandidates(b, opts, rand.New(rand.NewSource(seed)))
	target := opts.Target()

	for {
		if err := ctx.Err(); err != nil {
			res.Attempts = candidates.Attempts()
			return res, err
		}

		cand, ok, err := candidates.Next()
		if err != nil {
			res.Attempts = candidates.Attempts()
			return res, err
		}
		if !ok {
			break
		}
		if cand.Winner != target {
			continue
		}
		res.Qualifying++

		trace, err := engine.Simulate(b, opts.Players, cand.Rolls, opts.Rules)
		if err != nil {
			res.Attempts = candidates.Attempts()
			return res, err
		}
		if trace.Winner != target {
			continue
		}
		cov := trace.Coverage(b.Size)
		if cov > res.Coverage {
			res.Rolls = trace.Rolls
			res.Coverage = cov
			res.Winner = trace.Winner
			res.Visited = len(trace.Visited)
		}
		if opts.CoverageThreshold > 0 && res.Coverage >= opts.CoverageThreshold {
			res.EarlyStop = true
			break
		}
	}

	res.Attempts = candidates.Attempts()
	if !res.Found() {
		return res, ErrSearchExhausted
	}
	return res, nil
}
