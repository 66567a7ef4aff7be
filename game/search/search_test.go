package search

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/slpu/game/board"
	"github.com/wricardo/mcp-training/slpu/game/engine"
)

const sampleBoard = `<svg viewBox="0 0 512 512" xmlns="http://www.w3.org/2000/svg">
<defs><marker id="t" viewBox="0 0 10 10"><path d="M 0 0 L 10 5 L 0 10 z"/></marker></defs>
<line x1="224" y1="480" x2="192" y2="448" stroke="blue"/>
<line x1="96" y1="448" x2="64" y2="416" stroke="red"/>
</svg>`

func testOptions(attempts int) Options {
	opts := DefaultOptions()
	opts.Attempts = attempts
	opts.Seed = 42
	return opts
}

func TestSearch_EndToEnd(t *testing.T) {
	b, err := board.Parse(strings.NewReader(sampleBoard))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	res, err := Search(context.Background(), b, testOptions(500))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !res.Found() {
		t.Fatal("Expected a winning sequence")
	}
	if res.Coverage <= 0.25 {
		t.Errorf("Expected coverage above 0.25, got %f", res.Coverage)
	}

	trace, err := engine.Simulate(b, Players, res.Rolls, engine.PowerUp)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if trace.Winner != 1 {
		t.Errorf("Expected player 1 to win the returned sequence, got %d", trace.Winner)
	}
	if trace.RollsUsed != len(res.Rolls) {
		t.Errorf("Expected every roll to be consumed, used %d of %d", trace.RollsUsed, len(res.Rolls))
	}
	if got := trace.Coverage(b.Size); got != res.Coverage {
		t.Errorf("Expected replayed coverage %f, got %f", res.Coverage, got)
	}

	digits := res.Digits()
	if len(digits) != len(res.Rolls) || strings.Trim(digits, "123456") != "" {
		t.Errorf("Expected only die digits, got %q", digits)
	}
}

func TestSearch_EmptyBoard(t *testing.T) {
	res, err := Search(context.Background(), board.New(board.DefaultSize, nil), testOptions(500))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res.Winner != 1 || !res.Found() {
		t.Errorf("Expected a last-player win, got winner %d with %d rolls", res.Winner, len(res.Rolls))
	}
}

func TestSearch_Deterministic(t *testing.T) {
	b := board.New(board.DefaultSize, []board.Transition{{From: 8, To: 26}, {From: 29, To: 35}})
	opts := testOptions(200)

	first, err := Search(context.Background(), b, opts)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	second, err := Search(context.Background(), b, opts)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !reflect.DeepEqual(first.Rolls, second.Rolls) || first.Attempts != second.Attempts {
		t.Error("Expected identical results for the same seed")
	}
	if first.Seed != 42 {
		t.Errorf("Expected seed 42 to be reported, got %d", first.Seed)
	}
}

func TestSearch_EarlyStop(t *testing.T) {
	opts := testOptions(5000)
	opts.CoverageThreshold = 0.05

	res, err := Search(context.Background(), board.New(board.DefaultSize, nil), opts)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !res.EarlyStop {
		t.Error("Expected the threshold to stop the search early")
	}
	if res.Attempts >= opts.Attempts {
		t.Errorf("Expected fewer than %d attempts, got %d", opts.Attempts, res.Attempts)
	}
	if res.Coverage < 0.05 {
		t.Errorf("Expected coverage at or above the threshold, got %f", res.Coverage)
	}
}

func TestSearch_Exhausted(t *testing.T) {
	// one roll per attempt can never finish a 256 square board
	opts := testOptions(50)
	opts.MaxRolls = 1

	res, err := Search(context.Background(), board.New(board.DefaultSize, nil), opts)
	if !errors.Is(err, ErrSearchExhausted) {
		t.Fatalf("Expected ErrSearchExhausted, got %v", err)
	}
	if res == nil || res.Found() || res.Digits() != "" {
		t.Errorf("Expected an empty result, got %+v", res)
	}
	if res.Attempts != 50 {
		t.Errorf("Expected all 50 attempts to be used, got %d", res.Attempts)
	}
}

func TestSearch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Search(ctx, board.New(board.DefaultSize, nil), testOptions(1000))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if res.Attempts != 0 {
		t.Errorf("Expected no attempts after cancellation, got %d", res.Attempts)
	}
}

func TestSearch_InvalidOptions(t *testing.T) {
	opts := testOptions(10)
	opts.Players = 3

	if _, err := Search(context.Background(), board.New(100, nil), opts); err == nil {
		t.Error("Expected error for three players")
	}
}

func TestCandidates(t *testing.T) {
	opts := testOptions(3)
	opts.MaxRolls = 20
	c := NewCandidates(board.New(board.DefaultSize, nil), opts, rand.New(rand.NewSource(1)))

	count := 0
	for {
		cand, ok, err := c.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if !ok {
			break
		}
		count++
		if cand.Attempt != count {
			t.Errorf("Expected attempt %d, got %d", count, cand.Attempt)
		}
		if len(cand.Rolls) == 0 || len(cand.Rolls) > opts.MaxRolls {
			t.Errorf("Expected 1..%d rolls, got %d", opts.MaxRolls, len(cand.Rolls))
		}
		for _, r := range cand.Rolls {
			if r < engine.MinRoll || r > engine.MaxRoll {
				t.Errorf("Roll %d out of range", r)
			}
		}
	}
	if count != 3 {
		t.Errorf("Expected 3 candidates, got %d", count)
	}
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		valid  bool
	}{
		{"default", func(o *Options) {}, true},
		{"classic", func(o *Options) { o.Rules = engine.Classic }, true},
		{"one player", func(o *Options) { o.Players = 1 }, false},
		{"zero attempts", func(o *Options) { o.Attempts = 0 }, false},
		{"zero rolls", func(o *Options) { o.MaxRolls = 0 }, false},
		{"too many rolls", func(o *Options) { o.MaxRolls = 20000 }, false},
		{"negative threshold", func(o *Options) { o.CoverageThreshold = -0.1 }, false},
		{"threshold above one", func(o *Options) { o.CoverageThreshold = 1.5 }, false},
		{"unknown rules", func(o *Options) { o.Rules = "turbo" }, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			opts := DefaultOptions()
			test.modify(&opts)
			err := ValidateOptions(&opts)
			if test.valid && err != nil {
				t.Errorf("Expected valid options, got %v", err)
			}
			if !test.valid && err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	opts, err := Normalize(Options{Name: "partial", Attempts: 25})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if opts.Attempts != 25 || opts.MaxRolls != 200 || opts.Players != Players || opts.Rules != engine.PowerUp {
		t.Errorf("Unexpected normalized options: %+v", opts)
	}
}
