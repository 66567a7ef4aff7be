// Command analyze prints quick, human-readable heuristics about SVG boards.
// For each file it reports the decoded dimensions, the ladders and snakes,
// the validation verdict and snake heads near the goal, which the validator
// tolerates. With --attempts it also runs a sample roll search.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/slpu/game/board"
	"github.com/wricardo/mcp-training/slpu/game/engine"
	"github.com/wricardo/mcp-training/slpu/game/search"
)

// goalZone is how many squares before the goal are checked for snake heads
const goalZone = 64

// AnalysisOptions controls the optional sample search
type AnalysisOptions struct {
	Attempts int
	Seed     int64
	Rules    engine.Rules
}

// BoardStats summarizes the transitions of a decoded board
type BoardStats struct {
	Ladders        []board.Transition
	Snakes         []board.Transition
	Relative       []board.Transition
	LongestLadder  *board.Transition
	LongestSnake   *board.Transition
	GoalZoneSnakes []board.Transition
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Print heuristics about Snakes and Ladders SVG boards",
		ArgsUsage: "[board.svg ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "glob",
				Value: "boards/*.svg",
				Usage: "Boards to analyze when no files are given",
			},
			&cli.IntFlag{
				Name:  "attempts",
				Usage: "Run a sample search with this many attempts (0 skips the search)",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Value: 1,
				Usage: "Seed for the sample search",
			},
			&cli.StringFlag{
				Name:  "rules",
				Value: string(engine.DefaultRules),
				Usage: "Rule set for the sample search (powerup or classic)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				matches, err := filepath.Glob(cmd.String("glob"))
				if err != nil {
					return fmt.Errorf("invalid glob: %w", err)
				}
				files = matches
			}
			if len(files) == 0 {
				return cli.Exit("no boards to analyze", 1)
			}

			opts := AnalysisOptions{
				Attempts: int(cmd.Int("attempts")),
				Seed:     cmd.Int64("seed"),
				Rules:    engine.Rules(cmd.String("rules")),
			}

			failed := 0
			for _, file := range files {
				fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
				if err := analyzeFile(ctx, os.Stdout, file, opts); err != nil {
					failed++
				}
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d boards failed", failed, len(files)), 1)
			}
			return nil
		},
	}
}

func analyzeFile(ctx context.Context, w io.Writer, path string, opts AnalysisOptions) error {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(w, "Error reading file: %v\n", err)
		return err
	}
	defer f.Close()
	return analyzeBoard(ctx, w, f, opts)
}

// analyzeBoard prints the report for one board and returns the decode or
// validation error, if any.
func analyzeBoard(ctx context.Context, w io.Writer, r io.Reader, opts AnalysisOptions) error {
	b, err := board.Decode(r)
	if err != nil {
		fmt.Fprintf(w, "❌ Malformed board: %v\n", err)
		return err
	}

	fmt.Fprintf(w, "Grid: %d x %d\n", b.Width, b.Height)
	fmt.Fprintf(w, "Squares: %d\n", b.Size)

	stats := collectStats(b)
	fmt.Fprintf(w, "Ladders: %d, Snakes: %d", len(stats.Ladders), len(stats.Snakes))
	if len(stats.Relative) > 0 {
		fmt.Fprintf(w, ", Relative: %d", len(stats.Relative))
	}
	fmt.Fprintln(w)
	if stats.LongestLadder != nil {
		fmt.Fprintf(w, "Longest ladder: %d -> %d (+%d)\n", stats.LongestLadder.From, stats.LongestLadder.To, stats.LongestLadder.To-stats.LongestLadder.From)
	}
	if stats.LongestSnake != nil {
		fmt.Fprintf(w, "Longest snake: %d -> %d (-%d)\n", stats.LongestSnake.From, stats.LongestSnake.To, stats.LongestSnake.From-stats.LongestSnake.To)
	}
	fmt.Fprintf(w, "Touched squares: %d of %d allowed\n", b.TouchedSquares(), b.Size/4)

	if err := board.Validate(b); err != nil {
		fmt.Fprintf(w, "❌ INVALID: %v\n", err)
		return err
	}
	fmt.Fprintln(w, "✅ Board is valid")

	if len(stats.GoalZoneSnakes) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d snakes start in the last %d squares\n", len(stats.GoalZoneSnakes), goalZone)
		for i, t := range stats.GoalZoneSnakes {
			if i < 5 {
				fmt.Fprintf(w, "   Snake: %d -> %d\n", t.From, t.To)
			}
		}
		if len(stats.GoalZoneSnakes) > 5 {
			fmt.Fprintf(w, "   ... and %d more\n", len(stats.GoalZoneSnakes)-5)
		}
	}

	if opts.Attempts > 0 {
		return sampleSearch(ctx, w, b, opts)
	}
	return nil
}

func collectStats(b *board.Board) BoardStats {
	var stats BoardStats

	for i := range b.Transitions {
		t := b.Transitions[i]
		switch {
		case t.Kind != board.Direct:
			stats.Relative = append(stats.Relative, t)
		case t.To > t.From:
			stats.Ladders = append(stats.Ladders, t)
			if stats.LongestLadder == nil || t.To-t.From > stats.LongestLadder.To-stats.LongestLadder.From {
				stats.LongestLadder = &b.Transitions[i]
			}
		default:
			stats.Snakes = append(stats.Snakes, t)
			if stats.LongestSnake == nil || t.From-t.To > stats.LongestSnake.From-stats.LongestSnake.To {
				stats.LongestSnake = &b.Transitions[i]
			}
			if t.From > b.Size-goalZone {
				stats.GoalZoneSnakes = append(stats.GoalZoneSnakes, t)
			}
		}
	}

	sort.Slice(stats.GoalZoneSnakes, func(i, j int) bool {
		return stats.GoalZoneSnakes[i].From > stats.GoalZoneSnakes[j].From
	})
	return stats
}

func sampleSearch(ctx context.Context, w io.Writer, b *board.Board, opts AnalysisOptions) error {
	profile := search.DefaultOptions()
	profile.Attempts = opts.Attempts
	profile.Seed = opts.Seed
	profile.Rules = opts.Rules

	result, err := search.Search(ctx, b, profile)
	if errors.Is(err, search.ErrSearchExhausted) {
		fmt.Fprintf(w, "⚠️  No winning sequence in %d attempts\n", result.Attempts)
		return nil
	}
	if err != nil {
		fmt.Fprintf(w, "❌ Search failed: %v\n", err)
		return err
	}

	fmt.Fprintf(w, "Sample search (%d attempts, seed %d):\n", result.Attempts, result.Seed)
	fmt.Fprintf(w, "   Rolls: %d, Winner: player %d\n", len(result.Rolls), result.Winner+1)
	fmt.Fprintf(w, "   Coverage: %.1f%% (%d squares visited)\n", result.Coverage*100, result.Visited)
	return nil
}
