// Package engine simulates the two-player race game on a decoded board.
//
// The engine package implements the game mechanics including:
//   - Die rolls with a per-player die mode (regular or boosted)
//   - Overshoot bounce off the last square
//   - Transitions (snakes, ladders and relative jumps) applied after landing
//   - Visited-square bookkeeping for coverage scoring
//
// Core Types:
//
// Game holds the running state of one simulation and plays one die value
// per call. Simulate is the pure form: it replays a whole roll sequence and
// returns a Trace with final positions, visited squares and the winner.
//
// Usage:
//
//	b, _ := board.Parse(r)
//	trace, err := engine.Simulate(b, 2, []int{6, 1, 6, 1}, engine.PowerUp)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(trace.Winner, trace.Coverage(b.Size))
//
// Game Rules:
//
// Players move in turn order. The magnitude of a move is the die value in
// regular mode and 2^value in boosted mode. The mode for the NEXT move is
// updated after the magnitude is taken: a 6 rolled in regular mode boosts
// the die, a 1 rolled in boosted mode returns it to regular. A move past the
// last square bounces back by the overshoot. The first player to finish on
// the last square wins.
//
// Two rule sets exist and are never mixed: PowerUp (players start before
// square 1 and the die mode machine is active) and Classic (players start on
// square 1 and the die stays regular).
package engine
