// Package search finds a die roll sequence that makes the last of two
// players win while visiting as many squares as possible.
//
// The search is a bounded random generate-and-test loop. Candidates samples
// one sequence per attempt, playing it through an engine.Game as it goes;
// sequences won by the target player are replayed with engine.Simulate and
// the one with the best coverage is kept. Options carries the attempt
// budget, the per-attempt roll cap and the coverage threshold that ends the
// search early.
package search
