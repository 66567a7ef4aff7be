// Package service provides the business logic layer of the solver.
//
// The service package implements:
//   - Solving: decode, validate and search a board in one call
//   - Replaying a roll sequence with a full per-turn trace
//   - Board inspection without a search
//   - Run history and search profile access
//
// Core Interfaces:
//
// SolverService is the interface every transport (HTTP, WebSocket, MCP, CLI)
// talks to. RunStore keeps the history of solve runs. ProfileManager loads
// and stores search profiles.
//
// Usage:
//
//	profiles, _ := config.NewManager("configs")
//	solver := service.NewSolverService(runs.NewManager(), profiles)
//
//	result, err := solver.Solve(ctx, service.SolveRequest{SVG: doc})
//	if err != nil {
//		// rejected board: result.Run records why
//	}
//	fmt.Println(result.Rolls)
//
// Errors:
//
// Board errors keep their types (*board.MalformedBoardError,
// *board.InvalidTransitionError); ErrorKind maps them to the short codes
// stored on runs. An exhausted search is not an error: the result carries
// empty rolls and the run records the kind "search_exhausted".
package service
