// Package api provides the HTTP surface of the solver.
//
// Endpoints:
//
// Solving:
//   - POST /slpu - SVG board in, SVG document out. The answer is always
//     200 with content type image/svg+xml; the <text> element holds the
//     roll digits, or nothing when the board was rejected or no sequence
//     was found. Optional ?profile=<name> and ?seed=<n>.
//   - POST /api/solve - {"svg", "profile", "seed"} returns rolls, the
//     recorded run and the decoded board
//   - POST /api/simulate - {"svg"|"board", "rolls", "players", "rules"}
//     replays rolls and returns the full trace and coverage
//   - POST /api/board - raw SVG or {"svg"}; returns the decoded board
//
// Run history:
//   - GET /api/runs - ?profile= and ?limit= filters, newest first
//   - GET /api/runs/{id}
//   - DELETE /api/runs/{id}
//
// Profiles:
//   - GET /api/profiles
//   - GET /api/profiles/{name}
//   - POST /api/profiles - save a search profile
//
// Other:
//   - GET / - plain-text banner
//   - GET /health - liveness
//   - GET /ws?topic=<profile> - live run feed, see package websocket
//
// Errors on the JSON endpoints are returned as {"error", "kind"}:
// 400 for bad requests and profiles, 404 for unknown runs and profiles,
// 422 for malformed boards and invalid transitions.
package api
