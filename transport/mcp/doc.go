// Package mcp exposes the solver to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool calls the REST API of a running
// server and formats the JSON answer as text.
//
// MCP Tools:
//   - solve_board: search for a roll sequence for an SVG board
//   - simulate_rolls: replay a roll sequence with a per-turn trace
//   - inspect_board: decode and validate a board
//   - list_runs, get_run: browse the run history
//   - list_profiles: list search profiles
//   - game_rules: movement rules and board format
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: the server mounts HandleMessage at /mcp
//
// Runs started through MCP are recorded with source "mcp".
package mcp
