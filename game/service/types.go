package service

import (
	"github.com/wricardo/mcp-training/slpu/game/board"
	"github.com/wricardo/mcp-training/slpu/game/engine"
)

// Error kinds recorded on runs and returned by the JSON API
const (
	KindMalformedBoard    = "malformed_board"
	KindInvalidTransition = "invalid_transition"
	KindSearchExhausted   = "search_exhausted"
	KindCancelled         = "cancelled"
)

// Run sources
const (
	SourceSVG = "slpu"
	SourceAPI = "api"
	SourceMCP = "mcp"
	SourceCLI = "cli"
)

// SolveRequest asks for a winning roll sequence for an SVG board
type SolveRequest struct {
	SVG       string `json:"svg"`
	Profile   string `json:"profile,omitempty"`
	Seed      int64  `json:"seed,omitempty"`
	RequestID string `json:"-"`
	Source    string `json:"-"`
}

// SolveResult is the outcome of a solve. Rolls is empty when the board was
// rejected or no sequence was found.
type SolveResult struct {
	Rolls string     `json:"rolls"`
	Run   *Run       `json:"run"`
	Board *BoardInfo `json:"board,omitempty"`
}

// SimulateRequest replays rolls on a board given either as SVG or as JSON
type SimulateRequest struct {
	SVG     string       `json:"svg,omitempty"`
	Board   *board.Board `json:"board,omitempty"`
	Rolls   string       `json:"rolls"`
	Players int          `json:"players,omitempty"`
	Rules   engine.Rules `json:"rules,omitempty"`
}

// SimulateResult is the full trace of a replay
type SimulateResult struct {
	BoardSize int           `json:"board_size"`
	Players   int           `json:"players"`
	Rules     engine.Rules  `json:"rules"`
	Coverage  float64       `json:"coverage"`
	Trace     *engine.Trace `json:"trace"`
}

// BoardInfo describes a decoded board and whether it passed validation
type BoardInfo struct {
	Width          int                `json:"width"`
	Height         int                `json:"height"`
	Size           int                `json:"size"`
	Transitions    []board.Transition `json:"transitions"`
	TouchedSquares int                `json:"touched_squares"`
	Valid          bool               `json:"valid"`
	Error          string             `json:"error,omitempty"`
	ErrorKind      string             `json:"error_kind,omitempty"`
}

// ProfileInfo provides information about a search profile
type ProfileInfo struct {
	Filename          string       `json:"filename"`
	ProfileID         string       `json:"profile_id"` // The identifier to use in ?profile=
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	Attempts          int          `json:"attempts"`
	MaxRolls          int          `json:"max_rolls"`
	CoverageThreshold float64      `json:"coverage_threshold"`
	Rules             engine.Rules `json:"rules"`
}
