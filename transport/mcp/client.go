package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/slpu/game/engine"
	"github.com/wricardo/mcp-training/slpu/game/service"
)

// Version reported to MCP clients
const Version = "1.0.0"

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			// Searches with large profiles run for several seconds
			Timeout: 2 * time.Minute,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Snakes and Ladders PowerUp Solver",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Snakes and Ladders PowerUp Solver - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Boards are SVG documents: the viewBox gives the grid (32 units per square),
each <line> is a snake or ladder from its first endpoint to its second.
The solver searches for a die-roll sequence where the last of two players
wins while visiting as many squares as possible.

AVAILABLE TOOLS:
- solve_board: Find a roll sequence for an SVG board
- simulate_rolls: Replay a roll sequence and show every turn
- inspect_board: Decode and validate a board without solving
- list_runs / get_run: Browse recorded solve runs
- list_profiles: List search profiles (attempts, roll cap, coverage target)
- game_rules: Movement rules, die modes and board format`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.NewTool("solve_board",
		mcp.WithDescription("Search for a die-roll sequence where the last player wins with high board coverage"),
		mcp.WithString("svg", mcp.Required(), mcp.Description("SVG board document")),
		mcp.WithString("profile", mcp.Description("Search profile name (optional, see list_profiles)")),
		mcp.WithNumber("seed", mcp.Description("Random seed for a reproducible search (optional)")),
	), c.handleSolve)

	c.mcpServer.AddTool(mcp.NewTool("simulate_rolls",
		mcp.WithDescription("Replay a roll sequence on an SVG board and show the per-turn trace"),
		mcp.WithString("svg", mcp.Required(), mcp.Description("SVG board document")),
		mcp.WithString("rolls", mcp.Required(), mcp.Description("Roll digits 1-6 without separators, e.g. 6161")),
		mcp.WithString("rules", mcp.Description("Rule set: powerup (default) or classic")),
	), c.handleSimulate)

	c.mcpServer.AddTool(mcp.NewTool("inspect_board",
		mcp.WithDescription("Decode and validate an SVG board"),
		mcp.WithString("svg", mcp.Required(), mcp.Description("SVG board document")),
	), c.handleInspectBoard)

	c.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recorded solve runs, newest first"),
		mcp.WithString("profile", mcp.Description("Only runs solved with this profile")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 20)")),
	), c.handleListRuns)

	c.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Get details of a recorded run"),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run ID")),
	), c.handleGetRun)

	c.mcpServer.AddTool(mcp.NewTool("list_profiles",
		mcp.WithDescription("List available search profiles"),
	), c.handleListProfiles)

	c.mcpServer.AddTool(mcp.NewTool("game_rules",
		mcp.WithDescription("Explain the movement rules, die modes and SVG board format"),
	), c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Client", service.SourceMCP)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error     string `json:"error"`
			Kind      string `json:"kind"`
			ErrorKind string `json:"error_kind"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error == "" {
			return fmt.Errorf("API error: %d", resp.StatusCode)
		}
		kind := errResp.Kind
		if kind == "" {
			kind = errResp.ErrorKind
		}
		if kind != "" {
			return fmt.Errorf("%s (%s)", errResp.Error, kind)
		}
		return fmt.Errorf("%s", errResp.Error)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleSolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svg, err := request.RequireString("svg")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := service.SolveRequest{
		SVG:     svg,
		Profile: request.GetString("profile", ""),
		Seed:    int64(request.GetInt("seed", 0)),
	}

	var result service.SolveResult
	if err := c.apiCall(ctx, "POST", "/api/solve", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSolveResult(&result)), nil
}

func (c *Client) handleSimulate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svg, err := request.RequireString("svg")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rolls, err := request.RequireString("rolls")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := service.SimulateRequest{
		SVG:   svg,
		Rolls: rolls,
		Rules: engine.Rules(request.GetString("rules", "")),
	}

	var result service.SimulateResult
	if err := c.apiCall(ctx, "POST", "/api/simulate", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSimulateResult(&result)), nil
}

func (c *Client) handleInspectBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svg, err := request.RequireString("svg")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var info service.BoardInfo
	if err := c.apiCall(ctx, "POST", "/api/board", map[string]string{"svg": svg}, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoardInfo(&info)), nil
}

func (c *Client) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprint(request.GetInt("limit", 20)))
	if profile := request.GetString("profile", ""); profile != "" {
		query.Set("profile", profile)
	}

	var response struct {
		Count int            `json:"count"`
		Total int            `json:"total"`
		Runs  []*service.Run `json:"runs"`
	}
	if err := c.apiCall(ctx, "GET", "/api/runs?"+query.Encode(), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recorded Runs (%d of %d):\n\n", response.Count, response.Total)
	for _, run := range response.Runs {
		b.WriteString("- " + formatRunLine(run) + "\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("run_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var run service.Run
	if err := c.apiCall(ctx, "GET", "/api/runs/"+url.PathEscape(id), nil, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRun(&run)), nil
}

func (c *Client) handleListProfiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var profiles []service.ProfileInfo
	if err := c.apiCall(ctx, "GET", "/api/profiles", nil, &profiles); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Profiles:\n\n")
	for _, p := range profiles {
		fmt.Fprintf(&b, "• %s\n  %s\n  Attempts: %d, Max rolls: %d, Coverage target: %.0f%%, Rules: %s\n\n",
			p.ProfileID, p.Description, p.Attempts, p.MaxRolls, p.CoverageThreshold*100, p.Rules)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameRules), nil
}

const gameRules = `Snakes and Ladders PowerUp - Rules

BOARD:
• The SVG viewBox is width x height units; every square is 32 units
• Width and height are 16 to 32 squares, height is even
• Square 1 is bottom-left; rows alternate direction (left to right on the
  bottom row, right to left on the next, and so on)
• Each <line> is a transition from the square under (x1,y1) to the square
  under (x2,y2): a ladder when it goes up, a snake when it goes down

VALID BOARDS:
• No transition touches square 1 or the last square
• No two transitions share a square
• At most a quarter of the squares are touched by transitions

MOVEMENT (powerup rules):
• Players start before square 1 and move in turn
• The die is regular or boosted. A regular roll moves that many squares;
  a boosted roll r moves 2^r squares
• Rolling 6 on a regular die boosts the next move; rolling 1 on a boosted
  die returns it to regular
• Overshooting the last square bounces back by the excess
• Landing on a transition moves the player to its end square
• Reaching the last square exactly wins

CLASSIC RULES:
• Players start on square 1, the die is always regular

SOLVING:
• The solver wants the last of two players to win
• Coverage is the share of squares visited by any player`

// Formatting helpers

func formatSolveResult(result *service.SolveResult) string {
	var b strings.Builder
	if result.Rolls == "" {
		b.WriteString("No winning roll sequence found.\n")
	} else {
		fmt.Fprintf(&b, "Rolls: %s\n", result.Rolls)
	}
	if result.Run != nil {
		b.WriteString(formatRun(result.Run))
	}
	return b.String()
}

func formatSimulateResult(result *service.SimulateResult) string {
	var b strings.Builder
	trace := result.Trace

	fmt.Fprintf(&b, "Board size: %d, Players: %d, Rules: %s\n", result.BoardSize, result.Players, result.Rules)
	if trace == nil {
		return b.String()
	}

	if trace.Winner == engine.NoWinner {
		fmt.Fprintf(&b, "No winner after %d rolls\n", trace.RollsUsed)
	} else {
		fmt.Fprintf(&b, "Winner: player %d after %d rolls\n", trace.Winner+1, trace.RollsUsed)
	}
	fmt.Fprintf(&b, "Coverage: %.1f%% (%d squares)\n", result.Coverage*100, len(trace.Visited))
	for i, pos := range trace.Positions {
		fmt.Fprintf(&b, "Player %d: square %d (%s)\n", i+1, pos, trace.Modes[i])
	}

	if len(trace.Steps) > 0 {
		b.WriteString("\nTurns:\n")
		for _, step := range trace.Steps {
			b.WriteString(formatStepLine(step) + "\n")
		}
	}
	return b.String()
}

func formatStepLine(step engine.Step) string {
	line := fmt.Sprintf("%3d. P%d rolls %d (%s) moves %d: %d -> %d",
		step.Turn, step.Player+1, step.Roll, step.ModeBefore, step.Magnitude, step.From, step.Landed)
	if step.Bounced {
		line += " (bounced)"
	}
	if step.Transition {
		line += fmt.Sprintf(" -> %d", step.To)
	}
	if step.ModeAfter != step.ModeBefore {
		line += fmt.Sprintf(" [%s]", step.ModeAfter)
	}
	if step.Won {
		line += " WIN"
	}
	return line
}

func formatBoardInfo(info *service.BoardInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Board: %dx%d squares (%d total)\n", info.Width, info.Height, info.Size)
	if info.Valid {
		b.WriteString("Valid: yes\n")
	} else {
		fmt.Fprintf(&b, "Valid: no (%s: %s)\n", info.ErrorKind, info.Error)
	}

	fmt.Fprintf(&b, "Transitions (%d, %d squares touched):\n", len(info.Transitions), info.TouchedSquares)
	for _, t := range info.Transitions {
		kind := "ladder"
		if t.To < t.From {
			kind = "snake"
		}
		fmt.Fprintf(&b, "  %d -> %d (%s)\n", t.From, t.To, kind)
	}
	return b.String()
}

func formatRunLine(run *service.Run) string {
	status := fmt.Sprintf("rolls=%d coverage=%.1f%%", len(run.Rolls), run.Coverage*100)
	if run.ErrorKind != "" {
		status = run.ErrorKind
	}
	return fmt.Sprintf("%s [%s] profile=%s board=%d %s (%s)",
		run.ID, run.Source, run.Profile, run.BoardSize, status, run.CreatedAt.Format("15:04:05"))
}

func formatRun(run *service.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", run.ID)
	fmt.Fprintf(&b, "Profile: %s, Source: %s\n", run.Profile, run.Source)
	fmt.Fprintf(&b, "Board: %dx%d (%d squares, %d transitions)\n",
		run.BoardWidth, run.BoardHeight, run.BoardSize, run.Transitions)
	if run.Error != "" {
		fmt.Fprintf(&b, "Error: %s (%s)\n", run.Error, run.ErrorKind)
	}
	if run.Rolls != "" {
		fmt.Fprintf(&b, "Rolls: %s (%d)\n", run.Rolls, len(run.Rolls))
		fmt.Fprintf(&b, "Coverage: %.1f%%, Winner: player %d\n", run.Coverage*100, run.Winner+1)
	}
	fmt.Fprintf(&b, "Attempts: %d (%d qualifying), Seed: %d, Duration: %s\n",
		run.Attempts, run.Qualifying, run.Seed, run.Duration)
	return b.String()
}
