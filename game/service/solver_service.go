package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/slpu/game/board"
	"github.com/wricardo/mcp-training/slpu/game/engine"
	"github.com/wricardo/mcp-training/slpu/game/search"
)

// Solver implements the SolverService interface
type Solver struct {
	runs      RunStore
	profiles  ProfileManager
	listeners []RunListener
	mu        sync.RWMutex
}

var _ SolverService = (*Solver)(nil)

// Replay limits for boards and player counts given as JSON
const (
	MaxPlayers   = 8
	maxBoardSize = board.MaxSide * board.MaxSide
)

// NewSolverService creates a new solver service instance
func NewSolverService(runs RunStore, profiles ProfileManager) *Solver {
	return &Solver{
		runs:     runs,
		profiles: profiles,
	}
}

// OnRun registers a listener called after every recorded run
func (s *Solver) OnRun(listener RunListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Solve decodes and validates the board, searches for a roll sequence and
// records the run. A rejected board returns the recorded result together
// with the board error; an exhausted search is not an error.
func (s *Solver) Solve(ctx context.Context, req SolveRequest) (*SolveResult, error) {
	opts, profileName, err := s.resolveProfile(req.Profile)
	if err != nil {
		return nil, err
	}
	if req.Seed != 0 {
		opts.Seed = req.Seed
	}

	run := &Run{
		RequestID: req.RequestID,
		Source:    req.Source,
		Profile:   profileName,
		Winner:    engine.NoWinner,
	}
	if run.Source == "" {
		run.Source = SourceAPI
	}

	b, info, boardErr := inspect(req.SVG)
	run.BoardWidth = info.Width
	run.BoardHeight = info.Height
	run.BoardSize = info.Size
	run.Transitions = len(info.Transitions)

	if boardErr != nil {
		run.Error = boardErr.Error()
		run.ErrorKind = info.ErrorKind
		recorded := s.record(run)
		log.Printf("[SOLVE] run=%s profile=%s rejected kind=%s: %v", recorded.ID, profileName, info.ErrorKind, boardErr)
		return &SolveResult{Run: recorded, Board: info}, boardErr
	}

	res, err := search.Search(ctx, b, *opts)
	if res != nil {
		run.Rolls = res.Digits()
		run.Coverage = res.Coverage
		run.Winner = res.Winner
		run.Attempts = res.Attempts
		run.Qualifying = res.Qualifying
		run.EarlyStop = res.EarlyStop
		run.Seed = res.Seed
		run.Duration = res.Duration
	}

	switch {
	case err == nil:
	case errors.Is(err, search.ErrSearchExhausted):
		run.Error = err.Error()
		run.ErrorKind = KindSearchExhausted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		run.Error = err.Error()
		run.ErrorKind = KindCancelled
	default:
		return nil, fmt.Errorf("search failed: %w", err)
	}

	recorded := s.record(run)
	log.Printf("[SOLVE] run=%s profile=%s size=%d transitions=%d rolls=%d coverage=%.3f attempts=%d duration=%s",
		recorded.ID, profileName, run.BoardSize, run.Transitions, len(run.Rolls), run.Coverage, run.Attempts, run.Duration)

	return &SolveResult{Rolls: run.Rolls, Run: recorded, Board: info}, nil
}

// Simulate replays a roll string on a board
func (s *Solver) Simulate(ctx context.Context, req SimulateRequest) (*SimulateResult, error) {
	var b *board.Board
	switch {
	case req.Board != nil:
		// JSON boards carry relative transition kinds the SVG decoder never emits
		if err := checkBoardShape(req.Board); err != nil {
			return nil, err
		}
		b = board.New(req.Board.Size, req.Board.Transitions)
		b.Width, b.Height = req.Board.Width, req.Board.Height
		if err := board.Validate(b); err != nil {
			return nil, err
		}
	case strings.TrimSpace(req.SVG) != "":
		parsed, err := board.Parse(strings.NewReader(req.SVG))
		if err != nil {
			return nil, err
		}
		b = parsed
	default:
		return nil, fmt.Errorf("%w: svg or board is required", ErrInvalidRequest)
	}
	if b.Size < 2 {
		return nil, fmt.Errorf("%w: board size must be at least 2", ErrInvalidRequest)
	}

	rolls, err := engine.ParseRolls(req.Rolls)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	players := req.Players
	if players == 0 {
		players = search.Players
	}
	if players < 1 || players > MaxPlayers {
		return nil, fmt.Errorf("%w: players must be between 1 and %d, got %d", ErrInvalidRequest, MaxPlayers, players)
	}
	rules := req.Rules
	if rules == "" {
		rules = engine.DefaultRules
	}

	trace, err := engine.Simulate(b, players, rolls, rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	return &SimulateResult{
		BoardSize: b.Size,
		Players:   players,
		Rules:     rules,
		Coverage:  trace.Coverage(b.Size),
		Trace:     trace,
	}, nil
}

// checkBoardShape bounds a JSON board to what the SVG decoder can produce
func checkBoardShape(b *board.Board) error {
	if b.Size < 2 || b.Size > maxBoardSize {
		return fmt.Errorf("%w: board size must be between 2 and %d, got %d", ErrInvalidRequest, maxBoardSize, b.Size)
	}
	if b.Width < 0 || b.Width > maxBoardSize || b.Height < 0 || b.Height > maxBoardSize {
		return fmt.Errorf("%w: board of %dx%d squares is out of range", ErrInvalidRequest, b.Width, b.Height)
	}
	if (b.Width != 0 || b.Height != 0) && b.Width*b.Height != b.Size {
		return fmt.Errorf("%w: board of %dx%d squares does not have size %d", ErrInvalidRequest, b.Width, b.Height, b.Size)
	}
	return nil
}

// InspectBoard decodes and validates a board without searching
func (s *Solver) InspectBoard(ctx context.Context, svg string) (*BoardInfo, error) {
	_, info, err := inspect(svg)
	return info, err
}

// GetRun retrieves a recorded run
func (s *Solver) GetRun(ctx context.Context, id string) (*Run, error) {
	return s.runs.Get(id)
}

// ListRuns returns the recorded runs, newest first
func (s *Solver) ListRuns(ctx context.Context) ([]*Run, error) {
	return s.runs.List(), nil
}

// DeleteRun removes a recorded run
func (s *Solver) DeleteRun(ctx context.Context, id string) error {
	return s.runs.Delete(id)
}

// ListProfiles returns the available search profiles
func (s *Solver) ListProfiles(ctx context.Context) ([]*ProfileInfo, error) {
	return s.profiles.ListProfiles()
}

// LoadProfile returns a search profile by name
func (s *Solver) LoadProfile(ctx context.Context, name string) (*search.Options, error) {
	opts, _, err := s.resolveProfile(name)
	return opts, err
}

// SaveProfile stores a search profile
func (s *Solver) SaveProfile(ctx context.Context, name string, opts *search.Options) error {
	if name == "" {
		return fmt.Errorf("%w: profile name is required", ErrInvalidProfile)
	}
	return s.profiles.SaveProfile(name, opts)
}

// resolveProfile loads a profile and returns a copy safe to modify
func (s *Solver) resolveProfile(name string) (*search.Options, string, error) {
	var (
		opts *search.Options
		err  error
	)
	if name == "" {
		opts = s.profiles.GetDefault()
		name = opts.Name
	} else {
		opts, err = s.profiles.LoadProfile(name)
		if err != nil {
			if errors.Is(err, ErrProfileNotFound) {
				return nil, "", s.profileNotFound(name)
			}
			return nil, "", fmt.Errorf("failed to load profile %s: %w", name, err)
		}
	}

	c := *opts
	return &c, name, nil
}

// profileNotFound lists the available profiles in the error message
func (s *Solver) profileNotFound(name string) error {
	available, err := s.profiles.ListProfiles()
	if err == nil && len(available) > 0 {
		ids := make([]string, 0, len(available))
		for _, p := range available {
			ids = append(ids, p.ProfileID)
		}
		return fmt.Errorf("%w: '%s'. Available profiles: %v", ErrProfileNotFound, name, ids)
	}
	return fmt.Errorf("%w: '%s'", ErrProfileNotFound, name)
}

// record stores the run and notifies listeners. Storage failures are logged
// and the unrecorded run is returned.
func (s *Solver) record(run *Run) *Run {
	recorded, err := s.runs.Create(run)
	if err != nil {
		log.Printf("Warning: Failed to record run: %v", err)
		recorded = run
	}

	s.mu.RLock()
	listeners := append([]RunListener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(recorded)
	}
	return recorded
}

// inspect decodes and validates an SVG board. info is never nil; it keeps
// the decoded dimensions even when validation fails.
func inspect(svg string) (*board.Board, *BoardInfo, error) {
	info := &BoardInfo{Transitions: []board.Transition{}}

	b, err := board.Decode(strings.NewReader(svg))
	if err != nil {
		info.Error = err.Error()
		info.ErrorKind = ErrorKind(err)
		return nil, info, err
	}

	info.Width = b.Width
	info.Height = b.Height
	info.Size = b.Size
	info.Transitions = b.Transitions
	info.TouchedSquares = b.TouchedSquares()

	if err := board.Validate(b); err != nil {
		info.Error = err.Error()
		info.ErrorKind = ErrorKind(err)
		return nil, info, err
	}

	info.Valid = true
	return b, info, nil
}

// ErrorKind classifies an error for run records and API responses
func ErrorKind(err error) string {
	var (
		malformed *board.MalformedBoardError
		invalid   *board.InvalidTransitionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &malformed):
		return KindMalformedBoard
	case errors.As(err, &invalid):
		return KindInvalidTransition
	case errors.Is(err, search.ErrSearchExhausted):
		return KindSearchExhausted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	}
	return ""
}
