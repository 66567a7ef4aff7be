package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/slpu/game/search"
)

var (
	ErrRunNotFound     = errors.New("run not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidProfile  = errors.New("invalid profile")
	ErrInvalidRequest  = errors.New("invalid request")
)

// SolverService defines every operation the transports expose
type SolverService interface {
	// Solving
	Solve(ctx context.Context, req SolveRequest) (*SolveResult, error)
	Simulate(ctx context.Context, req SimulateRequest) (*SimulateResult, error)
	InspectBoard(ctx context.Context, svg string) (*BoardInfo, error)

	// Run history
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error

	// Search profiles
	ListProfiles(ctx context.Context) ([]*ProfileInfo, error)
	LoadProfile(ctx context.Context, name string) (*search.Options, error)
	SaveProfile(ctx context.Context, name string, opts *search.Options) error
}

// RunStore keeps the history of solve runs
type RunStore interface {
	Create(run *Run) (*Run, error)
	Get(id string) (*Run, error)
	List() []*Run
	Delete(id string) error
}

// ProfileManager loads and stores search profiles
type ProfileManager interface {
	LoadProfile(name string) (*search.Options, error)
	ListProfiles() ([]*ProfileInfo, error)
	GetDefault() *search.Options
	SaveProfile(name string, opts *search.Options) error
}

// RunListener is notified after a run is recorded
type RunListener func(run *Run)

// Run is one recorded solve request
type Run struct {
	ID          string        `json:"id"`
	RequestID   string        `json:"request_id,omitempty"`
	Source      string        `json:"source"`
	Profile     string        `json:"profile"`
	BoardWidth  int           `json:"board_width,omitempty"`
	BoardHeight int           `json:"board_height,omitempty"`
	BoardSize   int           `json:"board_size"`
	Transitions int           `json:"transitions"`
	Rolls       string        `json:"rolls"`
	Coverage    float64       `json:"coverage"`
	Winner      int           `json:"winner"`
	Attempts    int           `json:"attempts"`
	Qualifying  int           `json:"qualifying"`
	EarlyStop   bool          `json:"early_stop"`
	Seed        int64         `json:"seed"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
	ErrorKind   string        `json:"error_kind,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
