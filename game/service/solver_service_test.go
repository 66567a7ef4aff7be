package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/slpu/game/board"
	"github.com/wricardo/mcp-training/slpu/game/engine"
	"github.com/wricardo/mcp-training/slpu/game/search"
	"github.com/wricardo/mcp-training/slpu/game/service"
)

const sampleBoard = `<svg viewBox="0 0 512 512" xmlns="http://www.w3.org/2000/svg">
<line x1="224" y1="480" x2="192" y2="448" stroke="blue"/>
<line x1="96" y1="448" x2="64" y2="416" stroke="red"/>
</svg>`

// MockRunStore implements service.RunStore for testing
type MockRunStore struct {
	mu   sync.Mutex
	runs []*service.Run
}

func (m *MockRunStore) Create(run *service.Run) (*service.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *run
	stored.ID = fmt.Sprintf("run_%d", len(m.runs)+1)
	m.runs = append(m.runs, &stored)
	return &stored, nil
}

func (m *MockRunStore) Get(id string) (*service.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, run := range m.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, service.ErrRunNotFound
}

func (m *MockRunStore) List() []*service.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*service.Run(nil), m.runs...)
}

func (m *MockRunStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, run := range m.runs {
		if run.ID == id {
			m.runs = append(m.runs[:i], m.runs[i+1:]...)
			return nil
		}
	}
	return service.ErrRunNotFound
}

// MockProfileManager implements service.ProfileManager for testing
type MockProfileManager struct {
	profiles map[string]*search.Options
	saved    map[string]*search.Options
}

func NewMockProfileManager() *MockProfileManager {
	quick := search.DefaultOptions()
	quick.Name = "quick"
	quick.Attempts = 400
	quick.Seed = 7

	def := search.DefaultOptions()
	def.Attempts = 400
	def.Seed = 42

	return &MockProfileManager{
		profiles: map[string]*search.Options{"default": &def, "quick": &quick},
		saved:    make(map[string]*search.Options),
	}
}

func (m *MockProfileManager) LoadProfile(name string) (*search.Options, error) {
	if opts, ok := m.profiles[name]; ok {
		return opts, nil
	}
	return nil, service.ErrProfileNotFound
}

func (m *MockProfileManager) ListProfiles() ([]*service.ProfileInfo, error) {
	return []*service.ProfileInfo{{ProfileID: "default"}, {ProfileID: "quick"}}, nil
}

func (m *MockProfileManager) GetDefault() *search.Options {
	return m.profiles["default"]
}

func (m *MockProfileManager) SaveProfile(name string, opts *search.Options) error {
	m.saved[name] = opts
	return nil
}

func newTestService() (*service.Solver, *MockRunStore, *MockProfileManager) {
	runs := &MockRunStore{}
	profiles := NewMockProfileManager()
	return service.NewSolverService(runs, profiles), runs, profiles
}

func TestSolve(t *testing.T) {
	svc, runs, _ := newTestService()

	var notified []*service.Run
	svc.OnRun(func(run *service.Run) { notified = append(notified, run) })

	result, err := svc.Solve(context.Background(), service.SolveRequest{SVG: sampleBoard, RequestID: "req-1"})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if result.Rolls == "" {
		t.Fatal("Expected a roll sequence")
	}
	if result.Run.ID != "run_1" || result.Run.RequestID != "req-1" {
		t.Errorf("Unexpected run record: %+v", result.Run)
	}
	if result.Run.Profile != "default" || result.Run.Source != service.SourceAPI {
		t.Errorf("Expected default profile from the API, got %s/%s", result.Run.Profile, result.Run.Source)
	}
	if result.Run.Winner != 1 || result.Run.Coverage <= 0.25 {
		t.Errorf("Expected last player to win with coverage above 0.25, got %d/%f", result.Run.Winner, result.Run.Coverage)
	}
	if result.Run.Seed != 42 {
		t.Errorf("Expected profile seed 42, got %d", result.Run.Seed)
	}
	if !result.Board.Valid || result.Board.Size != 256 || len(result.Board.Transitions) != 2 {
		t.Errorf("Unexpected board info: %+v", result.Board)
	}
	if len(runs.List()) != 1 || len(notified) != 1 {
		t.Errorf("Expected one recorded and notified run, got %d/%d", len(runs.List()), len(notified))
	}

	rolls, _ := engine.ParseRolls(result.Rolls)
	b, _ := board.Parse(strings.NewReader(sampleBoard))
	trace, err := engine.Simulate(b, 2, rolls, engine.PowerUp)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if trace.Winner != 1 {
		t.Errorf("Expected the returned rolls to make player 1 win, got %d", trace.Winner)
	}
}

func TestSolve_ProfileAndSeedOverride(t *testing.T) {
	svc, _, profiles := newTestService()

	result, err := svc.Solve(context.Background(), service.SolveRequest{SVG: sampleBoard, Profile: "quick", Seed: 99})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if result.Run.Profile != "quick" || result.Run.Seed != 99 {
		t.Errorf("Expected quick profile with seed 99, got %s/%d", result.Run.Profile, result.Run.Seed)
	}
	if profiles.profiles["quick"].Seed != 7 {
		t.Error("Seed override must not modify the stored profile")
	}

	_, err = svc.Solve(context.Background(), service.SolveRequest{SVG: sampleBoard, Profile: "missing"})
	if !errors.Is(err, service.ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "quick") {
		t.Errorf("Expected available profiles in the error, got %v", err)
	}
}

func TestSolve_RejectedBoards(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		kind string
	}{
		{"malformed", `<svg viewBox="0 0 100 100"></svg>`, service.KindMalformedBoard},
		{"not xml", `hello`, service.KindMalformedBoard},
		{"touches last square", `<svg viewBox="0 0 512 512"><line x1="0" y1="0" x2="64" y2="480"/></svg>`, service.KindInvalidTransition},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			svc, runs, _ := newTestService()

			result, err := svc.Solve(context.Background(), service.SolveRequest{SVG: test.svg, Source: service.SourceSVG})
			if err == nil {
				t.Fatal("Expected an error")
			}
			if service.ErrorKind(err) != test.kind {
				t.Errorf("Expected kind %s, got %s", test.kind, service.ErrorKind(err))
			}
			if result == nil || result.Rolls != "" {
				t.Fatalf("Expected an empty result, got %+v", result)
			}
			if result.Run.ErrorKind != test.kind || result.Run.Source != service.SourceSVG {
				t.Errorf("Unexpected run record: %+v", result.Run)
			}
			if len(runs.List()) != 1 {
				t.Error("Expected the rejected run to be recorded")
			}
		})
	}
}

func TestSolve_Exhausted(t *testing.T) {
	svc, _, profiles := newTestService()
	profiles.profiles["tiny"] = &search.Options{Name: "tiny", Players: 2, Attempts: 5, MaxRolls: 1, Rules: engine.PowerUp, Seed: 1}

	result, err := svc.Solve(context.Background(), service.SolveRequest{SVG: sampleBoard, Profile: "tiny"})
	if err != nil {
		t.Fatalf("Expected exhaustion not to be an error, got %v", err)
	}
	if result.Rolls != "" {
		t.Errorf("Expected empty rolls, got %q", result.Rolls)
	}
	if result.Run.ErrorKind != service.KindSearchExhausted || result.Run.Attempts != 5 {
		t.Errorf("Unexpected run record: %+v", result.Run)
	}
}

func TestSimulate(t *testing.T) {
	svc, _, _ := newTestService()

	t.Run("svg board", func(t *testing.T) {
		result, err := svc.Simulate(context.Background(), service.SimulateRequest{SVG: sampleBoard, Rolls: "6161"})
		if err != nil {
			t.Fatalf("Simulate failed: %v", err)
		}
		if result.Players != 2 || result.Rules != engine.PowerUp || result.BoardSize != 256 {
			t.Errorf("Unexpected defaults: %+v", result)
		}
		if result.Trace.Positions[0] != 70 || result.Trace.Positions[1] != 2 {
			t.Errorf("Expected positions [70 2], got %v", result.Trace.Positions)
		}
	})

	t.Run("json board with relative kinds", func(t *testing.T) {
		b := board.New(100, []board.Transition{{From: 4, Kind: board.RelativeForward}})
		result, err := svc.Simulate(context.Background(), service.SimulateRequest{Board: b, Rolls: "4", Players: 1})
		if err != nil {
			t.Fatalf("Simulate failed: %v", err)
		}
		if result.Trace.Positions[0] != 8 {
			t.Errorf("Expected position 8, got %d", result.Trace.Positions[0])
		}
	})

	t.Run("classic rules", func(t *testing.T) {
		result, err := svc.Simulate(context.Background(), service.SimulateRequest{SVG: sampleBoard, Rolls: "66", Rules: engine.Classic})
		if err != nil {
			t.Fatalf("Simulate failed: %v", err)
		}
		if result.Trace.Positions[0] != 7 {
			t.Errorf("Expected classic start on 1 to reach 7, got %d", result.Trace.Positions[0])
		}
	})

	t.Run("bad requests", func(t *testing.T) {
		bad := []service.SimulateRequest{
			{Rolls: "61"},
			{SVG: sampleBoard, Rolls: "619"},
			{SVG: sampleBoard, Rolls: "61", Rules: "turbo"},
			{SVG: sampleBoard, Rolls: "61", Players: 1_000_000_000},
			{SVG: sampleBoard, Rolls: "61", Players: -1},
			{Board: &board.Board{Size: 1 << 62}, Rolls: "1"},
			{Board: &board.Board{Size: 4_000_000_000}, Rolls: "1"},
			{Board: &board.Board{Size: 1}, Rolls: "1"},
			{Board: &board.Board{Width: 16, Height: 16, Size: 100}, Rolls: "1"},
			{Board: &board.Board{Width: 16, Size: 256}, Rolls: "1"},
		}
		for _, req := range bad {
			if _, err := svc.Simulate(context.Background(), req); !errors.Is(err, service.ErrInvalidRequest) {
				t.Errorf("Expected ErrInvalidRequest for %+v, got %v", req, err)
			}
		}

		invalid := board.New(100, []board.Transition{{From: 1, To: 50}})
		_, err := svc.Simulate(context.Background(), service.SimulateRequest{Board: invalid, Rolls: "1"})
		var transitionErr *board.InvalidTransitionError
		if !errors.As(err, &transitionErr) {
			t.Errorf("Expected InvalidTransitionError, got %v", err)
		}
	})
}

func TestInspectBoard(t *testing.T) {
	svc, _, _ := newTestService()

	info, err := svc.InspectBoard(context.Background(), sampleBoard)
	if err != nil {
		t.Fatalf("InspectBoard failed: %v", err)
	}
	if info.Width != 16 || info.Height != 16 || info.TouchedSquares != 4 || !info.Valid {
		t.Errorf("Unexpected board info: %+v", info)
	}

	overlap := `<svg viewBox="0 0 512 512"><line x1="224" y1="480" x2="192" y2="448"/><line x1="160" y1="480" x2="192" y2="448"/></svg>`
	info, err = svc.InspectBoard(context.Background(), overlap)
	if err == nil {
		t.Fatal("Expected overlapping transitions to be rejected")
	}
	if info.Valid || info.Size != 256 || info.ErrorKind != service.KindInvalidTransition {
		t.Errorf("Expected decoded but invalid board, got %+v", info)
	}
}

func TestRunsAndProfiles(t *testing.T) {
	svc, _, profiles := newTestService()
	ctx := context.Background()

	result, _ := svc.Solve(ctx, service.SolveRequest{SVG: sampleBoard})

	run, err := svc.GetRun(ctx, result.Run.ID)
	if err != nil || run.ID != result.Run.ID {
		t.Fatalf("GetRun failed: %v", err)
	}
	list, _ := svc.ListRuns(ctx)
	if len(list) != 1 {
		t.Errorf("Expected 1 run, got %d", len(list))
	}
	if err := svc.DeleteRun(ctx, run.ID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := svc.GetRun(ctx, run.ID); !errors.Is(err, service.ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}

	opts, err := svc.LoadProfile(ctx, "quick")
	if err != nil || opts.Attempts != 400 {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if err := svc.SaveProfile(ctx, "mine", opts); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	if profiles.saved["mine"] == nil {
		t.Error("Expected profile to reach the profile manager")
	}
	if err := svc.SaveProfile(ctx, "", opts); !errors.Is(err, service.ErrInvalidProfile) {
		t.Errorf("Expected ErrInvalidProfile for empty name, got %v", err)
	}
	infos, _ := svc.ListProfiles(ctx)
	if len(infos) != 2 {
		t.Errorf("Expected 2 profiles, got %d", len(infos))
	}
}
