package board

// Layout constants
const (
	CellSize    = 32
	MinSide     = 16
	MaxSide     = 32
	DefaultSide = 16
	DefaultSize = DefaultSide * DefaultSide
)

// Kind tells how a transition resolves its destination square
type Kind string

const (
	// Direct moves the player to a fixed square (snake or ladder)
	Direct Kind = "direct"
	// RelativeBackward moves the player back by the magnitude of the move that landed there
	RelativeBackward Kind = "backward"
	// RelativeForward moves the player forward by the magnitude of the move that landed there
	RelativeForward Kind = "forward"
)

// Valid reports whether k is a known transition kind
func (k Kind) Valid() bool {
	switch k {
	case Direct, RelativeBackward, RelativeForward:
		return true
	}
	return false
}

// Transition is applied right after a player lands on From
type Transition struct {
	From int  `json:"from"`
	To   int  `json:"to,omitempty"`
	Kind Kind `json:"kind"`
}

// Resolve returns the square a player ends on after landing on t.From
// with a move of the given magnitude.
func (t Transition) Resolve(magnitude, size int) int {
	switch t.Kind {
	case RelativeBackward:
		return max(1, t.From-magnitude)
	case RelativeForward:
		return min(size, t.From+magnitude)
	default:
		return t.To
	}
}

// squares lists the board squares the transition occupies
func (t Transition) squares() []int {
	if t.Kind == Direct {
		return []int{t.From, t.To}
	}
	return []int{t.From}
}

// Board is an immutable board layout. The last square wins the game.
type Board struct {
	Width       int          `json:"width,omitempty"`
	Height      int          `json:"height,omitempty"`
	Size        int          `json:"size"`
	Transitions []Transition `json:"transitions"`

	index map[int]Transition
}

// New builds a board of the given size with its transition index
func New(size int, transitions []Transition) *Board {
	b := &Board{
		Size:        size,
		Transitions: make([]Transition, len(transitions)),
		index:       make(map[int]Transition, len(transitions)),
	}
	copy(b.Transitions, transitions)
	for i := range b.Transitions {
		if b.Transitions[i].Kind == "" {
			b.Transitions[i].Kind = Direct
		}
		b.index[b.Transitions[i].From] = b.Transitions[i]
	}
	return b
}

// NewGrid builds a board with known dimensions in squares
func NewGrid(width, height int, transitions []Transition) *Board {
	b := New(width*height, transitions)
	b.Width = width
	b.Height = height
	return b
}

// TransitionAt returns the transition that starts on square, if any
func (b *Board) TransitionAt(square int) (Transition, bool) {
	t, ok := b.index[square]
	return t, ok
}

// TouchedSquares counts the distinct squares referenced by transitions
func (b *Board) TouchedSquares() int {
	seen := make(map[int]struct{})
	for _, t := range b.Transitions {
		for _, sq := range t.squares() {
			seen[sq] = struct{}{}
		}
	}
	return len(seen)
}

// Square converts a grid cell to its square number.
// Row 0 is the bottom row; even rows run left to right, odd rows right to left.
func Square(width, row, col int) int {
	if row%2 == 0 {
		return row*width + col + 1
	}
	return row*width + (width - 1 - col) + 1
}

// Cell is the inverse of Square
func Cell(width, square int) (row, col int) {
	idx := square - 1
	row = idx / width
	col = idx % width
	if row%2 == 1 {
		col = width - 1 - col
	}
	return row, col
}
