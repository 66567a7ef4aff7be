package board

// Validate enforces the structural rules on a board's transition table.
// Rules are checked in order across the whole table:
//  1. no transition touches square 1 or the last square
//  2. no square is used by more than one transition
//  3. transitions touch at most Size/4 distinct squares
//
// Transitions that start in the last 64 squares without a matching reverse
// transition are accepted.
func Validate(b *Board) error {
	for _, t := range b.Transitions {
		if !t.Kind.Valid() {
			return &InvalidTransitionError{Transition: t, Square: t.From, Reason: "unknown kind"}
		}
		if t.Kind == Direct && t.From == t.To {
			return &InvalidTransitionError{Transition: t, Square: t.From, Reason: "leads to itself"}
		}
		for _, sq := range t.squares() {
			if sq < 1 || sq > b.Size {
				return &InvalidTransitionError{Transition: t, Square: sq, Reason: "square off the board"}
			}
			if sq == 1 || sq == b.Size {
				return &InvalidTransitionError{Transition: t, Square: sq, Reason: "touches the first or last square"}
			}
		}
	}

	owner := make(map[int]int)
	for i, t := range b.Transitions {
		for _, sq := range t.squares() {
			if _, taken := owner[sq]; taken {
				return &InvalidTransitionError{Transition: t, Square: sq, Reason: "square shared with another transition"}
			}
			owner[sq] = i
		}
	}

	if limit := b.Size / 4; len(owner) > limit {
		return &InvalidTransitionError{
			Transition: b.Transitions[len(b.Transitions)-1],
			Reason:     "transitions cover more than a quarter of the board",
		}
	}

	return nil
}
