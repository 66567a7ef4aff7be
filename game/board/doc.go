// Package board decodes race-game board layouts from SVG documents.
//
// A layout is a grid of CellSize x CellSize cells described by the root
// element's viewBox. Every <line> element outside <defs> is a transition
// (a snake or a ladder) from the square under its first endpoint to the
// square under its second endpoint.
//
// Squares are numbered boustrophedon style: row 0 is the bottom row of the
// document and runs left to right, row 1 runs right to left, and so on.
// Numbering is 1-based and continuous across rows, so for a board that is
// W squares wide:
//
//	square 1       bottom-left cell
//	square W       bottom-right cell
//	square W+1     the cell directly above square W
//
// Usage:
//
//	b, err := board.Parse(strings.NewReader(doc))
//	if err != nil {
//		var malformed *board.MalformedBoardError
//		if errors.As(err, &malformed) {
//			// geometry problem
//		}
//	}
//	t, ok := b.TransitionAt(17)
//
// Decode only extracts geometry. Validate enforces the structural rules on
// the transition table; Parse runs both.
package board
