package board

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

type viewBox struct {
	minX, minY    float64
	width, height float64
}

type segment struct {
	x1, y1, x2, y2 float64
}

// Decode reads an SVG layout and returns the board it describes without
// validating the transition table. A document without a viewBox decodes to
// the default 16x16 board with no transitions.
func Decode(r io.Reader) (*Board, error) {
	dec := xml.NewDecoder(r)

	var (
		box      *viewBox
		segments []segment
		seenRoot bool
		defs     int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(err, "unreadable document")
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if !seenRoot {
				seenRoot = true
				if el.Name.Local != "svg" {
					return nil, malformed(nil, "root element is <%s>, want <svg>", el.Name.Local)
				}
				if raw, ok := attr(el, "viewBox"); ok {
					vb, err := parseViewBox(raw)
					if err != nil {
						return nil, err
					}
					box = &vb
				}
				continue
			}

			switch el.Name.Local {
			case "defs":
				defs++
			case "line":
				if defs > 0 {
					continue
				}
				seg, err := parseLine(el)
				if err != nil {
					return nil, err
				}
				segments = append(segments, seg)
			}

		case xml.EndElement:
			if el.Name.Local == "defs" && defs > 0 {
				defs--
			}
		}
	}

	if !seenRoot {
		return nil, malformed(nil, "empty document")
	}
	if box == nil {
		return NewGrid(DefaultSide, DefaultSide, nil), nil
	}

	width := int(math.Floor(box.width / CellSize))
	height := int(math.Floor(box.height / CellSize))
	if width < MinSide || width > MaxSide {
		return nil, malformed(nil, "width of %d squares outside [%d, %d]", width, MinSide, MaxSide)
	}
	if height < MinSide || height > MaxSide {
		return nil, malformed(nil, "height of %d squares outside [%d, %d]", height, MinSide, MaxSide)
	}
	if height%2 != 0 {
		return nil, malformed(nil, "height of %d squares is odd", height)
	}

	transitions := make([]Transition, 0, len(segments))
	for _, seg := range segments {
		from, err := box.square(seg.x1, seg.y1, width, height)
		if err != nil {
			return nil, err
		}
		to, err := box.square(seg.x2, seg.y2, width, height)
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, Transition{From: from, To: to, Kind: Direct})
	}

	return NewGrid(width, height, transitions), nil
}

// Parse decodes and validates a layout
func Parse(r io.Reader) (*Board, error) {
	b, err := Decode(r)
	if err != nil {
		return nil, err
	}
	if err := Validate(b); err != nil {
		return nil, err
	}
	return b, nil
}

// square maps a document coordinate to a square number
func (vb viewBox) square(x, y float64, width, height int) (int, error) {
	x -= vb.minX
	y -= vb.minY
	if x < 0 || y < 0 || x > vb.width || y > vb.height {
		return 0, malformed(nil, "point (%g, %g) outside the viewBox", x+vb.minX, y+vb.minY)
	}

	col := min(int(math.Floor(x/CellSize)), width-1)
	fromTop := min(int(math.Floor(y/CellSize)), height-1)
	row := height - 1 - fromTop

	return Square(width, row, col), nil
}

func parseViewBox(raw string) (viewBox, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return viewBox{}, malformed(nil, "viewBox %q must have 4 numbers", raw)
	}

	var nums [4]float64
	for i, f := range fields {
		v, err := parseNumber(f)
		if err != nil {
			return viewBox{}, malformed(err, "viewBox %q", raw)
		}
		nums[i] = v
	}
	if nums[2] <= 0 || nums[3] <= 0 {
		return viewBox{}, malformed(nil, "viewBox %q has no area", raw)
	}

	return viewBox{minX: nums[0], minY: nums[1], width: nums[2], height: nums[3]}, nil
}

func parseLine(el xml.StartElement) (segment, error) {
	var vals [4]float64
	for i, name := range []string{"x1", "y1", "x2", "y2"} {
		raw, ok := attr(el, name)
		if !ok {
			return segment{}, malformed(nil, "line without %s", name)
		}
		v, err := parseNumber(strings.TrimSpace(raw))
		if err != nil {
			return segment{}, malformed(err, "line %s=%q", name, raw)
		}
		vals[i] = v
	}
	return segment{x1: vals[0], y1: vals[1], x2: vals[2], y2: vals[3]}, nil
}

// parseNumber accepts finite numbers only
func parseNumber(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	return v, nil
}

func attr(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
