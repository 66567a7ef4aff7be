package engine

import (
	"fmt"
	"strings"
)

// Magnitude is how far a roll moves a player in the given mode
func Magnitude(mode DieMode, roll int) int {
	if mode == Boosted {
		return 1 << roll
	}
	return roll
}

// Bounce reflects a tentative position off the last square and clamps it
// to [1, size].
func Bounce(size, tentative int) int {
	if tentative > size {
		tentative = size - (tentative - size)
	}
	return max(1, min(size, tentative))
}

// ParseRolls turns a digit string such as "61626" into die values
func ParseRolls(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	rolls := make([]int, 0, len(s))
	for i, ch := range s {
		if ch < '0'+MinRoll || ch > '0'+MaxRoll {
			return nil, fmt.Errorf("roll %d: %q is not a die value", i+1, ch)
		}
		rolls = append(rolls, int(ch-'0'))
	}
	return rolls, nil
}

// FormatRolls concatenates die values without separators
func FormatRolls(rolls []int) string {
	var sb strings.Builder
	sb.Grow(len(rolls))
	for _, r := range rolls {
		sb.WriteByte(byte('0' + r))
	}
	return sb.String()
}
