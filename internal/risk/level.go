package risk

import (
	"fmt"
	"strings"
)

// Level is a discrete severity tier.
type Level string

const (
	Low      Level = "LOW"
	Moderate Level = "MODERATE"
	High     Level = "HIGH"
	Critical Level = "CRITICAL"
)

// Levels lists every tier in ascending order.
func Levels() []Level {
	return []Level{Low, Moderate, High, Critical}
}

// Rank gives the total order LOW < MODERATE < HIGH < CRITICAL. Unknown
// levels rank 0, below everything.
func (l Level) Rank() int {
	switch l {
	case Low:
		return 1
	case Moderate:
		return 2
	case High:
		return 3
	case Critical:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether l is at or above min.
func (l Level) AtLeast(min Level) bool {
	return l.Rank() >= min.Rank()
}

// Valid reports whether l is one of the four tiers.
func (l Level) Valid() bool {
	return l.Rank() > 0
}

// ParseLevel accepts a tier name in any case.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown risk level %q (want LOW, MODERATE, HIGH or CRITICAL)", s)
	}
	return l, nil
}
