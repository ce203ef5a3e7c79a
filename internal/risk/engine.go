// Package risk scores normalized NEOs on a 0-100 scale and maps the score to
// a severity tier.
//
// Scoring is additive over four factors, each clamped on its own before the
// sum: the upstream hazardous flag, estimated diameter, proximity (inverse
// miss distance) and relative velocity. The sum is rounded and clamped to
// [0, MaxScore]. Weights come from a Policy so they can be tuned without
// touching callers.
package risk

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cosmicwatch/cosmic-watch/internal/neo"
)

// Assessment is derived on demand and never stored.
type Assessment struct {
	Score     int    `json:"risk_score"`
	Level     Level  `json:"risk_level"`
	Rationale string `json:"rationale"`
}

// Scored is an object together with its assessment. JSON flattens both.
type Scored struct {
	neo.Object
	Assessment
}

// Engine applies a Policy. The zero value is not usable; use NewEngine.
type Engine struct {
	policy Policy
}

// NewEngine creates an engine for the given policy.
func NewEngine(p Policy) *Engine {
	return &Engine{policy: p}
}

// Default returns an engine with the built-in weights.
func Default() *Engine {
	return NewEngine(DefaultPolicy())
}

// Policy returns the active weights.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Analyze scores one object. Pure and deterministic.
func (e *Engine) Analyze(o neo.Object) Assessment {
	score := e.Score(o)
	level := e.LevelFor(score)
	return Assessment{
		Score:     score,
		Level:     level,
		Rationale: rationale(score, e.policy.MaxScore, level, o),
	}
}

// Score computes the clamped integer score.
func (e *Engine) Score(o neo.Object) int {
	p := e.policy
	var sum float64

	if o.Hazardous {
		sum += p.HazardousWeight
	}
	if o.Diameter != nil && *o.Diameter > 0 {
		sum += math.Min(*o.Diameter*p.DiameterFactor, p.DiameterCap)
	}
	if o.MissDistance != nil && *o.MissDistance > 0 {
		sum += math.Min(p.ProximityNumerator / *o.MissDistance, p.ProximityCap)
	}
	if o.Velocity != nil && *o.Velocity > 0 {
		sum += math.Min(*o.Velocity*p.VelocityFactor, p.VelocityCap)
	}

	score := int(math.Round(sum))
	switch {
	case score < 0:
		return 0
	case score > p.MaxScore:
		return p.MaxScore
	}
	return score
}

// LevelFor maps a score to its tier. Bounds are inclusive on the low side.
func (e *Engine) LevelFor(score int) Level {
	t := e.policy.Thresholds
	switch {
	case score >= t.Critical:
		return Critical
	case score >= t.High:
		return High
	case score >= t.Moderate:
		return Moderate
	default:
		return Low
	}
}

// Categorize groups objects by their tier. Every tier key is present, and
// order within a tier follows input order.
func (e *Engine) Categorize(objects []neo.Object) map[Level][]Scored {
	out := make(map[Level][]Scored, 4)
	for _, l := range Levels() {
		out[l] = []Scored{}
	}
	for _, o := range objects {
		a := e.Analyze(o)
		out[a.Level] = append(out[a.Level], Scored{Object: o, Assessment: a})
	}
	return out
}

// Rank scores every object and sorts by score, highest first. Ties keep
// input order.
func (e *Engine) Rank(objects []neo.Object) []Scored {
	out := e.ScoreAll(objects)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// ScoreAll attaches an assessment to each object, preserving order.
func (e *Engine) ScoreAll(objects []neo.Object) []Scored {
	out := make([]Scored, 0, len(objects))
	for _, o := range objects {
		out = append(out, Scored{Object: o, Assessment: e.Analyze(o)})
	}
	return out
}

func rationale(score, maxScore int, level Level, o neo.Object) string {
	parts := make([]string, 0, 4)
	if o.Hazardous {
		parts = append(parts, "NASA classified as potentially hazardous")
	}
	if o.Diameter != nil {
		parts = append(parts, fmt.Sprintf("size ~%.2f km", *o.Diameter))
	}
	if o.MissDistance != nil {
		parts = append(parts, fmt.Sprintf("miss distance ~%s km", groupThousands(*o.MissDistance)))
	}
	if o.Velocity != nil {
		parts = append(parts, fmt.Sprintf("velocity ~%.1f km/s", *o.Velocity))
	}
	return fmt.Sprintf("Score %d/%d (%s): %s.", score, maxScore, level, strings.Join(parts, "; "))
}

// groupThousands renders f with comma grouping and at most three decimals,
// e.g. 4500000.25 -> "4,500,000.25".
func groupThousands(f float64) string {
	s := strconv.FormatFloat(math.Round(f*1000)/1000, 'f', -1, 64)
	intPart, frac, hasFrac := strings.Cut(s, ".")

	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
