package motion

import (
	"math"
)

// RunningGradient is the online mean of per-episode reward-per-distance samples
type RunningGradient struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// Update folds sample into the mean
func (g *RunningGradient) Update(sample float64) {
	g.Count++
	g.Average += (sample - g.Average) / float64(g.Count)
}

// ZeroBaseline selects the deviation used when the running average is 0
type ZeroBaseline int

const (
	ZeroSkip     ZeroBaseline = iota // no baseline yet: no bonus
	ZeroAbsolute                     // use the raw difference from the average
)

// ParseZeroBaseline maps the config string to a ZeroBaseline
func ParseZeroBaseline(s string) ZeroBaseline {
	if s == "absolute" {
		return ZeroAbsolute
	}
	return ZeroSkip
}

// Deviation returns (sample - k*avg) / (k*avg). With avg == 0 it falls back
// according to zb; ok is false when no bonus should be paid.
func Deviation(sample, avg, k float64, zb ZeroBaseline) (p float64, ok bool) {
	if avg != 0 {
		base := k * avg
		return (sample - base) / base, true
	}
	if zb == ZeroAbsolute {
		return sample - avg, true
	}
	return 0, false
}

// Curve is (p³ + p² + p) / eᵖ
func Curve(p float64) float64 {
	return (p*p*p + p*p + p) / math.Exp(p)
}
