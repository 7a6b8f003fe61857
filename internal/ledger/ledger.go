package ledger

import (
	"gonum.org/v1/gonum/stat"
)

// Entry is one completed episode's contribution to the ledgers
type Entry struct {
	Gradient float64 `json:"gradient"`
	Rooms    float64 `json:"rooms"`
	Distance float64 `json:"distance"`
	Reward   float64 `json:"reward"`
}

// Weights scales each metric's deviation from its historical mean
type Weights struct {
	Gradient float64
	Rooms    float64
	Distance float64
	Reward   float64
}

// Ledgers are the per-metric histories of every completed episode
type Ledgers struct {
	Gradient []float64 `json:"gradient"`
	Rooms    []float64 `json:"rooms"`
	Distance []float64 `json:"distance"`
	Reward   []float64 `json:"reward"`
}

// Len returns the number of recorded episodes
func (l *Ledgers) Len() int {
	return len(l.Reward)
}

// Append records one episode
func (l *Ledgers) Append(e Entry) {
	l.Gradient = append(l.Gradient, e.Gradient)
	l.Rooms = append(l.Rooms, e.Rooms)
	l.Distance = append(l.Distance, e.Distance)
	l.Reward = append(l.Reward, e.Reward)
}

// Means returns the per-metric mean of the recorded episodes
func (l *Ledgers) Means() Entry {
	if l.Len() == 0 {
		return Entry{}
	}
	return Entry{
		Gradient: stat.Mean(l.Gradient, nil),
		Rooms:    stat.Mean(l.Rooms, nil),
		Distance: stat.Mean(l.Distance, nil),
		Reward:   stat.Mean(l.Reward, nil),
	}
}

// Bonus compares e against the mean of the episodes recorded so far and
// returns the weighted sum of the differences. It is 0 with no history.
func (l *Ledgers) Bonus(e Entry, w Weights) float64 {
	if l.Len() == 0 {
		return 0
	}
	m := l.Means()
	return w.Gradient*(e.Gradient-m.Gradient) +
		w.Rooms*(e.Rooms-m.Rooms) +
		w.Distance*(e.Distance-m.Distance) +
		w.Reward*(e.Reward-m.Reward)
}

// Entries returns the recorded episodes in order
func (l *Ledgers) Entries() []Entry {
	out := make([]Entry, l.Len())
	for i := range out {
		out[i] = Entry{Gradient: l.Gradient[i], Rooms: l.Rooms[i], Distance: l.Distance[i], Reward: l.Reward[i]}
	}
	return out
}
