package trend

import "github.com/elonfeng/pulse/pkg/source"

// Label is the display band for a launch score.
type Label struct {
	Text  string `json:"label"`
	Color string `json:"color"`
}

// Launch score bands. The boundaries are inclusive lower bounds.
var (
	LabelLaunchNow = Label{Text: "LAUNCH NOW", Color: "#dc2626"}
	LabelHot       = Label{Text: "HOT", Color: "#f97316"}
	LabelRising    = Label{Text: "RISING", Color: "#eab308"}
	LabelWatch     = Label{Text: "WATCH", Color: "#22c55e"}
	LabelEmerging  = Label{Text: "EMERGING", Color: "#06b6d4"}
)

// Lower bounds of the launch score bands.
const (
	LaunchNowScore = 85
	HotScore       = 70
	RisingScore    = 55
	WatchScore     = 40
)

// LabelFor maps a launch score to its band.
func LabelFor(score int) Label {
	switch {
	case score >= LaunchNowScore:
		return LabelLaunchNow
	case score >= HotScore:
		return LabelHot
	case score >= RisingScore:
		return LabelRising
	case score >= WatchScore:
		return LabelWatch
	}
	return LabelEmerging
}

// Score fills LaunchScore, Label and Velocity from the topic's payloads.
func Score(t *Topic) {
	t.LaunchScore = LaunchScore(t.Sources, t.Category)
	t.Label = LabelFor(t.LaunchScore)
	t.Velocity = Velocity(t.Sources, t.CrossPlatform)
}

// LaunchScore sums per-source points, the cross-source bonus and the category
// bonus, clamped to [0, 100]. Missing payloads contribute nothing.
func LaunchScore(s source.Sources, category string) int {
	score := 0

	if w := s.Wikipedia; w != nil {
		views := nonNegative(w.Views)
		switch {
		case views >= 1_000_000:
			score += 35
		case views >= 500_000:
			score += 30
		case views >= 200_000:
			score += 25
		case views >= 100_000:
			score += 20
		default:
			score += 15
		}
		switch {
		case w.Rank > 0 && w.Rank <= 10:
			score += 10
		case w.Rank > 0 && w.Rank <= 25:
			score += 5
		}
	}

	if hn := s.HackerNews; hn != nil {
		v := nonNegative(hn.Score)
		switch {
		case v >= 500:
			score += 30
		case v >= 200:
			score += 25
		case v >= 100:
			score += 20
		case v >= 50:
			score += 15
		default:
			score += 10
		}
		if hn.Mentions >= 3 {
			score += 5
		}
	}

	if l := s.Lemmy; l != nil {
		v := nonNegative(l.Score)
		switch {
		case v >= 500:
			score += 25
		case v >= 200:
			score += 20
		case v >= 100:
			score += 15
		default:
			score += 10
		}
		if l.Mentions >= 3 {
			score += 5
		}
	}

	if c := s.Crypto; c != nil {
		switch rank := cryptoRank(c); {
		case rank <= 3:
			score += 35
		case rank <= 5:
			score += 30
		case rank <= 10:
			score += 25
		default:
			score += 15
		}
	}

	if d := s.Dex; d != nil {
		v := nonNegative(d.Volume)
		switch {
		case v >= 1_000_000:
			score += 30
		case v >= 100_000:
			score += 25
		case v >= 10_000:
			score += 20
		default:
			score += 15
		}
	}

	switch n := s.Count(); {
	case n >= 4:
		score += 30
	case n == 3:
		score += 25
	case n == 2:
		score += 15
	}

	switch category {
	case source.CategoryCrypto, source.CategoryAI:
		score += 5
	case source.CategoryEntertainment:
		score += 3
	}

	return clamp(score)
}

// Velocity is a 0-100 rate-of-rise heuristic starting at 50.
func Velocity(s source.Sources, crossPlatform bool) int {
	v := 50

	if w := s.Wikipedia; w != nil {
		switch {
		case w.Views >= 500_000:
			v += 25
		case w.Views >= 100_000:
			v += 15
		}
	}
	if hn := s.HackerNews; hn != nil && hn.Score >= 200 {
		v += 20
	}
	if l := s.Lemmy; l != nil && l.Score >= 200 {
		v += 15
	}
	if c := s.Crypto; c != nil && cryptoRank(c) <= 5 {
		v += 25
	}
	if d := s.Dex; d != nil && d.Volume >= 100_000 {
		v += 20
	}
	if crossPlatform {
		v += 15
	}

	return clamp(v)
}

// cryptoRank treats a missing or invalid rank as far out of the list.
func cryptoRank(c *source.CryptoData) int {
	if c.Rank <= 0 {
		return 99
	}
	return c.Rank
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
