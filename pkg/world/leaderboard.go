package world

import (
	"math"

	"github.com/vango-dev/cellclient/pkg/protocol"
)

// LeaderboardKind tags which Leaderboard fields are meaningful.
type LeaderboardKind uint8

const (
	LeaderboardNone LeaderboardKind = iota
	LeaderboardText
	LeaderboardRanked
	LeaderboardTeam
)

// String returns the kind name.
func (k LeaderboardKind) String() string {
	switch k {
	case LeaderboardText:
		return "text"
	case LeaderboardRanked:
		return "ranked"
	case LeaderboardTeam:
		return "team"
	default:
		return "none"
	}
}

// RankedRow is one ranked leaderboard line.
type RankedRow struct {
	Rank     int            `json:"rank"`
	Self     bool           `json:"self"`
	Name     string         `json:"name"`
	Color    protocol.Color `json:"color"`
	HasColor bool           `json:"hasColor"`
}

// Leaderboard is a tagged variant: Lines for text, Rows for ranked,
// Fractions for team. Every update replaces the whole value.
type Leaderboard struct {
	Kind      LeaderboardKind `json:"kind"`
	Lines     []string        `json:"lines,omitempty"`
	Rows      []RankedRow     `json:"rows,omitempty"`
	Fractions []float64       `json:"fractions,omitempty"`
}

// TextLeaderboard builds the plain text variant.
func TextLeaderboard(f *protocol.LeaderboardText) Leaderboard {
	lines := make([]string, len(f.Lines))
	copy(lines, f.Lines)
	return Leaderboard{Kind: LeaderboardText, Lines: lines}
}

// RankedLeaderboard builds the ranked variant. Names may carry a color
// suffix, which is split off.
func RankedLeaderboard(f *protocol.LeaderboardRanked) Leaderboard {
	rows := make([]RankedRow, len(f.Entries))
	for i, e := range f.Entries {
		id, _ := protocol.ParseDisplayName(e.Name)
		row := RankedRow{Rank: i + 1, Self: e.Self, Name: id.Name}
		if id.Color != "" {
			if c, err := protocol.ParseColor(id.Color); err == nil {
				row.Color, row.HasColor = c, true
			}
		}
		rows[i] = row
	}
	return Leaderboard{Kind: LeaderboardRanked, Rows: rows}
}

// TeamLeaderboard builds the pie-chart variant. Negative or non-finite
// fractions count as zero; a total above one is scaled down to one.
func TeamLeaderboard(f *protocol.LeaderboardTeam) Leaderboard {
	fr := make([]float64, len(f.Fractions))
	var sum float64
	for i, v := range f.Fractions {
		x := float64(v)
		if x < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
			x = 0
		}
		fr[i] = x
		sum += x
	}
	if sum > 1 {
		for i := range fr {
			fr[i] /= sum
		}
	}
	return Leaderboard{Kind: LeaderboardTeam, Fractions: fr}
}
