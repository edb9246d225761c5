package core

import "math"

// RankBand is one contiguous band of the rank table. MaxPoints is
// math.MaxInt64 for the terminal, unbounded band.
type RankBand struct {
	Name      string `json:"name"`
	MinPoints int64  `json:"min_points"`
	MaxPoints int64  `json:"max_points"`
}

// Ranks is the ordered rank table. Bands are contiguous and exhaustive
// over [0, +inf): exactly one band matches any non-negative total.
var Ranks = []RankBand{
	{Name: "Beginner", MinPoints: 0, MaxPoints: 99},
	{Name: "Apprentice", MinPoints: 100, MaxPoints: 299},
	{Name: "Skilled", MinPoints: 300, MaxPoints: 699},
	{Name: "Expert", MinPoints: 700, MaxPoints: 1499},
	{Name: "Master", MinPoints: 1500, MaxPoints: 2999},
	{Name: "Grandmaster", MinPoints: 3000, MaxPoints: math.MaxInt64},
}

func bandIndex(points int64) int {
	for i, b := range Ranks {
		if points >= b.MinPoints && points <= b.MaxPoints {
			return i
		}
	}
	// unreachable for points >= 0 given the table invariant; fall back
	// to the lowest band rather than returning an empty rank
	return 0
}

// RankForPoints maps a point total to its rank name.
func RankForPoints(points int64) string {
	return Ranks[bandIndex(points)].Name
}

// Progress describes the distance to the next rank band.
type Progress struct {
	NextRank     string `json:"nextRank"`
	PointsNeeded int64  `json:"pointsNeeded"`
}

// NextRankProgress reports the next rank and the points still needed to
// reach it. In the terminal band PointsNeeded is 0 and NextRank is the
// current rank name.
func NextRankProgress(points int64) Progress {
	i := bandIndex(points)
	if i == len(Ranks)-1 {
		return Progress{NextRank: Ranks[i].Name, PointsNeeded: 0}
	}
	next := Ranks[i+1]
	return Progress{NextRank: next.Name, PointsNeeded: next.MinPoints - points}
}
