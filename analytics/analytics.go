// Package analytics aggregates ledger activity into a few product KPIs:
// daily active users, points awarded, rank-up counts, and the current
// rank distribution.
package analytics

import (
	"context"
	"sync"
	"time"

	"pointsrank/core"
)

// Hook receives points updates for KPI aggregation.
type Hook interface {
	OnUpdate(u core.PointsUpdate)
}

// Snapshot is a point-in-time view of the collected KPIs.
type Snapshot struct {
	Updates       int64          `json:"updates"`
	PointsAwarded int64          `json:"points_awarded"`
	RankUps       int64          `json:"rank_ups"`
	ActiveToday   int            `json:"active_today"`
	RankCounts    map[string]int `json:"rank_counts"`
}

// Collector aggregates updates in memory. Safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	updates       int64
	pointsAwarded int64
	rankUps       int64
	days          map[string]map[core.UserID]struct{}
	lastRank      map[core.UserID]string

	now func() time.Time
}

func NewCollector() *Collector {
	return &Collector{
		days:     map[string]map[core.UserID]struct{}{},
		lastRank: map[core.UserID]string{},
		now:      time.Now,
	}
}

func (c *Collector) OnUpdate(u core.PointsUpdate) {
	day := c.now().UTC().Format("2006-01-02")

	c.mu.Lock()
	defer c.mu.Unlock()

	c.updates++
	if delta := u.NewPoints - u.OldPoints; delta > 0 {
		c.pointsAwarded += delta
	}
	if u.RankChanged() && u.NewPoints > u.OldPoints {
		c.rankUps++
	}
	m := c.days[day]
	if m == nil {
		m = map[core.UserID]struct{}{}
		c.days[day] = m
	}
	m[u.UserID] = struct{}{}
	c.lastRank[u.UserID] = u.NewRank
}

// HandleUpdate adapts the collector to the event bus handler signature.
func (c *Collector) HandleUpdate(_ context.Context, u core.PointsUpdate) { c.OnUpdate(u) }

// ActiveUsers returns the distinct users seen on a YYYY-MM-DD day.
func (c *Collector) ActiveUsers(day string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.days[day])
}

// Snapshot returns the current KPI view.
func (c *Collector) Snapshot() Snapshot {
	today := c.now().UTC().Format("2006-01-02")

	c.mu.Lock()
	defer c.mu.Unlock()

	counts := make(map[string]int, len(core.Ranks))
	for _, rank := range c.lastRank {
		counts[rank]++
	}
	return Snapshot{
		Updates:       c.updates,
		PointsAwarded: c.pointsAwarded,
		RankUps:       c.rankUps,
		ActiveToday:   len(c.days[today]),
		RankCounts:    counts,
	}
}

var _ Hook = (*Collector)(nil)
