// Package notify turns ledger events into transient user-facing
// notifications: the banner the app flashes when a user ranks up, and a
// webhook fan-out for external consumers.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pointsrank/core"
)

// Banner is one transient notification surfaced to the UI.
type Banner struct {
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Type     string        `json:"type"`
	UserID   core.UserID   `json:"user_id"`
	Duration time.Duration `json:"duration"`
}

const (
	TypeRank = "rank"

	// rank banners stay up longer than regular ones
	rankBannerDuration = 7 * time.Second

	maxRecent = 50
)

// Center consumes points updates and produces rank-change banners. It is
// the in-process stand-in for the app's notification context: UI code
// registers a show func, everything else reads Recent.
type Center struct {
	mu     sync.Mutex
	recent []Banner
	show   func(Banner)
}

// Option configures a Center.
type Option func(*Center)

// WithShowFunc registers a callback invoked for each produced banner.
func WithShowFunc(show func(Banner)) Option {
	return func(c *Center) { c.show = show }
}

func NewCenter(opts ...Option) *Center {
	c := &Center{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HandleUpdate is the bus subscriber. Only rank boundary crossings
// produce a banner; plain point gains stay silent.
func (c *Center) HandleUpdate(_ context.Context, u core.PointsUpdate) {
	if !u.RankChanged() {
		return
	}
	banner := Banner{
		Title:    "Rank Up!",
		Message:  fmt.Sprintf("Congratulations! You've reached the %s rank.", u.NewRank),
		Type:     TypeRank,
		UserID:   u.UserID,
		Duration: rankBannerDuration,
	}
	if u.NewPoints < u.OldPoints {
		banner.Title = "Rank Changed"
		banner.Message = fmt.Sprintf("Your rank is now %s.", u.NewRank)
	}

	c.mu.Lock()
	c.recent = append(c.recent, banner)
	if len(c.recent) > maxRecent {
		c.recent = c.recent[len(c.recent)-maxRecent:]
	}
	show := c.show
	c.mu.Unlock()

	if show != nil {
		show(banner)
	}
}

// Recent returns up to n banners, newest first.
func (c *Center) Recent(n int) []Banner {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Banner, 0, n)
	for i := len(c.recent) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, c.recent[i])
	}
	return out
}
